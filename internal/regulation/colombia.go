package regulation

// colombiaSchema is the Colombian field set. It uses the shared rule chains
// unchanged; only the required-field list is jurisdiction-specific.
func colombiaSchema() *Schema {
	return &Schema{
		Code: "CO",
		Name: "Colombia",
		RequiredFields: []string{
			"firstname", "lastname",
			"email", "birthdate", "address",
			"city", "countrycode", "zip", "cellphone",
			"gender", "username",
			"citizenship", "regioncode",
			"provincecode", "province", "personalid",
			"idcardno",
			"birthcity", "birthcountrycode",
		},
		FieldRules: baseFieldRules(),
		CrossRules: baseCrossRules(),
	}
}
