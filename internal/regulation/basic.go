package regulation

// basicSchema is the minimal field set used for exports that only carry
// contact identity.
func basicSchema() *Schema {
	return &Schema{
		Code:           "IMS",
		Name:           "Basic",
		RequiredFields: []string{"email", "firstname", "lastname"},
		FieldRules:     baseFieldRules(),
		CrossRules:     baseCrossRules(),
	}
}
