package regulation

import "csvcert/internal/rules"

// baseFieldRules is the shared field dispatch table. Every schema starts
// from it; jurisdiction-specific schemas override individual entries.
// Zip-style fields share one chain under several accepted header spellings.
func baseFieldRules() map[string][]rules.Rule {
	return map[string][]rules.Rule{
		"email":              {rules.Email()},
		"birthdate":          {rules.Birthdate(18)},
		"phone":              {rules.Phone()},
		"cellphone":          {rules.Phone()},
		"firstname":          {rules.Name(50), rules.NameLength(1, 50)},
		"lastname":           {rules.Name(50), rules.NameLength(1, 50)},
		"regioncode":         {rules.RegionCode()},
		"provincecode":       {rules.ProvinceCode()},
		"province":           {rules.Province()},
		"personalid":         {rules.PersonalID()},
		"idcardno":           {rules.IDCardNo()},
		"citizenship":        {rules.Citizenship()},
		"signupdate":         {rules.SignupDate()},
		"address":            {rules.NoCRLF()},
		"countrycode":        {rules.CountryCode()},
		"zip":                {rules.ZipCode()},
		"zipcode":            {rules.ZipCode()},
		"postalcode":         {rules.ZipCode()},
		"postcode":           {rules.ZipCode()},
		"signuplanguagecode": {rules.LanguageCode()},
		"currencycode":       {rules.CurrencyCode()},
	}
}

// baseCrossRules are the cross-field checks applied by every schema.
func baseCrossRules() []rules.RowRule {
	return []rules.RowRule{
		rules.AddressConsistency(),
		rules.LanguageCountryConsistency(),
	}
}

// defaultExpectedFields is checked when no regulation is selected and the
// caller supplies no required-column list of its own.
var defaultExpectedFields = []string{
	"code",
	"firstname",
	"lastname",
	"email",
	"birthdate",
	"address",
	"city",
	"phone",
	"cellphone",
	"countrycode",
	"signuplanguagecode",
	"currencycode",
	"username",
	"zip",
	"signupdate",
	"password",
}

// Default is the schema used when no regulation is selected: the shared
// dispatch table over the generic expected-fields list. A run without a
// regulation still checks every expected field, never zero.
func Default() *Schema {
	return &Schema{
		Code:           "",
		Name:           "Default",
		RequiredFields: append([]string(nil), defaultExpectedFields...),
		FieldRules:     baseFieldRules(),
		CrossRules:     baseCrossRules(),
	}
}
