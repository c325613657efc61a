package regulation

import (
	"regexp"
	"strings"

	"csvcert/internal/rules"
)

var (
	dniPattern     = regexp.MustCompile(`^\d{8}[A-Z]$`)
	niePattern     = regexp.MustCompile(`^[XYZ]\d{7}[A-Z]$`)
	limaZipPattern = regexp.MustCompile(`^LIMA\d{2}$`)
	fiveDigitZip   = regexp.MustCompile(`^\d{5}$`)
	sixDigitZip    = regexp.MustCompile(`^\d{6}$`)
	peruDocPattern = regexp.MustCompile(`^[A-Za-z0-9\-\s]+$`)
)

// peruSchema overrides the personalid and zip chains and adds the
// non-resident document cross-check. personalid is conditionally required:
// only Spanish residents (citizenship ES) must supply one.
func peruSchema() *Schema {
	fieldRules := baseFieldRules()
	fieldRules["personalid"] = []rules.Rule{peruPersonalID()}
	fieldRules["zip"] = []rules.Rule{peruZip()}
	fieldRules["zipcode"] = []rules.Rule{peruZip()}
	fieldRules["postalcode"] = []rules.Rule{peruZip()}
	fieldRules["postcode"] = []rules.Rule{peruZip()}

	return &Schema{
		Code: "PE",
		Name: "Peru",
		RequiredFields: []string{
			"firstname", "lastname",
			"email", "birthdate", "address",
			"city", "countrycode",
			"username",
			"citizenship",
			"provincecode", "province", "personalid",
			"idcardno", "regioncode",
		},
		FieldRules: fieldRules,
		CrossRules: append(baseCrossRules(), peruDocuments()),
		Conditional: map[string]Conditional{
			"personalid": {
				DependsOn: "citizenship",
				Trigger:   "ES",
				Message:   "personalid is required for Spanish residents",
			},
		},
	}
}

// peruPersonalID validates a present personalid by citizenship: Spanish
// residents must hold a DNI or NIE, non-residents may supply any reasonable
// document identifier.
func peruPersonalID() rules.Rule {
	return func(value string, get rules.Getter) string {
		citizenship := strings.ToUpper(strings.TrimSpace(get("citizenship")))
		if citizenship == "" {
			return "Citizenship is required for PersonalID validation"
		}

		v := strings.TrimSpace(value)
		if citizenship == "ES" {
			if v == "" {
				return "PersonalID is mandatory for Spanish residents (DNI or NIE required)"
			}
			id := strings.ToUpper(v)
			if dniPattern.MatchString(id) || niePattern.MatchString(id) {
				return ""
			}
			return "Invalid Spanish ID format. Must be DNI (8 digits + letter) or NIE (X/Y/Z + 7 digits + letter)"
		}

		// Optional for non-residents.
		if v == "" {
			return ""
		}
		if len(v) < 5 {
			return "PersonalID is too short (minimum 5 characters)"
		}
		if len(v) > 20 {
			return "PersonalID is too long (maximum 20 characters)"
		}
		if !peruDocPattern.MatchString(v) {
			return "PersonalID contains invalid characters"
		}
		return ""
	}
}

// peruZip accepts Lima's LIMAxx codes plus plain 5 or 6 digit codes.
func peruZip() rules.Rule {
	return func(value string, _ rules.Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Zip code is empty"
		}
		if limaZipPattern.MatchString(strings.ToUpper(v)) {
			return ""
		}
		if fiveDigitZip.MatchString(v) || sixDigitZip.MatchString(v) {
			return ""
		}
		return "Peru zip code must be 5 digits, 6 digits, or LIMA format (LIMAxx)"
	}
}

// peruDocuments requires non-residents to present at least one identity
// document of any accepted kind.
func peruDocuments() rules.RowRule {
	return func(get rules.Getter) []string {
		citizenship := strings.ToUpper(strings.TrimSpace(get("citizenship")))
		if citizenship == "" || citizenship == "ES" {
			return nil
		}
		for _, doc := range []string{"idcardno", "passportid", "driverlicenseno", "personalid"} {
			if strings.TrimSpace(get(doc)) != "" {
				return nil
			}
		}
		return []string{"Non-residents must provide at least one document: ID card, passport, driver's license, or personal ID"}
	}
}
