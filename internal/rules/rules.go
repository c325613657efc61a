// Package rules provides the primitive, stateless field checks shared by all
// regulation schemas. Every rule is a pure function of the field value and
// its row, so rules can be evaluated concurrently without synchronization.
package rules

import (
	"fmt"
	"strings"
	"time"
)

// Getter resolves another field of the same row, with any column mapping
// already applied.
type Getter func(field string) string

// Rule checks one field value. It returns the empty string when the value
// passes, or a human-readable failure description.
type Rule func(value string, get Getter) string

// RowRule checks relationships between fields of one row and returns zero or
// more failure descriptions.
type RowRule func(get Getter) []string

// Email validates the address format and rejects known disposable domains.
func Email() Rule {
	return func(value string, _ Getter) string {
		if strings.TrimSpace(value) == "" {
			return "Email is empty"
		}
		email := strings.TrimSpace(value)
		if !strings.Contains(email, "@") {
			return "Email missing @ symbol"
		}
		if !emailPattern.MatchString(email) {
			return "Email has invalid format"
		}
		domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
		for _, d := range disposableDomains {
			if domain == d {
				return "Disposable email addresses are not allowed"
			}
		}
		return ""
	}
}

// Birthdate parses the value against the accepted date formats and enforces
// a minimum age in full years.
func Birthdate(minAge int) Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Birthdate is empty"
		}
		for _, layout := range birthdateLayouts {
			birthdate, err := time.Parse(layout, v)
			if err != nil {
				continue
			}
			now := time.Now()
			if birthdate.After(now) {
				return "Birthdate is in the future"
			}
			if age := yearsBetween(birthdate, now); age < minAge {
				return fmt.Sprintf("Account holder is underage (age: %d)", age)
			}
			return ""
		}
		return "Invalid birthdate format"
	}
}

// SignupDate accepts the broader signup layouts and rejects future dates.
func SignupDate() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Signup date is empty"
		}
		for _, layout := range signupDateLayouts {
			d, err := time.Parse(layout, v)
			if err != nil {
				continue
			}
			if d.After(time.Now()) {
				return "Signup date is in the future"
			}
			return ""
		}
		return "Invalid signup date format"
	}
}

// Phone validates international phone number shapes.
func Phone() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Phone number is empty"
		}
		if !phonePattern.MatchString(v) {
			return "Phone number has invalid format"
		}
		return ""
	}
}

// Name validates a personal name: bounded length, letters (accents allowed),
// no embedded digits.
func Name(maxLength int) Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Name is empty"
		}
		if len([]rune(v)) > maxLength {
			return fmt.Sprintf("Name too long (max %d characters)", maxLength)
		}
		if !namePattern.MatchString(v) {
			return "Name contains invalid characters"
		}
		return ""
	}
}

// NameLength bounds a name's length without charset checks.
func NameLength(minLength, maxLength int) Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return fmt.Sprintf("Name must be at least %d character(s)", minLength)
		}
		if len([]rune(v)) < minLength {
			return fmt.Sprintf("Name too short (min %d characters)", minLength)
		}
		if len([]rune(v)) > maxLength {
			return fmt.Sprintf("Name too long (max %d characters)", maxLength)
		}
		return ""
	}
}

// ZipCode validates the generic postal code shape.
func ZipCode() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Zip code is empty"
		}
		if !zipCodePattern.MatchString(v) {
			return "Zip code has invalid format"
		}
		return ""
	}
}

// CountryCode requires an ISO 3166-1 alpha-2 style code.
func CountryCode() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Country code is empty"
		}
		if !countryCodePattern.MatchString(strings.ToUpper(v)) {
			return "Country code must be 2 uppercase letters"
		}
		return ""
	}
}

// Citizenship requires a two-letter country code.
func Citizenship() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Citizenship is empty"
		}
		if !countryCodePattern.MatchString(strings.ToUpper(v)) {
			return "Citizenship must be 2 uppercase letters"
		}
		return ""
	}
}

// LanguageCode requires an ISO 639-1 style code.
func LanguageCode() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Language code is empty"
		}
		if !languageCodePattern.MatchString(strings.ToLower(v)) {
			return "Language code must be 2 lowercase letters"
		}
		return ""
	}
}

// CurrencyCode requires an ISO 4217 style code.
func CurrencyCode() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Cannot be empty"
		}
		if !currencyCodePattern.MatchString(strings.ToUpper(v)) {
			return "Not a valid format (should be 3 uppercase letters)"
		}
		return ""
	}
}

// RegionCode validates a short alphanumeric region identifier.
func RegionCode() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Region code is empty"
		}
		if !regionProvincePattern.MatchString(v) {
			return "Region code contains invalid characters or is too long"
		}
		return ""
	}
}

// ProvinceCode validates a short alphanumeric province identifier.
func ProvinceCode() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Province code is empty"
		}
		if !regionProvincePattern.MatchString(v) {
			return "Province code contains invalid characters or is too long"
		}
		return ""
	}
}

// Province validates a province display name.
func Province() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Province is empty"
		}
		if len([]rune(v)) < 2 {
			return "Province name too short"
		}
		if len([]rune(v)) > 50 {
			return "Province name too long"
		}
		if !namePattern.MatchString(v) {
			return "Province contains invalid characters"
		}
		return ""
	}
}

// PersonalID validates the default personal document identifier shape.
func PersonalID() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "Personal ID is empty"
		}
		if len(v) < 5 {
			return "Personal ID too short"
		}
		if len(v) > 20 {
			return "Personal ID too long"
		}
		if !personalIDPattern.MatchString(v) {
			return "Personal ID contains invalid characters"
		}
		return ""
	}
}

// IDCardNo validates an identity card number.
func IDCardNo() Rule {
	return func(value string, _ Getter) string {
		v := strings.TrimSpace(value)
		if v == "" {
			return "ID card number is empty"
		}
		if len(v) < 5 {
			return "ID card number too short"
		}
		if len(v) > 20 {
			return "ID card number too long"
		}
		if !personalIDPattern.MatchString(v) {
			return "ID card number contains invalid characters"
		}
		return ""
	}
}

// NoCRLF rejects embedded line breaks, a header-injection vector when values
// are re-exported.
func NoCRLF() Rule {
	return func(value string, _ Getter) string {
		if strings.ContainsAny(value, "\r\n") {
			return "Contains line breaks (potential CRLF injection)"
		}
		return ""
	}
}

// RequiredWhen makes a field mandatory only when another field's normalized
// value equals the given trigger.
func RequiredWhen(dependsOn, equals, message string) Rule {
	return func(value string, get Getter) string {
		dep := strings.ToUpper(strings.TrimSpace(get(dependsOn)))
		if dep == strings.ToUpper(equals) && strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	}
}

// AddressConsistency flags rows where address and city are not provided
// together.
func AddressConsistency() RowRule {
	return func(get Getter) []string {
		address := strings.TrimSpace(get("address"))
		city := strings.TrimSpace(get("city"))
		switch {
		case address != "" && city == "":
			return []string{"Address provided but city is missing"}
		case city != "" && address == "":
			return []string{"City provided but address is missing"}
		}
		return nil
	}
}

// LanguageCountryConsistency warns when a signup language is unusual for the
// declared country.
func LanguageCountryConsistency() RowRule {
	return func(get Getter) []string {
		language := strings.ToLower(strings.TrimSpace(get("languagecode")))
		country := strings.ToUpper(strings.TrimSpace(get("countrycode")))
		if language == "" || country == "" {
			return nil
		}
		countries, ok := languageCountries[language]
		if !ok {
			return nil
		}
		for _, c := range countries {
			if c == country {
				return nil
			}
		}
		return []string{fmt.Sprintf("Language '%s' not typically used in country '%s'", language, country)}
	}
}

// yearsBetween returns the number of full years elapsed between from and to.
func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
