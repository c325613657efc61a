package rules

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func noFields(string) string { return "" }

func fields(m map[string]string) Getter {
	return func(field string) string { return m[field] }
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "valid address", value: "ana.garcia@example.com", want: ""},
		{name: "accented local part", value: "josé@example.com", want: ""},
		{name: "empty", value: "", want: "Email is empty"},
		{name: "whitespace only", value: "   ", want: "Email is empty"},
		{name: "missing at sign", value: "ana.example.com", want: "Email missing @ symbol"},
		{name: "missing domain", value: "ana@", want: "Email has invalid format"},
		{name: "missing tld", value: "ana@example", want: "Email has invalid format"},
		{name: "embedded space", value: "ana garcia@example.com", want: "Email has invalid format"},
		{name: "disposable domain", value: "ana@tempmail.org", want: "Disposable email addresses are not allowed"},
		{name: "disposable domain mixed case", value: "ana@TempMail.ORG", want: "Disposable email addresses are not allowed"},
	}

	rule := Email()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule(tt.value, noFields))
		})
	}
}

func TestBirthdate(t *testing.T) {
	adult := time.Now().AddDate(-30, 0, 0).Format("02/01/2006")
	minor := time.Now().AddDate(-12, 0, 0).Format("02/01/2006")
	future := time.Now().AddDate(1, 0, 0).Format("02/01/2006")

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "adult", value: adult, want: ""},
		{name: "empty", value: "", want: "Birthdate is empty"},
		{name: "minor", value: minor, want: "Account holder is underage (age: 12)"},
		{name: "future date", value: future, want: "Birthdate is in the future"},
		{name: "garbage", value: "not-a-date", want: "Invalid birthdate format"},
		{name: "iso layout rejected", value: "1990-05-14", want: "Invalid birthdate format"},
	}

	rule := Birthdate(18)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule(tt.value, noFields))
		})
	}
}

func TestBirthdateExactAnniversary(t *testing.T) {
	// Turns 18 today: full years elapsed is exactly 18, so the check passes.
	birthday := time.Now().AddDate(-18, 0, 0).Format("02/01/2006")
	assert.Equal(t, "", Birthdate(18)(birthday, noFields))
}

func TestSignupDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "slash layout", value: "15/03/2020", want: ""},
		{name: "iso layout", value: "2020-03-15", want: ""},
		{name: "empty", value: "", want: "Signup date is empty"},
		{name: "future", value: time.Now().AddDate(0, 1, 0).Format("2006-01-02"), want: "Signup date is in the future"},
		{name: "garbage", value: "yesterday", want: "Invalid signup date format"},
	}

	rule := SignupDate()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule(tt.value, noFields))
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "international", value: "+34 612 345 678", want: ""},
		{name: "dashes and parens", value: "1 (555) 123-4567", want: ""},
		{name: "empty", value: "", want: "Phone number is empty"},
		{name: "too short", value: "+34 61", want: "Phone number has invalid format"},
		{name: "letters", value: "CALL-ME-NOW", want: "Phone number has invalid format"},
	}

	rule := Phone()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule(tt.value, noFields))
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "Ana", want: ""},
		{name: "accented", value: "José Ñuñez", want: ""},
		{name: "hyphen and apostrophe", value: "O'Brien-Smith", want: ""},
		{name: "empty", value: "", want: "Name is empty"},
		{name: "too long", value: strings.Repeat("a", 51), want: "Name too long (max 50 characters)"},
		{name: "digits", value: "Ana2", want: "Name contains invalid characters"},
	}

	rule := Name(50)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule(tt.value, noFields))
		})
	}
}

func TestCodes(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value string
		want  string
	}{
		{name: "country valid", rule: CountryCode(), value: "CO", want: ""},
		{name: "country lowercase normalized", rule: CountryCode(), value: "co", want: ""},
		{name: "country empty", rule: CountryCode(), value: "", want: "Country code is empty"},
		{name: "country three letters", rule: CountryCode(), value: "COL", want: "Country code must be 2 uppercase letters"},
		{name: "language valid", rule: LanguageCode(), value: "es", want: ""},
		{name: "language too long", rule: LanguageCode(), value: "spa", want: "Language code must be 2 lowercase letters"},
		{name: "currency valid", rule: CurrencyCode(), value: "COP", want: ""},
		{name: "currency empty", rule: CurrencyCode(), value: "", want: "Cannot be empty"},
		{name: "currency two letters", rule: CurrencyCode(), value: "CO", want: "Not a valid format (should be 3 uppercase letters)"},
		{name: "citizenship valid", rule: Citizenship(), value: "ES", want: ""},
		{name: "citizenship empty", rule: Citizenship(), value: "", want: "Citizenship is empty"},
		{name: "region valid", rule: RegionCode(), value: "LIM", want: ""},
		{name: "region too long", rule: RegionCode(), value: strings.Repeat("X", 11), want: "Region code contains invalid characters or is too long"},
		{name: "province code valid", rule: ProvinceCode(), value: "CUN-01", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule(tt.value, noFields))
		})
	}
}

func TestPersonalID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "valid", value: "CC-1020304050", want: ""},
		{name: "empty", value: "", want: "Personal ID is empty"},
		{name: "too short", value: "123", want: "Personal ID too short"},
		{name: "too long", value: strings.Repeat("1", 21), want: "Personal ID too long"},
		{name: "bad charset", value: "ID_12345", want: "Personal ID contains invalid characters"},
	}

	rule := PersonalID()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule(tt.value, noFields))
		})
	}
}

func TestNoCRLF(t *testing.T) {
	rule := NoCRLF()
	assert.Equal(t, "", rule("plain value", noFields))
	assert.Equal(t, "Contains line breaks (potential CRLF injection)", rule("line1\nline2", noFields))
	assert.Equal(t, "Contains line breaks (potential CRLF injection)", rule("line1\rline2", noFields))
}

func TestRequiredWhen(t *testing.T) {
	rule := RequiredWhen("citizenship", "ES", "PersonalID is mandatory for Spanish residents (DNI or NIE required)")

	tests := []struct {
		name        string
		value       string
		citizenship string
		want        string
	}{
		{name: "trigger and empty", value: "", citizenship: "ES", want: "PersonalID is mandatory for Spanish residents (DNI or NIE required)"},
		{name: "trigger lowercase", value: "", citizenship: "es", want: "PersonalID is mandatory for Spanish residents (DNI or NIE required)"},
		{name: "trigger and present", value: "12345678Z", citizenship: "ES", want: ""},
		{name: "no trigger and empty", value: "", citizenship: "PE", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule(tt.value, fields(map[string]string{"citizenship": tt.citizenship}))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressConsistency(t *testing.T) {
	rule := AddressConsistency()

	tests := []struct {
		name    string
		address string
		city    string
		want    []string
	}{
		{name: "both present", address: "Calle 1", city: "Bogotá", want: nil},
		{name: "both empty", address: "", city: "", want: nil},
		{name: "address without city", address: "Calle 1", city: "", want: []string{"Address provided but city is missing"}},
		{name: "city without address", address: "", city: "Bogotá", want: []string{"City provided but address is missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule(fields(map[string]string{"address": tt.address, "city": tt.city}))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageCountryConsistency(t *testing.T) {
	rule := LanguageCountryConsistency()

	tests := []struct {
		name     string
		language string
		country  string
		want     []string
	}{
		{name: "typical pair", language: "es", country: "CO", want: nil},
		{name: "unknown language skipped", language: "xx", country: "CO", want: nil},
		{name: "missing country skipped", language: "es", country: "", want: nil},
		{name: "atypical pair", language: "de", country: "PE", want: []string{"Language 'de' not typically used in country 'PE'"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule(fields(map[string]string{"languagecode": tt.language, "countrycode": tt.country}))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYearsBetween(t *testing.T) {
	base := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		to   time.Time
		want int
	}{
		{name: "day before anniversary", to: time.Date(2018, 6, 14, 0, 0, 0, 0, time.UTC), want: 17},
		{name: "on anniversary", to: time.Date(2018, 6, 15, 0, 0, 0, 0, time.UTC), want: 18},
		{name: "day after anniversary", to: time.Date(2018, 6, 16, 0, 0, 0, 0, time.UTC), want: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, yearsBetween(base, tt.to))
		})
	}
}

func ExampleEmail() {
	rule := Email()
	fmt.Println(rule("user@example.com", noFields) == "")
	// Output: true
}
