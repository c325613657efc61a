package rules

import "regexp"

// Patterns are compiled once at startup; rules only ever read them.
var (
	emailPattern          = regexp.MustCompile(`^[a-zA-Z0-9._%+\-áéíóúñÁÉÍÓÚÑ$]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	currencyCodePattern   = regexp.MustCompile(`^[A-Z]{3}$`)
	phonePattern          = regexp.MustCompile(`^\+?\d[\d\s\-()]{8,20}$`)
	countryCodePattern    = regexp.MustCompile(`^[A-Z]{2}$`)
	languageCodePattern   = regexp.MustCompile(`^[a-z]{2}$`)
	namePattern           = regexp.MustCompile(`^[a-zA-ZáéíóúñÁÉÍÓÚÑ\s\-'.]+$`)
	zipCodePattern        = regexp.MustCompile(`^[a-zA-Z0-9\s\-]{3,10}$`)
	regionProvincePattern = regexp.MustCompile(`^[A-Za-z0-9\-_]{1,10}$`)
	personalIDPattern     = regexp.MustCompile(`^[A-Za-z0-9\-\s]+$`)
)

var disposableDomains = []string{
	"tempmail.org",
	"10minutemail.com",
	"guerrillamail.com",
}

// Accepted date layouts, tried in order. Day-first wins ambiguous dates.
var (
	birthdateLayouts  = []string{"02/01/2006", "01/02/2006"}
	signupDateLayouts = []string{"02/01/2006", "01/02/2006", "2006-01-02"}
)

// Common language to plausible country associations used by the
// language/country consistency check.
var languageCountries = map[string][]string{
	"es": {"ES", "MX", "AR", "CO", "PE", "CL", "VE"},
	"en": {"US", "GB", "CA", "AU", "NZ"},
	"fr": {"FR", "CA", "BE", "CH"},
	"de": {"DE", "AT", "CH"},
	"it": {"IT", "CH"},
	"pt": {"PT", "BR"},
}
