package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Regions tried in order when a number carries no country prefix. The dive
// center's clientele is mostly local plus North American tourists.
var supportedRegions = []string{
	"EG",
	"US",
}

// NormalizePhone converts a phone number to E.164. Numbers that cannot be
// parsed for any supported region come back unchanged so validation can
// reject them with a useful message.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return phone
}
