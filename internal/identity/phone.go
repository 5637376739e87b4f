package identity

import (
	"strings"

	"github.com/sodematha/mathasvc/internal/domain"
)

const countryCode = "+91"

// NormalizePhone turns a 10-digit Indian mobile number, with or without the
// country code, into E.164 form. Spaces and dashes are ignored.
func NormalizePhone(in string) (string, error) {
	s := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(in))
	s = strings.TrimPrefix(s, countryCode)
	if len(s) == 12 && strings.HasPrefix(s, "91") {
		s = s[2:]
	}
	if len(s) != 10 {
		return "", domain.ErrInvalidPhone
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", domain.ErrInvalidPhone
		}
	}
	return countryCode + s, nil
}
