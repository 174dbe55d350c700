package valueobject

import (
	"regexp"
	"strings"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// SenegalCountryCode is the international dialing prefix of Senegal
const SenegalCountryCode = "+221"

// Mobile numbers start with 7 (70, 75, 76, 77, 78), landlines with 33
var senegalPhonePattern = regexp.MustCompile(`^\+221(7[05678]|33)[0-9]{7}$`)

// Phone is a Senegal phone number in E.164 form, e.g. +221771234567
type Phone string

// NewPhone normalizes a number written as "77 123 45 67", "00221771234567"
// or "+221 77-123-45-67" and validates it
func NewPhone(raw string) (Phone, error) {
	s := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "00221"):
		s = "+" + s[2:]
	case strings.HasPrefix(s, "221") && len(s) == 12:
		s = "+" + s
	case len(s) == 9:
		s = SenegalCountryCode + s
	}
	if !senegalPhonePattern.MatchString(s) {
		return "", shared.NewDomainError("INVALID_PHONE", "Invalid Senegal phone number: "+raw)
	}
	return Phone(s), nil
}

// IsValidPhone reports whether raw can be normalized to a Senegal number
func IsValidPhone(raw string) bool {
	_, err := NewPhone(raw)
	return err == nil
}

// String returns the E.164 form
func (p Phone) String() string {
	return string(p)
}

// Local returns the number without the country code, grouped as 77 123 45 67
func (p Phone) Local() string {
	s := strings.TrimPrefix(string(p), SenegalCountryCode)
	if len(s) != 9 {
		return s
	}
	return s[:2] + " " + s[2:5] + " " + s[5:7] + " " + s[7:]
}
