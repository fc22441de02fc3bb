package contrib

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+\.[A-Za-z0-9-.]+$`)

// ValidateUsername enforces spec.md §4.2.4: length >= 3 after trim, ASCII
// alphanumerics and ASCII punctuation only, no whitespace.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if len(trimmed) < 3 {
		return coreerrors.ValidationFailure.New("Username must be at least 3 characters long")
	}
	for _, r := range trimmed {
		if r > unicode.MaxASCII {
			return coreerrors.ValidationFailure.New("Username must contain only ASCII characters")
		}
		if unicode.IsSpace(r) {
			return coreerrors.ValidationFailure.New("Username must not contain whitespace")
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return coreerrors.ValidationFailure.New("Username must contain only alphanumerics and punctuation")
		}
	}
	return nil
}

// ValidatePassword enforces spec.md §4.2.4: length >= 7.
func ValidatePassword(password string) error {
	if len(password) < 7 {
		return coreerrors.ValidationFailure.New("Password must be at least 7 characters long")
	}
	return nil
}

// ValidateEmail enforces spec.md §4.2.4's pattern.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return coreerrors.ValidationFailure.New("Email address is not well-formed")
	}
	return nil
}

// ValidateConsent enforces spec.md §4.2.4: all three consent leaves true.
func ValidateConsent(c model.Consent) error {
	if !c.AllGiven() {
		return coreerrors.ValidationFailure.New("All consent fields must be accepted")
	}
	return nil
}

// ValidateCoordinates enforces spec.md §3/§4.2.4: both present or both
// absent, and within their respective ranges.
func ValidateCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return coreerrors.ValidationFailure.New("Latitude and longitude must both be present or both be absent")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return coreerrors.ValidationFailure.New("Latitude out of range")
	}
	if *lon < -180 || *lon > 180 {
		return coreerrors.ValidationFailure.New("Longitude out of range")
	}
	return nil
}

// ValidateIssueTitle enforces spec.md §4.2.4: non-empty title after trim.
func ValidateIssueTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return coreerrors.ValidationFailure.New("Issue title must not be empty")
	}
	return nil
}

// ValidateDepartureTime enforces spec.md §4.2.2: a negative departure
// time is rejected. Values of 1440 or more pass and are wrapped into the
// day by NormalizeDepartureTime when the change is accepted.
func ValidateDepartureTime(minutes int) error {
	if minutes < 0 {
		return coreerrors.ValidationFailure.New("Departure time must not be negative")
	}
	return nil
}

// NormalizeDepartureTime applies the modulo-1440 rule of spec.md §4.2.2.
func NormalizeDepartureTime(minutes int) int {
	return minutes % 1440
}

// ValidateStop runs the entity-specific checks spec.md §4.2.4 lists for a
// Stop: coordinate pairing/range only (names, address, etc. have no
// documented constraints here).
func ValidateStop(s model.Stop) error {
	return ValidateCoordinates(s.Lat, s.Lon)
}
