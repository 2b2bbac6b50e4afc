package parking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Plate is a Mercosul license plate: three letters, a digit, a letter and two
// digits, always upper case once stored.
type Plate string

var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)

func (p Plate) String() string {
	return string(p)
}

// NormalizePlate upper-cases ASCII letters only. Plates are ASCII, and folding
// other runes could turn an invalid input into a valid-looking plate.
func NormalizePlate(raw string) Plate {
	return Plate(strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, raw))
}

// IsValidPlate reports whether s is a Mercosul plate, ignoring case.
// Legacy all-letter formats are rejected.
func IsValidPlate(s string) bool {
	return platePattern.MatchString(string(NormalizePlate(s)))
}

// ParseHours parses the number of hours a vehicle stayed.
func ParseHours(s string) (int, error) {
	hours, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHours, s)
	}
	return hours, nil
}
