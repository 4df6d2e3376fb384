package telemetry

import (
	"strconv"
	"strings"
	"unicode"
)

// extractValue scans semi-structured key/value text for a `"key":` token and
// returns the first numeric run (digits, dot, minus) following the colon.
// A literal null after the colon means the key is present without a value.
// Quoting and other junk between the colon and the number is skipped, which
// keeps the scanner working on hosts that stringify their numbers.
func extractValue(s, key string) (float64, bool) {
	start := strings.Index(s, `"`+key+`"`)
	if start < 0 {
		return 0, false
	}

	rest := s[start:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return 0, false
	}
	rest = rest[colon+1:]

	if strings.HasPrefix(strings.TrimLeftFunc(rest, unicode.IsSpace), "null") {
		return 0, false
	}

	var num []byte
	found := false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c >= '0' && c <= '9' || c == '.' || c == '-' {
			num = append(num, c)
			found = true
		} else if found {
			break
		}
	}
	if !found {
		return 0, false
	}

	v, err := strconv.ParseFloat(string(num), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// scanWatts extracts a plausible wattage from probe output: either a line
// that parses as a number outright, or a number adjacent to a watt marker.
// Values outside (0, 200) watts are rejected as implausible.
func scanWatts(out string) (float64, bool) {
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if v, err := strconv.ParseFloat(line, 64); err == nil && v > 0 && v < 200 {
			return v, true
		}

		if !strings.Contains(line, "W") && !strings.Contains(line, "watt") {
			continue
		}
		for _, word := range strings.Fields(line) {
			word = strings.TrimFunc(word, func(r rune) bool {
				return !unicode.IsDigit(r) && r != '.'
			})
			if word == "" {
				continue
			}
			if v, err := strconv.ParseFloat(word, 64); err == nil && v > 0 && v < 200 {
				return v, true
			}
		}
	}

	return 0, false
}
