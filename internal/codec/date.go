package codec

import "fmt"

var centuryBases = map[byte]int{
	'I': 1800,
	'J': 1900,
	'K': 2000,
}

var monthLetters = map[byte]int{
	'A': 10,
	'B': 11,
	'C': 12,
}

// dayLetterOffset maps 'A'..'V' onto days 10..31.
const dayLetterOffset = 10

// UnpackDate decodes a 5-character MPC packed epoch into an ISO date string
// (YYYY-MM-DD). Anything that fails to decode, or decodes to an impossible
// month or day, yields the empty string.
func UnpackDate(packed string) string {
	if len(packed) < 5 {
		return ""
	}

	base, ok := centuryBases[packed[0]]
	if !ok {
		return ""
	}
	if !isDigits(packed[1:3]) {
		return ""
	}
	year := base + int(packed[1]-'0')*10 + int(packed[2]-'0')

	var month int
	switch c := packed[3]; {
	case c >= '0' && c <= '9':
		month = int(c - '0')
	default:
		m, ok := monthLetters[c]
		if !ok {
			return ""
		}
		month = m
	}

	var day int
	switch c := packed[4]; {
	case c >= '0' && c <= '9':
		day = int(c - '0')
	case c >= 'A' && c <= 'Z':
		day = int(c-'A') + dayLetterOffset
	default:
		return ""
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
