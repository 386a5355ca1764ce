package codec

import (
	"fmt"
	"strconv"
	"strings"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// base62Val returns the digit value of c in the MPC base-62 alphabet, 0 for
// characters outside it (the upstream decoder does the same).
func base62Val(c byte) int {
	return strings.IndexByte(base62Alphabet, c)
}

var planetNames = map[byte]string{
	'J': "Jupiter",
	'S': "Saturn",
	'U': "Uranus",
	'N': "Neptune",
}

var centuryPrefixes = map[byte]string{
	'I': "18",
	'J': "19",
	'K': "20",
}

var surveySuffixes = map[string]string{
	"PLS": "P-L",
	"T1S": "T-1",
	"T2S": "T-2",
	"T3S": "T-3",
}

// tildeOffset is where the tilde-extended permanent numbering starts.
const tildeOffset = 620000

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// UnpackDesignation turns an MPC packed designation (permanent or provisional)
// into its human-readable form. Inputs that match none of the packed layouts
// come back unchanged; a malformed packed string is not an error, it is just
// assumed to be readable already.
func UnpackDesignation(packed string) string {
	packed = strings.TrimSpace(packed)

	// Purely numeric permanent designation, leading zeros dropped.
	if isDigits(packed) {
		n, err := strconv.Atoi(packed)
		if err != nil {
			return packed
		}
		return strconv.Itoa(n)
	}

	switch len(packed) {
	case 5:
		first := packed[0]
		rest := packed[1:]

		// Tilde-extended numbering (objects beyond 619999).
		if first == '~' {
			value := 0
			for i := 0; i < len(rest); i++ {
				v := base62Val(rest[i])
				if v < 0 {
					return packed
				}
				value = value*62 + v
			}
			return strconv.Itoa(value + tildeOffset)
		}

		// Planetary satellites pack as <planet-code>NNNS.
		if packed[4] == 'S' && isDigits(packed[1:4]) {
			if planet, ok := planetNames[first]; ok {
				n, _ := strconv.Atoi(packed[1:4])
				return fmt.Sprintf("%s %d", planet, n)
			}
		}

		// Extended numbering 100000..619999: base-62 head digit * 10000.
		if isAlpha(first) && isDigits(rest) {
			n, _ := strconv.Atoi(rest)
			return strconv.Itoa(base62Val(first)*10000 + n)
		}

	case 7:
		// Survey designations (Palomar-Leiden and the Trojan surveys).
		if suffix, ok := surveySuffixes[packed[:3]]; ok {
			return fmt.Sprintf("%s %s", packed[3:], suffix)
		}

		century, ok := centuryPrefixes[packed[0]]
		if !ok {
			return packed
		}
		if !isDigits(packed[1:3]) {
			return packed
		}
		year := century + packed[1:3]
		halfMonth := packed[3]
		cycleCode := packed[4:6]
		last := packed[6]

		var cycle int
		if isDigits(cycleCode) {
			cycle, _ = strconv.Atoi(cycleCode)
		} else {
			if cycleCode[1] < '0' || cycleCode[1] > '9' {
				return packed
			}
			v := base62Val(cycleCode[0])
			if v < 0 {
				return packed
			}
			cycle = v*10 + int(cycleCode[1]-'0')
		}

		switch {
		case last == '0':
			return fmt.Sprintf("%s %c%d", year, halfMonth, cycle)
		case last >= 'a' && last <= 'z':
			// Fragment designation.
			return fmt.Sprintf("%s %c%d-%c", year, halfMonth, cycle, last-('a'-'A'))
		default:
			if cycle > 0 {
				return fmt.Sprintf("%s %c%c%d", year, halfMonth, last, cycle)
			}
			return fmt.Sprintf("%s %c%c", year, halfMonth, last)
		}
	}

	return packed
}

// PackDesignation is the inverse of UnpackDesignation for purely numbered
// objects, the only direction the pipeline ever re-encodes. Provisional
// designations are never re-packed.
func PackDesignation(number int) string {
	switch {
	case number < 0:
		return ""
	case number < 100000:
		return fmt.Sprintf("%05d", number)
	case number < tildeOffset:
		head := base62Alphabet[number/10000]
		return fmt.Sprintf("%c%04d", head, number%10000)
	default:
		n := number - tildeOffset
		var digits [4]byte
		for i := 3; i >= 0; i-- {
			digits[i] = base62Alphabet[n%62]
			n /= 62
		}
		return "~" + string(digits[:])
	}
}

// SplitIdentity derives the number / provisional-designation / name triple for
// an unpacked object. Seven-character packed designations are provisional
// (unnumbered); everything else is numbered, with the proper name recovered
// from the "(123) Name" form of the full designation column when present.
func SplitIdentity(packed, unpacked, full string) (number, pdes, name string) {
	if len(strings.TrimSpace(packed)) == 7 {
		return "", unpacked, ""
	}
	number = strings.TrimLeft(strings.TrimSpace(unpacked), "0")
	if idx := strings.Index(full, ")"); idx >= 0 {
		name = strings.TrimSpace(full[idx+1:])
	}
	return number, "", name
}
