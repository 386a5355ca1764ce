package codec

import "strconv"

// Bit layout of the 16-bit orbit flag field.
const (
	maskOrbitClass    = 0x3F
	maskNEO           = 0x0800
	mask1kmNEO        = 0x1000
	maskOneOpposition = 0x2000
	maskCriticalList  = 0x4000
	maskPHA           = 0x8000
)

var orbitClassNames = map[int]string{
	1:  "Atira",
	2:  "Aten",
	3:  "Apollo",
	4:  "Amor",
	5:  "Object with q < 1.665 AU",
	6:  "Hungaria",
	7:  "Phocaea",
	8:  "Hilda",
	9:  "Jupiter Trojan",
	10: "Distant object",
}

// OrbitFlags is the decoded form of the hexadecimal flag column.
type OrbitFlags struct {
	ClassCode     int
	ClassName     string // empty when the class bits map to nothing
	NEO           bool
	OneKmNEO      bool
	OneOpposition bool
	CriticalList  bool
	PHA           bool
}

// DecodeOrbitFlags parses a 4-hex-digit flag string. An absent or malformed
// field decodes as "0000": no class, no flags.
func DecodeOrbitFlags(hexFlags string) OrbitFlags {
	var value int
	if len(hexFlags) == 4 {
		if v, err := strconv.ParseUint(hexFlags, 16, 16); err == nil {
			value = int(v)
		}
	}

	code := value & maskOrbitClass
	return OrbitFlags{
		ClassCode:     code,
		ClassName:     orbitClassNames[code],
		NEO:           value&maskNEO != 0,
		OneKmNEO:      value&mask1kmNEO != 0,
		OneOpposition: value&maskOneOpposition != 0,
		CriticalList:  value&maskCriticalList != 0,
		PHA:           value&maskPHA != 0,
	}
}

// FlagValue renders a decoded boolean flag as the 0/1 string the output
// tables carry.
func FlagValue(set bool) string {
	if set {
		return "1"
	}
	return "0"
}
