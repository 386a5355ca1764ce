package merger

import "strings"

// MatchKey builds the normalized cross-source identity key for an entity.
// Priority: catalog number, then provisional designation, then name. Numbers
// lose their leading zeros so "001" and "1" collide; designations and names
// compare case-insensitively.
func MatchKey(number, pdes, name string) string {
	number = strings.TrimLeft(strings.TrimSpace(number), "0")
	if number != "" {
		return "NUM_" + number
	}
	pdes = strings.ToUpper(strings.TrimSpace(pdes))
	if pdes != "" {
		return "DES_" + pdes
	}
	return "NAM_" + strings.ToUpper(strings.TrimSpace(name))
}

// emptyNameKey is the key of an entity with no usable identity at all; such
// entities are never merge candidates.
const emptyNameKey = "NAM_"

// Eligible reports whether a match key can participate in the merge.
func Eligible(key string) bool {
	return key != emptyNameKey
}
