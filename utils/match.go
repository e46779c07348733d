package utils

import "strings"

// Match checks whether value matches pattern. Patterns may include:
//   - Wildcard '*' matching any sequence of characters within a segment,
//     or everything to the end when it is the final character.
//   - Parameter prefix ':' (e.g. ':id') matching any single segment.
//
// Segments are separated by '/'. Granted permissions are patterns
// ("project.*", "doc/:id/read") matched against the concrete permission
// being required.
func Match(value, pattern string) bool {
	if pattern == value || pattern == "*" {
		return true
	}

	vIndex, pIndex := 0, 0
	vLen, pLen := len(value), len(pattern)

	for pIndex < pLen {
		switch pattern[pIndex] {
		case '*':
			// trailing '*' swallows the rest of the value
			if pIndex == pLen-1 {
				return true
			}
			for vIndex < vLen && value[vIndex] != '/' {
				vIndex++
			}
			pIndex++
		case ':':
			// skip the parameter name in the pattern
			pIndex++
			for pIndex < pLen && pattern[pIndex] != '/' {
				pIndex++
			}
			// skip the corresponding value segment
			for vIndex < vLen && value[vIndex] != '/' {
				vIndex++
			}
		default:
			if vIndex < vLen && pattern[pIndex] == value[vIndex] {
				vIndex++
				pIndex++
			} else {
				return false
			}
		}
	}

	if strings.HasSuffix(pattern, "/*") {
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "/*"))
	}
	return vIndex == vLen && pIndex == pLen
}
