package loaders

import (
	"strconv"
	"strings"

	"github.com/oarkflow/date"
)

// parseAttrValue restores typed attribute values from their external text
// representation: bool, integer, float, flexible timestamp, else string.
func parseAttrValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if looksLikeTimestamp(s) {
		if t, err := date.Parse(s); err == nil {
			return t
		}
	}
	return s
}

// looksLikeTimestamp filters out plain words before handing a value to the
// flexible date parser, which is permissive enough to mis-parse them.
func looksLikeTimestamp(s string) bool {
	if len(s) < 8 {
		return false
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits++
		}
	}
	return digits >= 6 && (strings.Contains(s, "-") || strings.Contains(s, "/"))
}
