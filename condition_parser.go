package permit

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseRequirement parses a limited, deterministic requirement expression
// into a Predicate. Supported terms:
//
//	role:<name>                  permission:<name>        group:<name>
//	roles in ["a","b"]           groups in ["a","b"]
//	attrs.<key> == <value>       attrs.<key> != <value>   attrs.<key> >= <value>
//	id == <value>                type == <value>
//	time between 09:00-18:00
//
// Terms combine with AND and OR (case-insensitive). AND binds tighter than
// OR; a leading NOT inverts a single term. Parentheses are not supported,
// which keeps parsing simple; use the config tree or combinators for
// anything richer.
func ParseRequirement(s string) (Predicate[*Identity], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return True[*Identity](), nil
	}
	return parseOr(s)
}

var (
	orSplitRe  = regexp.MustCompile(`(?i)\s+OR\s+`)
	andSplitRe = regexp.MustCompile(`(?i)\s+AND\s+`)
	notRe      = regexp.MustCompile(`(?i)^NOT\s+`)
	tagTermRe  = regexp.MustCompile(`^(role|permission|group):(\S+)$`)
	inTermRe   = regexp.MustCompile(`^(roles|groups|[a-zA-Z0-9_.]+)\s+in\s*\[([^\]]*)\]$`)
	timeTermRe = regexp.MustCompile(`^time\s+between\s+"?(\d{1,2}:\d{2})"?\s*(?:-|to)\s*"?(\d{1,2}:\d{2})"?$`)
	cmpTermRe  = regexp.MustCompile(`^([a-zA-Z0-9_.]+)\s*(==|!=|>=)\s*("[^"]*"|\S+)$`)
)

func parseOr(s string) (Predicate[*Identity], error) {
	parts := orSplitRe.Split(s, -1)
	if len(parts) == 1 {
		return parseAnd(parts[0])
	}
	children := make([]Predicate[*Identity], 0, len(parts))
	for _, part := range parts {
		p, err := parseAnd(part)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return Or(children...), nil
}

func parseAnd(s string) (Predicate[*Identity], error) {
	parts := andSplitRe.Split(s, -1)
	if len(parts) == 1 {
		return parseTerm(parts[0])
	}
	children := make([]Predicate[*Identity], 0, len(parts))
	for _, part := range parts {
		p, err := parseTerm(part)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return And(children...), nil
}

func parseTerm(s string) (Predicate[*Identity], error) {
	s = strings.TrimSpace(s)
	if loc := notRe.FindStringIndex(s); loc != nil {
		inner, err := parseTerm(s[loc[1]:])
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	}

	if m := tagTermRe.FindStringSubmatch(s); m != nil {
		switch m[1] {
		case "role":
			return HasRole(m[2]), nil
		case "permission":
			return HasPermission(m[2]), nil
		case "group":
			return MemberOfGroup(m[2]), nil
		}
	}

	if m := timeTermRe.FindStringSubmatch(s); m != nil {
		return TimeBetween(m[1], m[2]), nil
	}

	if m := inTermRe.FindStringSubmatch(s); m != nil {
		values := splitCSV(m[2])
		switch m[1] {
		case "roles":
			return HasAnyRole(values...), nil
		case "groups":
			preds := make([]Predicate[*Identity], 0, len(values))
			for _, g := range values {
				preds = append(preds, MemberOfGroup(g))
			}
			return Or(preds...), nil
		default:
			anyVals := make([]any, 0, len(values))
			for _, v := range values {
				anyVals = append(anyVals, v)
			}
			return In(m[1], anyVals...), nil
		}
	}

	if m := cmpTermRe.FindStringSubmatch(s); m != nil {
		field := m[1]
		value := strings.Trim(m[3], `"`)
		switch m[2] {
		case "==":
			return Equals(field, value), nil
		case "!=":
			return NotEquals(field, value), nil
		case ">=":
			return Gte(field, value), nil
		}
	}

	return nil, fmt.Errorf("unsupported requirement syntax: %q", s)
}

// splitCSV splits items like `"a","b"` or `a, b` into trimmed, unquoted strings.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
