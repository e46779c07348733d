package permit

import (
	"strconv"
	"time"

	"github.com/oarkflow/date"
)

// ============================================================================
// IDENTITY
// ============================================================================

// Identity carries the authenticated principal's data as supplied by an
// identity loader. The gate never inspects it; this concrete shape is the
// currency of the built-in predicate constructors. Loaders may hand out a
// fresh value per invocation and nothing in this package retains one beyond
// a single evaluation.
type Identity struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"` // user, service, device
	Roles       []string       `json:"roles"`
	Groups      []string       `json:"groups"`
	Permissions []string       `json:"permissions"`
	Attrs       map[string]any `json:"attrs"`
}

// SubjectID reports the principal identifier for audit events.
func (s *Identity) SubjectID() string {
	if s == nil {
		return ""
	}
	return s.ID
}

// Clone returns a deep copy so loaders can hand out per-invocation values
// without sharing mutable slices or maps with callers.
func (s *Identity) Clone() *Identity {
	if s == nil {
		return nil
	}
	dup := &Identity{ID: s.ID, Type: s.Type}
	if s.Roles != nil {
		dup.Roles = append([]string(nil), s.Roles...)
	}
	if s.Groups != nil {
		dup.Groups = append([]string(nil), s.Groups...)
	}
	if s.Permissions != nil {
		dup.Permissions = append([]string(nil), s.Permissions...)
	}
	if s.Attrs != nil {
		dup.Attrs = make(map[string]any, len(s.Attrs))
		for k, v := range s.Attrs {
			dup.Attrs[k] = v
		}
	}
	return dup
}

// Field resolves a dotted field path against the identity. Supported paths:
// "id", "type", "roles", "groups", "permissions" and "attrs.<key>".
// Unknown fields resolve to nil, which no comparison matches.
func (s *Identity) Field(field string) any {
	if s == nil {
		return nil
	}
	switch field {
	case "id":
		return s.ID
	case "type":
		return s.Type
	case "roles":
		return s.Roles
	case "groups":
		return s.Groups
	case "permissions":
		return s.Permissions
	default:
		if len(field) > 6 && field[:6] == "attrs." {
			return s.Attrs[field[6:]]
		}
	}
	return nil
}

// compare returns 0 when a and b are equal, and for ordered kinds a negative
// or positive value following the usual convention. A []string on the left
// compares equal to a string member of the slice, which is how role and
// group membership reduce to plain equality.
func compare(a, b any) int {
	switch av := a.(type) {

	case []string:
		if bs, ok := b.(string); ok {
			for _, v := range av {
				if v == bs {
					return 0
				}
			}
			return -1
		}

	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av == bv:
				return 0
			case av < bv:
				return -1
			default:
				return 1
			}
		}
		if bv, ok := toFloat(b); ok {
			if fv, ok2 := toFloat(av); ok2 {
				return compareFloat(fv, bv)
			}
		}

	case int:
		if bv, ok := toFloat(b); ok {
			return compareFloat(float64(av), bv)
		}

	case int64:
		if bv, ok := toFloat(b); ok {
			return compareFloat(float64(av), bv)
		}

	case float64:
		if bv, ok := toFloat(b); ok {
			return compareFloat(av, bv)
		}

	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0
			}
			return -1
		}

	case time.Time:
		if bt, ok := asTime(b); ok {
			switch {
			case av.Equal(bt):
				return 0
			case av.Before(bt):
				return -1
			default:
				return 1
			}
		}
	}
	return -1
}

func compareFloat(a, b float64) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		// numeric attribute values frequently arrive as strings from
		// external loaders
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// asTime coerces attribute values to time.Time, accepting time.Time values
// directly and parsing strings with the flexible date parser.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := date.Parse(t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case []byte:
		parsed, err := date.Parse(string(t))
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
