package permit

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oarkflow/permit/utils"
)

// ============================================================================
// CONDITIONS (RBAC + ABAC over *Identity)
// ============================================================================
//
// RBAC checks are membership tests against the roles/permissions fields,
// which makes them ABAC conditions specialized to those attributes: the
// gate needs exactly one Predicate abstraction for both.

// HasRole requires membership of a single role.
func HasRole(role string) Predicate[*Identity] {
	return &memberPredicate{field: "roles", values: []string{role}, all: false}
}

// HasAnyRole requires membership of at least one of the given roles.
func HasAnyRole(roles ...string) Predicate[*Identity] {
	return &memberPredicate{field: "roles", values: roles, all: false}
}

// HasAllRoles requires membership of every given role.
func HasAllRoles(roles ...string) Predicate[*Identity] {
	return &memberPredicate{field: "roles", values: roles, all: true}
}

// MemberOfGroup requires membership of a group.
func MemberOfGroup(group string) Predicate[*Identity] {
	return &memberPredicate{field: "groups", values: []string{group}, all: false}
}

type memberPredicate struct {
	field  string
	values []string
	all    bool
}

func (p *memberPredicate) Evaluate(s *Identity) (bool, error) {
	held, _ := s.Field(p.field).([]string)
	for _, want := range p.values {
		found := false
		for _, have := range held {
			if have == want {
				found = true
				break
			}
		}
		if found && !p.all {
			return true, nil
		}
		if !found && p.all {
			return false, nil
		}
	}
	return p.all, nil
}

func (p *memberPredicate) String() string {
	if len(p.values) == 1 {
		return fmt.Sprintf("%s:%s", strings.TrimSuffix(p.field, "s"), p.values[0])
	}
	op := "any"
	if p.all {
		op = "all"
	}
	return fmt.Sprintf("%s %s [%s]", p.field, op, strings.Join(p.values, ","))
}

// HasPermission requires the identity to hold a permission granting perm.
// Held permissions are treated as patterns, so a grant of "project.*"
// satisfies a requirement of "project.delete".
func HasPermission(perm string) Predicate[*Identity] {
	return &permissionPredicate{perms: []string{perm}}
}

// HasAllPermissions requires every given permission to be granted.
func HasAllPermissions(perms ...string) Predicate[*Identity] {
	return &permissionPredicate{perms: perms}
}

type permissionPredicate struct {
	perms []string
}

func (p *permissionPredicate) Evaluate(s *Identity) (bool, error) {
	if s == nil {
		return false, nil
	}
	for _, want := range p.perms {
		granted := false
		for _, pattern := range s.Permissions {
			if utils.Match(want, pattern) {
				granted = true
				break
			}
		}
		if !granted {
			return false, nil
		}
	}
	return true, nil
}

func (p *permissionPredicate) String() string {
	if len(p.perms) == 1 {
		return "permission:" + p.perms[0]
	}
	return fmt.Sprintf("permissions all [%s]", strings.Join(p.perms, ","))
}

// Equals requires the identity field to equal value. Value references such
// as "attrs.department" on either side are not supported; the right-hand
// side is always a literal.
func Equals(field string, value any) Predicate[*Identity] {
	return &eqPredicate{field: field, value: value}
}

type eqPredicate struct {
	field string
	value any
}

func (p *eqPredicate) Evaluate(s *Identity) (bool, error) {
	return compare(s.Field(p.field), p.value) == 0, nil
}

func (p *eqPredicate) String() string { return fmt.Sprintf("%s == %v", p.field, p.value) }

// NotEquals requires the identity field to differ from value.
func NotEquals(field string, value any) Predicate[*Identity] {
	return &nePredicate{field: field, value: value}
}

type nePredicate struct {
	field string
	value any
}

func (p *nePredicate) Evaluate(s *Identity) (bool, error) {
	return compare(s.Field(p.field), p.value) != 0, nil
}

func (p *nePredicate) String() string { return fmt.Sprintf("%s != %v", p.field, p.value) }

// In requires the identity field to equal one of the given values.
func In(field string, values ...any) Predicate[*Identity] {
	return &inPredicate{field: field, values: values}
}

type inPredicate struct {
	field  string
	values []any
}

func (p *inPredicate) Evaluate(s *Identity) (bool, error) {
	val := s.Field(p.field)
	for _, v := range p.values {
		if compare(val, v) == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (p *inPredicate) String() string { return fmt.Sprintf("%s in %v", p.field, p.values) }

// Gte requires the identity field to be greater than or equal to value.
func Gte(field string, value any) Predicate[*Identity] {
	return &gtePredicate{field: field, value: value}
}

type gtePredicate struct {
	field string
	value any
}

func (p *gtePredicate) Evaluate(s *Identity) (bool, error) {
	return compare(s.Field(p.field), p.value) >= 0, nil
}

func (p *gtePredicate) String() string { return fmt.Sprintf("%s >= %v", p.field, p.value) }

// Matches requires the string value of the identity field to match the
// regular expression. The pattern is compiled once at construction; a bad
// pattern surfaces as an evaluation failure.
func Matches(field, pattern string) Predicate[*Identity] {
	re, err := regexp.Compile(pattern)
	return &regexPredicate{field: field, pattern: pattern, re: re, err: err}
}

type regexPredicate struct {
	field   string
	pattern string
	re      *regexp.Regexp
	err     error
}

func (p *regexPredicate) Evaluate(s *Identity) (bool, error) {
	if p.err != nil {
		return false, fmt.Errorf("compile pattern %q: %w", p.pattern, p.err)
	}
	vs, ok := s.Field(p.field).(string)
	if !ok {
		return false, nil
	}
	return p.re.MatchString(vs), nil
}

func (p *regexPredicate) String() string { return fmt.Sprintf("regex(%s,%s)", p.field, p.pattern) }

// TimeBetween requires the evaluation time to fall within the HH:MM window.
// Windows spanning midnight (e.g. 22:00-06:00) are supported.
func TimeBetween(start, end string) Predicate[*Identity] {
	return timeBetween(start, end, time.Now)
}

func timeBetween(start, end string, clock func() time.Time) Predicate[*Identity] {
	return &timePredicate{start: start, end: end, clock: clock}
}

type timePredicate struct {
	start string
	end   string
	clock func() time.Time
}

func (p *timePredicate) Evaluate(*Identity) (bool, error) {
	start, err := time.Parse("15:04", p.start)
	if err != nil {
		return false, fmt.Errorf("parse window start %q: %w", p.start, err)
	}
	end, err := time.Parse("15:04", p.end)
	if err != nil {
		return false, fmt.Errorf("parse window end %q: %w", p.end, err)
	}
	t := p.clock()
	minute := t.Hour()*60 + t.Minute()
	from := start.Hour()*60 + start.Minute()
	until := end.Hour()*60 + end.Minute()
	if from <= until {
		return minute >= from && minute <= until, nil
	}
	// over midnight
	return minute >= from || minute <= until, nil
}

func (p *timePredicate) String() string {
	return fmt.Sprintf("time between %s-%s", p.start, p.end)
}

// AttrBefore requires the timestamp attribute to fall before cutoff.
// Attribute values may be time.Time values or strings in any format the
// flexible date parser accepts. A missing or unparsable attribute
// evaluates to false.
func AttrBefore(field string, cutoff time.Time) Predicate[*Identity] {
	return &attrTimePredicate{field: field, cutoff: cutoff, before: true}
}

// AttrAfter requires the timestamp attribute to fall after cutoff.
func AttrAfter(field string, cutoff time.Time) Predicate[*Identity] {
	return &attrTimePredicate{field: field, cutoff: cutoff, before: false}
}

type attrTimePredicate struct {
	field  string
	cutoff time.Time
	before bool
}

func (p *attrTimePredicate) Evaluate(s *Identity) (bool, error) {
	t, ok := asTime(s.Field(p.field))
	if !ok {
		return false, nil
	}
	if p.before {
		return t.Before(p.cutoff), nil
	}
	return t.After(p.cutoff), nil
}

func (p *attrTimePredicate) String() string {
	op := "after"
	if p.before {
		op = "before"
	}
	return fmt.Sprintf("%s %s %s", p.field, op, p.cutoff.Format(time.RFC3339))
}

// WithinDuration requires the timestamp attribute to lie within d of the
// evaluation time, e.g. WithinDuration("attrs.verified_at", 24*time.Hour)
// for a "verified in the last day" condition.
func WithinDuration(field string, d time.Duration) Predicate[*Identity] {
	return withinDuration(field, d, time.Now)
}

func withinDuration(field string, d time.Duration, clock func() time.Time) Predicate[*Identity] {
	return &durationPredicate{field: field, d: d, clock: clock}
}

type durationPredicate struct {
	field string
	d     time.Duration
	clock func() time.Time
}

func (p *durationPredicate) Evaluate(s *Identity) (bool, error) {
	t, ok := asTime(s.Field(p.field))
	if !ok {
		return false, nil
	}
	delta := p.clock().Sub(t)
	if delta < 0 {
		delta = -delta
	}
	return delta <= p.d, nil
}

func (p *durationPredicate) String() string {
	return fmt.Sprintf("%s within %s", p.field, p.d)
}
