package permit

import "testing"

func TestParseRequirementTerms(t *testing.T) {
	id := testIdentity()

	cases := []struct {
		expr string
		want bool
	}{
		{"role:manager", true},
		{"role:admin", false},
		{"permission:project.view", true},
		{"permission:project.delete", false},
		{"group:eng", true},
		{"group:finance", false},
		{"NOT role:admin", true},
		{"not group:eng", false},
		{`roles in ["admin", "reviewer"]`, true},
		{`roles in ["admin", "auditor"]`, false},
		{`groups in [eng, ops]`, true},
		{`attrs.region in ["eu-west", "eu-north"]`, true},
		{"attrs.department == engineering", true},
		{`attrs.department == "engineering"`, true},
		{"attrs.department != engineering", false},
		{"attrs.level >= 5", true},
		{"attrs.level >= 8", false},
		{"id == alice", true},
		{"type == service", false},
	}
	for _, tc := range cases {
		p, err := ParseRequirement(tc.expr)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.expr, err)
		}
		got, err := p.Evaluate(id)
		if err != nil {
			t.Fatalf("evaluate %q: %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.expr, tc.want, got)
		}
	}
}

func TestParseRequirementCombinations(t *testing.T) {
	id := testIdentity()

	cases := []struct {
		expr string
		want bool
	}{
		{"role:manager AND group:eng", true},
		{"role:manager AND role:admin", false},
		{"role:admin OR group:eng", true},
		{"role:admin OR group:finance", false},
		// AND binds tighter than OR
		{"role:admin AND group:eng OR role:manager", true},
		{"role:admin OR role:manager AND group:finance", false},
		{"role:manager and attrs.level >= 5 or role:admin", true},
	}
	for _, tc := range cases {
		p, err := ParseRequirement(tc.expr)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.expr, err)
		}
		got, err := p.Evaluate(id)
		if err != nil {
			t.Fatalf("evaluate %q: %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.expr, tc.want, got)
		}
	}
}

func TestParseRequirementTimeWindow(t *testing.T) {
	p, err := ParseRequirement("time between 09:00-18:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "time between 09:00-18:00" {
		t.Fatalf("unexpected requirement string: %q", p.String())
	}
	if _, err := ParseRequirement(`time between "09:00" to "18:00"`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRequirementEmptyIsAlwaysTrue(t *testing.T) {
	p, err := ParseRequirement("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := p.Evaluate(nil)
	if err != nil || !ok {
		t.Fatalf("expected empty requirement to allow, got %v, %v", ok, err)
	}
}

func TestParseRequirementRejectsUnknownSyntax(t *testing.T) {
	for _, expr := range []string{
		"role admin",
		"attrs.level > 5",
		"(role:admin)",
		"time between nine and five",
	} {
		if _, err := ParseRequirement(expr); err == nil {
			t.Fatalf("expected parse error for %q", expr)
		}
	}
}
