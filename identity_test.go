package permit

import (
	"testing"
	"time"
)

func TestIdentityField(t *testing.T) {
	id := testIdentity()

	if got := id.Field("id"); got != "alice" {
		t.Fatalf("unexpected id: %v", got)
	}
	if got := id.Field("type"); got != "user" {
		t.Fatalf("unexpected type: %v", got)
	}
	if got, ok := id.Field("roles").([]string); !ok || len(got) != 2 {
		t.Fatalf("unexpected roles: %v", id.Field("roles"))
	}
	if got := id.Field("attrs.department"); got != "engineering" {
		t.Fatalf("unexpected attr: %v", got)
	}
	if got := id.Field("attrs.missing"); got != nil {
		t.Fatalf("expected nil for missing attr, got %v", got)
	}
	if got := id.Field("bogus"); got != nil {
		t.Fatalf("expected nil for unknown field, got %v", got)
	}
}

func TestIdentityCloneIsDeep(t *testing.T) {
	id := testIdentity()
	clone := id.Clone()

	clone.Roles[0] = "tampered"
	clone.Attrs["department"] = "sales"

	if id.Roles[0] != "manager" {
		t.Fatalf("clone must not share role storage")
	}
	if id.Attrs["department"] != "engineering" {
		t.Fatalf("clone must not share attr storage")
	}
	if clone.SubjectID() != id.SubjectID() {
		t.Fatalf("clone must keep the subject id")
	}
}

func TestCompare(t *testing.T) {
	if compare([]string{"a", "b"}, "b") != 0 {
		t.Fatalf("expected slice membership to compare equal")
	}
	if compare([]string{"a", "b"}, "c") == 0 {
		t.Fatalf("expected missing member to compare unequal")
	}
	if compare("x", "x") != 0 || compare("a", "b") >= 0 {
		t.Fatalf("unexpected string ordering")
	}
	if compare(7, "5") <= 0 || compare(7, 7.0) != 0 {
		t.Fatalf("unexpected numeric coercion")
	}
	if compare("10", 9) <= 0 {
		t.Fatalf("expected numeric strings to compare numerically")
	}
	if compare(true, true) != 0 || compare(true, false) == 0 {
		t.Fatalf("unexpected bool comparison")
	}

	now := time.Now()
	if compare(now, now) != 0 {
		t.Fatalf("expected equal times to compare equal")
	}
	if compare(now, now.Add(time.Hour)) >= 0 {
		t.Fatalf("expected earlier time to compare less")
	}
	if compare(nil, "anything") == 0 {
		t.Fatalf("expected nil to never compare equal")
	}
}
