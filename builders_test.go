package permit

import "testing"

func TestRequirementBuilderImplicitAnd(t *testing.T) {
	req := NewRequirementBuilder().
		Role("manager").
		Group("eng").
		Attr("attrs.department", "engineering").
		Build()

	ok, err := req.Evaluate(testIdentity())
	if err != nil || !ok {
		t.Fatalf("expected chained conditions to allow, got %v, %v", ok, err)
	}

	ok, err = req.Evaluate(&Identity{Roles: []string{"manager"}, Groups: []string{"eng"}})
	if err != nil || ok {
		t.Fatalf("expected missing attr to deny, got %v, %v", ok, err)
	}
}

func TestRequirementBuilderOr(t *testing.T) {
	req := NewRequirementBuilder().
		Permission("project.delete").
		Or(HasRole("manager")).
		Build()

	ok, err := req.Evaluate(testIdentity())
	if err != nil || !ok {
		t.Fatalf("expected role branch to allow, got %v, %v", ok, err)
	}

	ok, err = req.Evaluate(&Identity{Roles: []string{"viewer"}})
	if err != nil || ok {
		t.Fatalf("expected neither branch to allow, got %v, %v", ok, err)
	}
}

func TestRequirementBuilderEmptyIsAlwaysTrue(t *testing.T) {
	ok, err := NewRequirementBuilder().Build().Evaluate(nil)
	if err != nil || !ok {
		t.Fatalf("expected empty builder to allow, got %v, %v", ok, err)
	}
}
