package permit

// RequirementBuilder provides a fluent API for composing predicates over
// identities, mirroring the requirement expression syntax.
//
//	req := permit.NewRequirementBuilder().
//		Permission("project.delete").
//		Or(permit.HasRole("admin")).
//		Build()
type RequirementBuilder struct {
	pred Predicate[*Identity]
}

func NewRequirementBuilder() *RequirementBuilder {
	return &RequirementBuilder{}
}

// Role starts or extends the requirement with a role membership check.
func (b *RequirementBuilder) Role(role string) *RequirementBuilder {
	return b.add(HasRole(role))
}

// AnyRole starts or extends the requirement with an any-of role check.
func (b *RequirementBuilder) AnyRole(roles ...string) *RequirementBuilder {
	return b.add(HasAnyRole(roles...))
}

// Permission starts or extends the requirement with a permission check.
func (b *RequirementBuilder) Permission(perm string) *RequirementBuilder {
	return b.add(HasPermission(perm))
}

// Group starts or extends the requirement with a group membership check.
func (b *RequirementBuilder) Group(group string) *RequirementBuilder {
	return b.add(MemberOfGroup(group))
}

// Attr starts or extends the requirement with an equality check on a field.
func (b *RequirementBuilder) Attr(field string, value any) *RequirementBuilder {
	return b.add(Equals(field, value))
}

// During starts or extends the requirement with a time window check.
func (b *RequirementBuilder) During(start, end string) *RequirementBuilder {
	return b.add(TimeBetween(start, end))
}

// And conjoins another predicate.
func (b *RequirementBuilder) And(p Predicate[*Identity]) *RequirementBuilder {
	return b.add(p)
}

// Or disjoins another predicate with everything built so far.
func (b *RequirementBuilder) Or(p Predicate[*Identity]) *RequirementBuilder {
	if b.pred == nil {
		b.pred = p
		return b
	}
	b.pred = Or(b.pred, p)
	return b
}

// Build returns the composed predicate; an empty builder yields true.
func (b *RequirementBuilder) Build() Predicate[*Identity] {
	if b.pred == nil {
		return True[*Identity]()
	}
	return b.pred
}

func (b *RequirementBuilder) add(p Predicate[*Identity]) *RequirementBuilder {
	if b.pred == nil {
		b.pred = p
		return b
	}
	b.pred = And(b.pred, p)
	return b
}
