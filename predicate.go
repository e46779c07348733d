package permit

import (
	"fmt"
	"strings"
)

// ============================================================================
// PREDICATE MODEL
// ============================================================================

// Predicate is a pure boolean decision over an identity. Implementations
// must be free of side effects and safe for concurrent use: evaluating the
// same identity twice yields the same result. An error from Evaluate is an
// evaluation failure, distinct from evaluating to false, and is never
// masked by combinators or by the gate.
type Predicate[S any] interface {
	Evaluate(identity S) (bool, error)
	String() string
}

// PredicateFunc adapts a plain function to the Predicate interface.
type PredicateFunc[S any] func(S) (bool, error)

func (f PredicateFunc[S]) Evaluate(identity S) (bool, error) { return f(identity) }

func (f PredicateFunc[S]) String() string { return "predicate(func)" }

// Named wraps a function predicate with a descriptive name used in logs
// and audit events.
func Named[S any](name string, f func(S) (bool, error)) Predicate[S] {
	return &namedPredicate[S]{name: name, f: f}
}

type namedPredicate[S any] struct {
	name string
	f    func(S) (bool, error)
}

func (p *namedPredicate[S]) Evaluate(identity S) (bool, error) { return p.f(identity) }

func (p *namedPredicate[S]) String() string { return p.name }

// True returns an unconditional predicate.
func True[S any]() Predicate[S] { return &truePredicate[S]{} }

type truePredicate[S any] struct{}

func (p *truePredicate[S]) Evaluate(S) (bool, error) { return true, nil }

func (p *truePredicate[S]) String() string { return "true" }

// And combines predicates with logical AND. Children are evaluated in the
// order supplied, each at most once per pass, stopping at the first false
// result or the first evaluation failure. And of no children is true.
func And[S any](preds ...Predicate[S]) Predicate[S] {
	return &andPredicate[S]{children: preds}
}

type andPredicate[S any] struct {
	children []Predicate[S]
}

func (p *andPredicate[S]) Evaluate(identity S) (bool, error) {
	for _, c := range p.children {
		ok, err := c.Evaluate(identity)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (p *andPredicate[S]) String() string { return joinPredicates(p.children, " AND ") }

// Or combines predicates with logical OR. Children are evaluated in the
// order supplied, each at most once per pass, stopping at the first true
// result or the first evaluation failure. Or of no children is false.
func Or[S any](preds ...Predicate[S]) Predicate[S] {
	return &orPredicate[S]{children: preds}
}

type orPredicate[S any] struct {
	children []Predicate[S]
}

func (p *orPredicate[S]) Evaluate(identity S) (bool, error) {
	for _, c := range p.children {
		ok, err := c.Evaluate(identity)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (p *orPredicate[S]) String() string { return joinPredicates(p.children, " OR ") }

// Not inverts a predicate. Evaluation failures pass through uninverted.
func Not[S any](pred Predicate[S]) Predicate[S] {
	return &notPredicate[S]{child: pred}
}

type notPredicate[S any] struct {
	child Predicate[S]
}

func (p *notPredicate[S]) Evaluate(identity S) (bool, error) {
	ok, err := p.child.Evaluate(identity)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (p *notPredicate[S]) String() string { return fmt.Sprintf("NOT %s", p.child.String()) }

func joinPredicates[S any](preds []Predicate[S], sep string) string {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}
