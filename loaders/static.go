package loaders

import (
	"context"

	"github.com/oarkflow/permit"
)

// Static returns a loader producing a copy of a fixed identity, useful for
// service accounts and tests. Each invocation clones so callers never share
// mutable state through the loader.
func Static(identity *permit.Identity) permit.IdentityLoader[*permit.Identity] {
	return func(_ context.Context) (*permit.Identity, error) {
		return identity.Clone(), nil
	}
}
