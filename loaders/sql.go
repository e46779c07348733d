package loaders

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/permit"
)

//go:embed sql_migrations.sql
var migrationsSQL string

// Migrate creates the identity tables used by SQLLoader.
func Migrate(db *squealx.DB) error {
	if _, err := db.ExecContext(context.Background(), migrationsSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SQLLoader loads identities from SQL tables (squealx). The subject's type,
// roles, groups, permissions and attributes are assembled into one Identity
// per load; attribute values are restored to their typed form.
type SQLLoader struct {
	db *squealx.DB
}

func NewSQLLoader(db *squealx.DB) *SQLLoader {
	return &SQLLoader{db: db}
}

// Loader fixes the subject and returns the niladic loader a gate consumes.
func (l *SQLLoader) Loader(subjectID string) permit.IdentityLoader[*permit.Identity] {
	return func(ctx context.Context) (*permit.Identity, error) {
		return l.Load(ctx, subjectID)
	}
}

// Load assembles the identity for one subject. An unknown subject is a
// lookup failure, not an empty identity, so gates propagate it instead of
// silently denying.
func (l *SQLLoader) Load(ctx context.Context, subjectID string) (*permit.Identity, error) {
	identity := &permit.Identity{ID: subjectID, Attrs: make(map[string]any)}

	q := `SELECT type FROM subjects WHERE id = :subject_id`
	r, err := l.db.NamedQueryContext(ctx, q, map[string]any{"subject_id": subjectID})
	if err != nil {
		return nil, err
	}
	found := false
	for r.Next() {
		if err := r.Scan(&identity.Type); err != nil {
			r.Close()
			return nil, err
		}
		found = true
	}
	r.Close()
	if !found {
		return nil, fmt.Errorf("subject not found: %s", subjectID)
	}

	if identity.Roles, err = l.column(ctx, `SELECT role FROM subject_roles WHERE subject_id = :subject_id`, subjectID); err != nil {
		return nil, err
	}
	if identity.Groups, err = l.column(ctx, `SELECT grp FROM subject_groups WHERE subject_id = :subject_id`, subjectID); err != nil {
		return nil, err
	}
	if identity.Permissions, err = l.column(ctx, `SELECT permission FROM subject_permissions WHERE subject_id = :subject_id`, subjectID); err != nil {
		return nil, err
	}

	q = `SELECT name, value FROM subject_attrs WHERE subject_id = :subject_id`
	r, err = l.db.NamedQueryContext(ctx, q, map[string]any{"subject_id": subjectID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	for r.Next() {
		var name, value string
		if err := r.Scan(&name, &value); err != nil {
			return nil, err
		}
		identity.Attrs[name] = parseAttrValue(value)
	}
	return identity, nil
}

// CreateSubject registers a subject so later loads succeed.
func (l *SQLLoader) CreateSubject(ctx context.Context, subjectID, subjectType string) error {
	q := `INSERT OR IGNORE INTO subjects(id, type) VALUES(:id, :type)`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"id": subjectID, "type": subjectType})
	return err
}

// AssignRole grants a role to a subject.
func (l *SQLLoader) AssignRole(ctx context.Context, subjectID, role string) error {
	q := `INSERT OR IGNORE INTO subject_roles(subject_id, role) VALUES(:subject_id, :role)`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"subject_id": subjectID, "role": role})
	return err
}

// RevokeRole removes a role from a subject.
func (l *SQLLoader) RevokeRole(ctx context.Context, subjectID, role string) error {
	q := `DELETE FROM subject_roles WHERE subject_id = :subject_id AND role = :role`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"subject_id": subjectID, "role": role})
	return err
}

// AddToGroup adds a subject to a group.
func (l *SQLLoader) AddToGroup(ctx context.Context, subjectID, group string) error {
	q := `INSERT OR IGNORE INTO subject_groups(subject_id, grp) VALUES(:subject_id, :grp)`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"subject_id": subjectID, "grp": group})
	return err
}

// GrantPermission grants a permission pattern to a subject.
func (l *SQLLoader) GrantPermission(ctx context.Context, subjectID, permission string) error {
	q := `INSERT OR IGNORE INTO subject_permissions(subject_id, permission) VALUES(:subject_id, :permission)`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"subject_id": subjectID, "permission": permission})
	return err
}

// RevokePermission removes a permission pattern from a subject.
func (l *SQLLoader) RevokePermission(ctx context.Context, subjectID, permission string) error {
	q := `DELETE FROM subject_permissions WHERE subject_id = :subject_id AND permission = :permission`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"subject_id": subjectID, "permission": permission})
	return err
}

// SetAttr stores one attribute value in its text representation.
func (l *SQLLoader) SetAttr(ctx context.Context, subjectID, name, value string) error {
	q := `INSERT OR REPLACE INTO subject_attrs(subject_id, name, value) VALUES(:subject_id, :name, :value)`
	_, err := l.db.NamedExecContext(ctx, q, map[string]any{"subject_id": subjectID, "name": name, "value": value})
	return err
}

func (l *SQLLoader) column(ctx context.Context, q, subjectID string) ([]string, error) {
	out := make([]string, 0)
	r, err := l.db.NamedQueryContext(ctx, q, map[string]any{"subject_id": subjectID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	for r.Next() {
		var v string
		if err := r.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
