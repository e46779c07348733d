package loaders

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oarkflow/permit"
)

// RedisLoader loads identities from Redis: roles, groups and permissions in
// sets, attributes in a hash (keys: identity:roles:{subjectID} etc.).
type RedisLoader struct {
	client *redis.Client
}

func NewRedisLoader(client *redis.Client) *RedisLoader {
	return &RedisLoader{client: client}
}

func rolesKey(subjectID string) string { return fmt.Sprintf("identity:roles:%s", subjectID) }
func groupsKey(subjectID string) string { return fmt.Sprintf("identity:groups:%s", subjectID) }
func permsKey(subjectID string) string { return fmt.Sprintf("identity:perms:%s", subjectID) }
func attrsKey(subjectID string) string { return fmt.Sprintf("identity:attrs:%s", subjectID) }

// Loader fixes the subject and returns the niladic loader a gate consumes.
func (l *RedisLoader) Loader(subjectID string) permit.IdentityLoader[*permit.Identity] {
	return func(ctx context.Context) (*permit.Identity, error) {
		return l.Load(ctx, subjectID)
	}
}

// Load assembles the identity for one subject.
func (l *RedisLoader) Load(ctx context.Context, subjectID string) (*permit.Identity, error) {
	roles, err := l.client.SMembers(ctx, rolesKey(subjectID)).Result()
	if err != nil {
		return nil, err
	}
	groups, err := l.client.SMembers(ctx, groupsKey(subjectID)).Result()
	if err != nil {
		return nil, err
	}
	perms, err := l.client.SMembers(ctx, permsKey(subjectID)).Result()
	if err != nil {
		return nil, err
	}
	rawAttrs, err := l.client.HGetAll(ctx, attrsKey(subjectID)).Result()
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]any, len(rawAttrs))
	for k, v := range rawAttrs {
		attrs[k] = parseAttrValue(v)
	}
	return &permit.Identity{
		ID:          subjectID,
		Type:        "user",
		Roles:       roles,
		Groups:      groups,
		Permissions: perms,
		Attrs:       attrs,
	}, nil
}

// AssignRole grants a role to a subject.
func (l *RedisLoader) AssignRole(ctx context.Context, subjectID, role string) error {
	return l.client.SAdd(ctx, rolesKey(subjectID), role).Err()
}

// RevokeRole removes a role from a subject.
func (l *RedisLoader) RevokeRole(ctx context.Context, subjectID, role string) error {
	return l.client.SRem(ctx, rolesKey(subjectID), role).Err()
}

// AddToGroup adds a subject to a group.
func (l *RedisLoader) AddToGroup(ctx context.Context, subjectID, group string) error {
	return l.client.SAdd(ctx, groupsKey(subjectID), group).Err()
}

// GrantPermission grants a permission pattern to a subject.
func (l *RedisLoader) GrantPermission(ctx context.Context, subjectID, permission string) error {
	return l.client.SAdd(ctx, permsKey(subjectID), permission).Err()
}

// SetAttr stores one attribute value in its text representation.
func (l *RedisLoader) SetAttr(ctx context.Context, subjectID, name, value string) error {
	return l.client.HSet(ctx, attrsKey(subjectID), name, value).Err()
}
