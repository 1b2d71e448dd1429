// Package identity decides who an actor is and what they may do.
package identity

import (
	"fmt"
	"strings"
)

// Principal is either a single user or everyone holding a role. The
// unexported method keeps the set closed to this package.
type Principal interface {
	fmt.Stringer
	principal()
}

type UserPrincipal struct {
	ID string
}

type RolePrincipal struct {
	ID string
}

func (UserPrincipal) principal() {}
func (RolePrincipal) principal() {}

func (p UserPrincipal) String() string { return "user:" + p.ID }
func (p RolePrincipal) String() string { return "role:" + p.ID }

// ParsePrincipal reads "user:<id>" or "role:<id>". Discord user and role ids
// share one snowflake space, so a bare id is rejected rather than guessed.
func ParsePrincipal(raw string) (Principal, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return nil, fmt.Errorf("principal %q must be prefixed with user: or role:", raw)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("principal %q has an empty id", raw)
	}

	switch strings.ToLower(kind) {
	case "user":
		return UserPrincipal{ID: id}, nil
	case "role":
		return RolePrincipal{ID: id}, nil
	default:
		return nil, fmt.Errorf("principal %q has unknown kind %q", raw, kind)
	}
}

func ParsePrincipals(raw []string) ([]Principal, error) {
	out := make([]Principal, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePrincipal(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// AdminPrincipals builds the admin set from the separate user and role id lists in config.
func AdminPrincipals(userIds, roleIds []string) []Principal {
	out := make([]Principal, 0, len(userIds)+len(roleIds))
	for _, id := range userIds {
		out = append(out, UserPrincipal{ID: id})
	}
	for _, id := range roleIds {
		out = append(out, RolePrincipal{ID: id})
	}
	return out
}
