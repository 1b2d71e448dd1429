package identity

import (
	"context"
)

// PassResolver expands configured pass grants into external player ids.
type PassResolver struct {
	grants  []Principal
	members MemberSource
}

func NewPassResolver(grants []Principal, members MemberSource) *PassResolver {
	return &PassResolver{grants: grants, members: members}
}

// PassHolders returns each holder once, in grant order.
func (p *PassResolver) PassHolders(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	holders := make([]string, 0)
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		holders = append(holders, id)
	}

	for _, grant := range p.grants {
		switch g := grant.(type) {
		case UserPrincipal:
			add(g.ID)
		case RolePrincipal:
			if p.members == nil {
				continue
			}
			ids, err := p.members.MembersWithRole(ctx, g.ID)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				add(id)
			}
		}
	}
	return holders, nil
}
