package identity

import (
	"context"
	"fmt"
	"slices"

	"github.com/burakmert236/scrimsignups/common/models"
)

type Action string

const (
	ActionSignup         Action = "signup"
	ActionManageTeam     Action = "manage-team"
	ActionManageScrim    Action = "manage-scrim"
	ActionManagePriority Action = "manage-priority"
)

type Decision struct {
	Allowed  bool
	Elevated bool
}

// Authorizer is the one place that decides whether an actor may perform an
// action. Elevated actors are configured admin users or holders of an admin role.
type Authorizer struct {
	adminUsers map[string]struct{}
	adminRoles map[string]struct{}
	members    MemberSource
}

func NewAuthorizer(admins []Principal, members MemberSource) *Authorizer {
	a := &Authorizer{
		adminUsers: make(map[string]struct{}),
		adminRoles: make(map[string]struct{}),
		members:    members,
	}
	for _, p := range admins {
		switch p := p.(type) {
		case UserPrincipal:
			a.adminUsers[p.ID] = struct{}{}
		case RolePrincipal:
			a.adminRoles[p.ID] = struct{}{}
		}
	}
	return a
}

func (a *Authorizer) IsElevated(ctx context.Context, actorId string) (bool, error) {
	if _, ok := a.adminUsers[actorId]; ok {
		return true, nil
	}
	if len(a.adminRoles) == 0 || a.members == nil {
		return false, nil
	}

	roles, err := a.members.MemberRoles(ctx, actorId)
	if err != nil {
		return false, fmt.Errorf("failed to resolve roles for %s: %w", actorId, err)
	}
	return slices.ContainsFunc(roles, func(r string) bool {
		_, ok := a.adminRoles[r]
		return ok
	}), nil
}

// Authorize evaluates action for actorId. team is only consulted for
// ActionManageTeam, where members of the team are allowed without elevation.
func (a *Authorizer) Authorize(ctx context.Context, actorId string, action Action, team *models.Team) (Decision, error) {
	elevated, err := a.IsElevated(ctx, actorId)
	if err != nil {
		return Decision{}, err
	}

	switch action {
	case ActionSignup:
		return Decision{Allowed: true, Elevated: elevated}, nil
	case ActionManageTeam:
		member := team != nil && team.IsMember(actorId)
		return Decision{Allowed: elevated || member, Elevated: elevated}, nil
	case ActionManageScrim, ActionManagePriority:
		return Decision{Allowed: elevated, Elevated: elevated}, nil
	default:
		return Decision{}, fmt.Errorf("unknown action %q", action)
	}
}
