// Package roster holds the read-through cache of active scrims and their
// teams. A Store is owned by whoever constructs it; there is no package
// level instance.
package roster

import (
	"context"

	"github.com/burakmert236/scrimsignups/common/models"
)

type Store interface {
	// GetScrim reports false when the channel has no cached scrim.
	GetScrim(ctx context.Context, channelId string) (*models.Scrim, bool, error)
	CreateScrim(ctx context.Context, channelId string, scrim *models.Scrim) error
	// RemoveScrim drops the channel's scrim and that scrim's teams.
	RemoveScrim(ctx context.Context, channelId string) error
	// GetTeams distinguishes "never loaded" (false) from "loaded, no teams" (true, empty).
	GetTeams(ctx context.Context, scrimId string) ([]models.Team, bool, error)
	// SetTeams replaces the scrim's team list wholesale.
	SetTeams(ctx context.Context, scrimId string, teams []models.Team) error
	Clear(ctx context.Context) error
}

func cloneScrim(s *models.Scrim) *models.Scrim {
	c := *s
	if s.ComputedSkill != nil {
		skill := *s.ComputedSkill
		c.ComputedSkill = &skill
	}
	return &c
}

func clonePlayer(p models.Player) models.Player {
	if p.Elo != nil {
		elo := *p.Elo
		p.Elo = &elo
	}
	return p
}

func cloneTeams(teams []models.Team) []models.Team {
	out := make([]models.Team, len(teams))
	for i, t := range teams {
		t.SignupPlayer = clonePlayer(t.SignupPlayer)
		players := make([]models.Player, len(t.Players))
		for j, p := range t.Players {
			players[j] = clonePlayer(p)
		}
		t.Players = players
		if t.ResolvedPriority != nil {
			prio := *t.ResolvedPriority
			t.ResolvedPriority = &prio
		}
		out[i] = t
	}
	return out
}
