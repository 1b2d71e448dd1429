// Package priority turns dated priority windows and pass grants into a
// per-team standing. Everything here is pure; callers fetch the inputs.
package priority

import (
	"strings"

	"github.com/burakmert236/scrimsignups/common/models"
)

const (
	PassReason = "pass"

	reasonSeparator     = ", "
	teamReasonSeparator = "; "
)

// Net is a player's standing after folding all of their entries.
type Net struct {
	Amount  int
	Reasons []string
}

func (n Net) Reason() string {
	return strings.Join(n.Reasons, reasonSeparator)
}

// NetPriorities folds entries in the order given (callers pass them in
// arrival order) and then overlays pass grants.
//
// The first entry for a player sets the amount. A later negative entry
// replaces it; a later non-negative entry only contributes its reason.
// A pass grant adds +1 to players without entries and clamps non-zero
// amounts to ±1. A net of exactly zero is left alone.
func NetPriorities(entries []models.PriorityEntry, passHolders []string) map[string]*Net {
	nets := make(map[string]*Net, len(entries)+len(passHolders))

	for _, entry := range entries {
		net, ok := nets[entry.ExternalId]
		if !ok {
			nets[entry.ExternalId] = &Net{Amount: entry.Amount, Reasons: []string{entry.Reason}}
			continue
		}
		if entry.Amount < 0 {
			net.Amount = entry.Amount
		}
		net.Reasons = append(net.Reasons, entry.Reason)
	}

	seen := make(map[string]struct{}, len(passHolders))
	for _, holder := range passHolders {
		if _, dup := seen[holder]; dup {
			continue
		}
		seen[holder] = struct{}{}

		net, ok := nets[holder]
		switch {
		case !ok:
			nets[holder] = &Net{Amount: 1, Reasons: []string{PassReason}}
		case net.Amount < 0:
			net.Amount = -1
			net.Reasons = append(net.Reasons, PassReason)
		case net.Amount > 0:
			net.Amount = 1
			net.Reasons = append(net.Reasons, PassReason)
		}
	}

	return nets
}

// ResolveTeams sets ResolvedPriority on every team from its three roster
// members; the captain does not count. Any negative member makes the team
// -1, otherwise any positive member makes it +1. Teams are updated in place
// and the same slice is returned, unsorted.
func ResolveTeams(teams []models.Team, nets map[string]*Net) []models.Team {
	for i := range teams {
		var anyPositive, anyNegative bool
		reasons := make([]string, 0, len(teams[i].Players))

		for _, player := range teams[i].Players {
			net, ok := nets[player.ExternalId]
			if !ok {
				continue
			}
			switch {
			case net.Amount < 0:
				anyNegative = true
			case net.Amount > 0:
				anyPositive = true
			}
			reasons = append(reasons, player.DisplayName+": "+net.Reason())
		}

		amount := 0
		if anyNegative {
			amount = -1
		} else if anyPositive {
			amount = 1
		}

		teams[i].ResolvedPriority = &models.Priority{
			Amount:  amount,
			Reasons: strings.Join(reasons, teamReasonSeparator),
		}
	}
	return teams
}

// Resolve runs both steps.
func Resolve(teams []models.Team, entries []models.PriorityEntry, passHolders []string) []models.Team {
	return ResolveTeams(teams, NetPriorities(entries, passHolders))
}
