// Package ordering ranks resolved teams by priority then signup time and
// splits them into the main list and the waitlist in whole-lobby blocks.
package ordering

import (
	"slices"

	"github.com/burakmert236/scrimsignups/common/models"
)

func amount(t *models.Team) int {
	if t.ResolvedPriority == nil {
		return 0
	}
	return t.ResolvedPriority.Amount
}

// Sort orders teams by resolved priority, highest first, and by signup
// time within the same priority. Teams with equal priority and timestamp
// keep their relative order.
func Sort(teams []models.Team) {
	slices.SortStableFunc(teams, func(a, b models.Team) int {
		if d := amount(&b) - amount(&a); d != 0 {
			return d
		}
		return a.SignupTimestamp.Compare(b.SignupTimestamp)
	})
}

// Cutoff is how many sorted teams make the main list. Lobbies fill in whole
// blocks of lobbySize; a trailing partial block waits, unless there is not
// even one full block, in which case one block's worth is offered.
// A non-positive lobbySize admits everyone.
func Cutoff(teamCount, lobbySize int) int {
	if lobbySize <= 0 {
		return teamCount
	}
	cutoff := lobbySize * (teamCount / lobbySize)
	if cutoff == 0 {
		cutoff = lobbySize
	}
	return min(cutoff, teamCount)
}

// Split partitions already sorted teams into the main list and the waitlist.
// Both results are non-nil.
func Split(teams []models.Team, lobbySize int) (main, wait []models.Team) {
	cutoff := Cutoff(len(teams), lobbySize)
	main = append(make([]models.Team, 0, cutoff), teams[:cutoff]...)
	wait = append(make([]models.Team, 0, len(teams)-cutoff), teams[cutoff:]...)
	return main, wait
}

// Order sorts in place and splits.
func Order(teams []models.Team, lobbySize int) (main, wait []models.Team) {
	Sort(teams)
	return Split(teams, lobbySize)
}
