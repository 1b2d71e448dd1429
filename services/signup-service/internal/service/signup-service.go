package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	commonevents "github.com/burakmert236/scrimsignups/common/events"
	"github.com/burakmert236/scrimsignups/common/models"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/identity"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/metrics"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/ordering"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/priority"
)

type SignupService interface {
	AddTeam(ctx context.Context, channelId, teamName string, captain models.Player, members []models.Player) (*models.Team, error)
	RemoveTeam(ctx context.Context, channelId, teamName, actorId string) error
	ChangeTeamName(ctx context.Context, channelId, teamName, newName, actorId string) (*models.Team, error)
	ReplaceTeammate(ctx context.Context, channelId, teamName, actorId string, outgoing, incoming models.Player) (*models.Team, error)
	GetOrderedSignups(ctx context.Context, channelId string) (*models.Signups, error)
}

type signupService struct {
	*core
}

func NewSignupService(d Dependencies) SignupService {
	return &signupService{core: newCore(d, "signup-service")}
}

// AddTeam runs the admission checks in order and stops at the first failure.
// Everything from the duplicate-name check to the insert happens under the
// scrim's lock, so two concurrent signups cannot both pass validation.
func (s *signupService) AddTeam(
	ctx context.Context,
	channelId, teamName string,
	captain models.Player,
	members []models.Player,
) (team *models.Team, err error) {
	defer func(start time.Time) { metrics.ObserveOp("addTeam", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	scrim, err := s.activeScrim(ctx, channelId)
	if err != nil {
		return nil, err
	}

	if len(members) != models.RosterSize {
		return nil, signuperrors.InvalidRosterSize(len(members))
	}
	if hasDuplicatePlayers(members) {
		return nil, signuperrors.DuplicateRosterMember()
	}
	if err := validateRequest(teamName, captain, members); err != nil {
		return nil, err
	}

	release, err := s.lockActive(ctx, scrim)
	if err != nil {
		return nil, err
	}
	defer release()

	teams, err := s.cachedTeams(ctx, scrim.ScrimId)
	if err != nil {
		return nil, err
	}

	if findTeam(teams, teamName) >= 0 {
		return nil, signuperrors.DuplicateTeamName(teamName)
	}

	for _, m := range members {
		if err := checkNotRostered(teams, m); err != nil {
			return nil, err
		}
	}

	decision, err := s.authorize(ctx, captain.ExternalId, identity.ActionSignup, nil)
	if err != nil {
		return nil, err
	}

	members, err = s.withStoredProfiles(ctx, members)
	if err != nil {
		return nil, err
	}
	if !decision.Elevated {
		for _, m := range members {
			if !m.HasStatsLink() {
				return nil, signuperrors.MissingStatsLink(playerLabel(m))
			}
		}
	}

	everyone := append([]models.Player{captain}, members...)
	if err := s.checkBans(ctx, scrim, everyone); err != nil {
		return nil, err
	}

	stored, err := s.upsertPeople(ctx, everyone)
	if err != nil {
		return nil, err
	}

	roster := make([]models.Player, 0, len(members))
	for _, m := range members {
		roster = append(roster, stored[m.ExternalId])
	}

	team = &models.Team{
		TeamId:          uuid.NewString(),
		ScrimId:         scrim.ScrimId,
		TeamName:        teamName,
		SignupPlayer:    stored[captain.ExternalId],
		Players:         roster,
		SignupTimestamp: s.now(),
	}

	if err := s.repos.Teams.InsertTeam(ctx, team); err != nil {
		s.logger.Error("Failed to insert team",
			"scrim_id", scrim.ScrimId,
			"team", teamName,
			"error", err,
		)
		return nil, signuperrors.PersistenceFailure(err)
	}

	s.cacheTeams(ctx, scrim.ScrimId, append(slices.Clone(teams), *team))

	s.logger.Info("Team signed up",
		"scrim_id", scrim.ScrimId,
		"team_id", team.TeamId,
		"team", teamName,
		"captain", captain.ExternalId,
	)

	if err := s.publisher.PublishTeamEvent(ctx, commonevents.SignupTeamAdded, scrim, team, nil); err != nil {
		s.logger.Warn("Team signed up but announcement failed", "team_id", team.TeamId, "error", err)
		return team, signuperrors.AnnouncementFailure(err)
	}

	return team, nil
}

func (s *signupService) RemoveTeam(ctx context.Context, channelId, teamName, actorId string) (err error) {
	defer func(start time.Time) { metrics.ObserveOp("removeTeam", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, release, err := s.beginTeamChange(ctx, channelId, teamName, actorId)
	if err != nil {
		return err
	}
	defer release()

	team := m.team()
	if err := s.repos.Teams.DeleteTeam(ctx, m.scrim.ScrimId, team.TeamId); err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return signuperrors.TeamNotFound(teamName)
		}
		return signuperrors.PersistenceFailure(err)
	}

	s.cacheTeams(ctx, m.scrim.ScrimId, slices.Delete(slices.Clone(m.teams), m.index, m.index+1))

	s.logger.Info("Team removed",
		"scrim_id", m.scrim.ScrimId,
		"team_id", team.TeamId,
		"actor", actorId,
	)

	if err := s.publisher.PublishTeamEvent(ctx, commonevents.SignupTeamRemoved, m.scrim, &team, map[string]any{"actor": actorId}); err != nil {
		return signuperrors.AnnouncementFailure(err)
	}
	return nil
}

func (s *signupService) ChangeTeamName(ctx context.Context, channelId, teamName, newName, actorId string) (updated *models.Team, err error) {
	defer func(start time.Time) { metrics.ObserveOp("changeTeamName", start, err) }(time.Now())

	if strings.TrimSpace(newName) == "" {
		return nil, signuperrors.InvalidInput("new team name is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, release, err := s.beginTeamChange(ctx, channelId, teamName, actorId)
	if err != nil {
		return nil, err
	}
	defer release()

	if idx := findTeam(m.teams, newName); idx >= 0 && idx != m.index {
		return nil, signuperrors.TeamNameTaken(newName)
	}

	team := m.team()
	updated, err = s.repos.Teams.UpdateTeamField(ctx, m.scrim.ScrimId, team.TeamId, models.TeamFieldName, newName)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}

	s.cacheTeams(ctx, m.scrim.ScrimId, m.replaced(*updated))

	s.logger.Info("Team renamed",
		"scrim_id", m.scrim.ScrimId,
		"team_id", team.TeamId,
		"from", teamName,
		"to", newName,
	)

	extra := map[string]any{"actor": actorId, "previousName": teamName}
	if err := s.publisher.PublishTeamEvent(ctx, commonevents.SignupTeamRenamed, m.scrim, updated, extra); err != nil {
		return updated, signuperrors.AnnouncementFailure(err)
	}
	return updated, nil
}

// ReplaceTeammate swaps one roster player. The incoming player goes through
// the same rostered, stats-link and ban checks as a fresh signup.
func (s *signupService) ReplaceTeammate(
	ctx context.Context,
	channelId, teamName, actorId string,
	outgoing, incoming models.Player,
) (updated *models.Team, err error) {
	defer func(start time.Time) { metrics.ObserveOp("replaceTeammate", start, err) }(time.Now())

	if incoming.ExternalId == "" {
		return nil, signuperrors.InvalidInput("incoming player id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, release, err := s.beginTeamChange(ctx, channelId, teamName, actorId)
	if err != nil {
		return nil, err
	}
	defer release()

	team := m.team()
	slot := slices.IndexFunc(team.Players, func(p models.Player) bool {
		return p.ExternalId == outgoing.ExternalId
	})
	if slot < 0 {
		return nil, signuperrors.PlayerNotOnTeam(playerLabel(outgoing), teamName)
	}

	if err := checkNotRostered(m.teams, incoming); err != nil {
		return nil, err
	}

	profiles, err := s.withStoredProfiles(ctx, []models.Player{incoming})
	if err != nil {
		return nil, err
	}
	incoming = profiles[0]
	if !m.decision.Elevated && !incoming.HasStatsLink() {
		return nil, signuperrors.MissingStatsLink(playerLabel(incoming))
	}

	if err := s.checkBans(ctx, m.scrim, []models.Player{incoming}); err != nil {
		return nil, err
	}

	stored, err := s.upsertPeople(ctx, []models.Player{incoming})
	if err != nil {
		return nil, err
	}

	players := slices.Clone(team.Players)
	players[slot] = stored[incoming.ExternalId]

	updated, err = s.repos.Teams.UpdateTeamField(ctx, m.scrim.ScrimId, team.TeamId, models.TeamFieldPlayers, players)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}

	s.cacheTeams(ctx, m.scrim.ScrimId, m.replaced(*updated))

	s.logger.Info("Teammate replaced",
		"scrim_id", m.scrim.ScrimId,
		"team_id", team.TeamId,
		"outgoing", outgoing.ExternalId,
		"incoming", incoming.ExternalId,
	)

	extra := map[string]any{
		"actor":    actorId,
		"outgoing": outgoing.ExternalId,
		"incoming": incoming.ExternalId,
	}
	if err := s.publisher.PublishTeamEvent(ctx, commonevents.SignupTeammateReplaced, m.scrim, updated, extra); err != nil {
		return updated, signuperrors.AnnouncementFailure(err)
	}
	return updated, nil
}

// GetOrderedSignups holds the scrim lock only around the team reload, which
// also refreshes the cache. Priority and pass lookups run unlocked.
func (s *signupService) GetOrderedSignups(ctx context.Context, channelId string) (signups *models.Signups, err error) {
	defer func(start time.Time) { metrics.ObserveOp("getOrderedSignups", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	scrim, err := s.activeScrim(ctx, channelId)
	if err != nil {
		return nil, err
	}

	var (
		teams   []models.Team
		entries []models.PriorityEntry
		passes  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		release, err := s.lockScrim(gctx, scrim.ScrimId)
		if err != nil {
			return err
		}
		defer release()

		teams, err = s.freshTeams(gctx, scrim.ScrimId)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.repos.Priority.GetOverlapping(gctx, scrim.ScheduledTime)
		if err != nil {
			return signuperrors.PersistenceFailure(err)
		}
		return nil
	})
	g.Go(func() error {
		if s.passes == nil {
			return nil
		}
		var err error
		passes, err = s.passes.PassHolders(gctx)
		if err != nil {
			// a directory outage should not hide the signup list
			s.logger.Warn("Pass holders unavailable, ordering without passes", "error", err)
			passes = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := priority.Resolve(teams, entries, passes)
	mainList, waitList := ordering.Order(resolved, s.opts.LobbySize)

	return &models.Signups{
		Scrim:    scrim,
		MainList: mainList,
		WaitList: waitList,
	}, nil
}

// teamChange is the state shared by remove, rename and replace once the
// target team is found and the actor is cleared to touch it.
type teamChange struct {
	scrim    *models.Scrim
	teams    []models.Team
	index    int
	decision identity.Decision
}

func (m *teamChange) team() models.Team {
	return m.teams[m.index]
}

func (m *teamChange) replaced(team models.Team) []models.Team {
	teams := slices.Clone(m.teams)
	teams[m.index] = team
	return teams
}

// beginTeamChange takes the scrim lock, reloads teams from persistence and
// applies the authorization and roster lock gates. The caller must release.
func (s *signupService) beginTeamChange(ctx context.Context, channelId, teamName, actorId string) (*teamChange, func(), error) {
	scrim, err := s.activeScrim(ctx, channelId)
	if err != nil {
		return nil, nil, err
	}

	release, err := s.lockActive(ctx, scrim)
	if err != nil {
		return nil, nil, err
	}

	m, err := s.loadTeamChange(ctx, scrim, teamName, actorId)
	if err != nil {
		release()
		return nil, nil, err
	}
	return m, release, nil
}

func (s *signupService) loadTeamChange(ctx context.Context, scrim *models.Scrim, teamName, actorId string) (*teamChange, error) {
	teams, err := s.freshTeams(ctx, scrim.ScrimId)
	if err != nil {
		return nil, err
	}

	idx := findTeam(teams, teamName)
	if idx < 0 {
		return nil, signuperrors.TeamNotFound(teamName)
	}

	decision, err := s.authorize(ctx, actorId, identity.ActionManageTeam, &teams[idx])
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, signuperrors.NotAuthorized()
	}

	if !decision.Elevated && !s.now().Before(scrim.RosterLocksAt(s.opts.RosterLockLead)) {
		return nil, signuperrors.RosterLocked()
	}

	return &teamChange{scrim: scrim, teams: teams, index: idx, decision: decision}, nil
}

// withStoredProfiles fills stats links and elo the caller did not supply
// from stored profiles.
func (s *signupService) withStoredProfiles(ctx context.Context, players []models.Player) ([]models.Player, error) {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ExternalId)
	}

	stored, err := s.repos.Players.GetByExternalIds(ctx, ids)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}

	merged := make([]models.Player, len(players))
	for i, p := range players {
		if known, ok := stored[p.ExternalId]; ok {
			if p.StatsLinkId == "" {
				p.StatsLinkId = known.StatsLinkId
			}
			if p.Elo == nil {
				p.Elo = known.Elo
			}
			if p.DisplayName == "" {
				p.DisplayName = known.DisplayName
			}
			p.PlayerId = known.PlayerId
		}
		merged[i] = p
	}
	return merged, nil
}

func (s *signupService) checkBans(ctx context.Context, scrim *models.Scrim, players []models.Player) error {
	names := make(map[string]string, len(players))
	ids := make([]string, 0, len(players))
	for _, p := range players {
		if _, seen := names[p.ExternalId]; seen {
			continue
		}
		names[p.ExternalId] = playerLabel(p)
		ids = append(ids, p.ExternalId)
	}

	status, err := s.bans.HasActiveBan(ctx, scrim.ScheduledTime, ids)
	if err != nil {
		return signuperrors.PersistenceFailure(err)
	}
	if !status.Banned {
		return nil
	}

	reasons := make([]string, 0, len(status.Entries))
	for _, e := range status.Entries {
		reasons = append(reasons, fmt.Sprintf("%s: %s", names[e.ExternalId], e.Reason))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, status.Reason)
	}
	return signuperrors.PlayerBanned(reasons)
}

// upsertPeople stores each distinct person once and returns the stored
// profiles keyed by external id.
func (s *signupService) upsertPeople(ctx context.Context, players []models.Player) (map[string]models.Player, error) {
	distinct := make([]models.Player, 0, len(players))
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, ok := seen[p.ExternalId]; ok {
			continue
		}
		seen[p.ExternalId] = struct{}{}
		distinct = append(distinct, p)
	}

	stored, err := s.repos.Players.UpsertPlayers(ctx, distinct)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}

	byId := make(map[string]models.Player, len(stored))
	for _, p := range stored {
		byId[p.ExternalId] = p
	}
	return byId, nil
}

func validateRequest(teamName string, captain models.Player, members []models.Player) error {
	if strings.TrimSpace(teamName) == "" {
		return signuperrors.InvalidInput("team name is required")
	}
	if captain.ExternalId == "" {
		return signuperrors.InvalidInput("captain id is required")
	}
	for _, m := range members {
		if m.ExternalId == "" {
			return signuperrors.InvalidInput("every player needs an id")
		}
	}
	return nil
}

func hasDuplicatePlayers(players []models.Player) bool {
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, ok := seen[p.ExternalId]; ok {
			return true
		}
		seen[p.ExternalId] = struct{}{}
	}
	return false
}

// findTeam matches names exactly, case included.
func findTeam(teams []models.Team, name string) int {
	return slices.IndexFunc(teams, func(t models.Team) bool {
		return t.TeamName == name
	})
}

func checkNotRostered(teams []models.Team, player models.Player) error {
	for i := range teams {
		if teams[i].IsMember(player.ExternalId) {
			return signuperrors.PlayerAlreadyRostered(playerLabel(player), teams[i].TeamName)
		}
	}
	return nil
}

func playerLabel(p models.Player) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ExternalId
}
