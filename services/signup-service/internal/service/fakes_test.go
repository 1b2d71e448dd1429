package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/models"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/identity"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/roster"
)

type fakeScrims struct {
	mu        sync.Mutex
	byChannel map[string]*models.Scrim
	err       error
}

func (f *fakeScrims) Create(_ context.Context, scrim *models.Scrim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byChannel[scrim.ChannelId]; ok {
		return apperrors.New(apperrors.CodeConflict, "channel busy")
	}
	c := *scrim
	f.byChannel[scrim.ChannelId] = &c
	return nil
}

func (f *fakeScrims) GetById(_ context.Context, scrimId string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byChannel {
		if s.ScrimId == scrimId {
			c := *s
			return &c, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "scrim not found")
}

func (f *fakeScrims) GetActiveScrims(context.Context) ([]models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Scrim, 0, len(f.byChannel))
	for _, s := range f.byChannel {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeScrims) GetActiveByChannel(_ context.Context, channelId string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byChannel[channelId]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (f *fakeScrims) Deactivate(_ context.Context, scrim *models.Scrim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.byChannel, scrim.ChannelId)
	return nil
}

type fakeTeams struct {
	mu          sync.Mutex
	byScrim     map[string][]models.Team
	insertErr   error
	insertDelay time.Duration
	inserts     int

	// pause, when set, parks the next read after its snapshot is taken:
	// paused is closed and the read returns once pause is closed.
	pause  chan struct{}
	paused chan struct{}
}

func (f *fakeTeams) GetTeamsForScrim(_ context.Context, scrimId string) ([]models.Team, error) {
	f.mu.Lock()
	teams := slices.Clone(f.byScrim[scrimId])
	pause, paused := f.pause, f.paused
	f.pause, f.paused = nil, nil
	f.mu.Unlock()

	if pause != nil {
		close(paused)
		<-pause
	}
	return teams, nil
}

// pauseNextRead arms the next GetTeamsForScrim and returns the channel that
// is closed once that read holds its snapshot, plus the func that resumes it.
func (f *fakeTeams) pauseNextRead() (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pause = make(chan struct{})
	f.paused = make(chan struct{})
	pause := f.pause
	return f.paused, func() { close(pause) }
}

func (f *fakeTeams) InsertTeam(_ context.Context, team *models.Team) error {
	if f.insertDelay > 0 {
		time.Sleep(f.insertDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.byScrim[team.ScrimId] = append(f.byScrim[team.ScrimId], *team)
	return nil
}

func (f *fakeTeams) DeleteTeam(_ context.Context, scrimId, teamId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	teams := f.byScrim[scrimId]
	idx := slices.IndexFunc(teams, func(t models.Team) bool { return t.TeamId == teamId })
	if idx < 0 {
		return apperrors.New(apperrors.CodeNotFound, "team not found")
	}
	f.byScrim[scrimId] = slices.Delete(teams, idx, idx+1)
	return nil
}

func (f *fakeTeams) UpdateTeamField(_ context.Context, scrimId, teamId string, field models.TeamField, value any) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	teams := f.byScrim[scrimId]
	idx := slices.IndexFunc(teams, func(t models.Team) bool { return t.TeamId == teamId })
	if idx < 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "team not found")
	}
	switch field {
	case models.TeamFieldName:
		teams[idx].TeamName = value.(string)
	case models.TeamFieldPlayers:
		teams[idx].Players = slices.Clone(value.([]models.Player))
	}
	updated := teams[idx]
	return &updated, nil
}

func (f *fakeTeams) count(scrimId string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byScrim[scrimId])
}

type fakePlayers struct {
	mu       sync.Mutex
	profiles map[string]models.Player
	upserts  int
	err      error
}

func (f *fakePlayers) UpsertPlayers(_ context.Context, players []models.Player) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.upserts++
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		stored, ok := f.profiles[p.ExternalId]
		if !ok {
			stored = models.Player{PlayerId: "pid-" + p.ExternalId, ExternalId: p.ExternalId}
		}
		if p.DisplayName != "" {
			stored.DisplayName = p.DisplayName
		}
		if p.StatsLinkId != "" {
			stored.StatsLinkId = p.StatsLinkId
		}
		if p.Elo != nil {
			stored.Elo = p.Elo
		}
		f.profiles[p.ExternalId] = stored
		out = append(out, stored)
	}
	return out, nil
}

func (f *fakePlayers) GetByExternalIds(_ context.Context, externalIds []string) (map[string]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]models.Player)
	for _, id := range externalIds {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakePriority struct {
	mu      sync.Mutex
	entries []models.PriorityEntry
	err     error
}

func (f *fakePriority) Create(_ context.Context, entry *models.PriorityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakePriority) GetOverlapping(_ context.Context, at time.Time) ([]models.PriorityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.PriorityEntry, 0)
	for _, e := range f.entries {
		if e.Covers(at) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePriority) Delete(_ context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.entries)
	f.entries = slices.DeleteFunc(f.entries, func(e models.PriorityEntry) bool {
		return slices.Contains(ids, e.PriorityId)
	})
	return int64(before - len(f.entries)), nil
}

func (f *fakePriority) DeleteEndedBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	f.entries = slices.DeleteFunc(f.entries, func(e models.PriorityEntry) bool {
		return e.EndDate.Before(before)
	})
	return int64(n - len(f.entries)), nil
}

type fakeBans struct {
	entries []models.BanEntry
	err     error
}

func (f *fakeBans) HasActiveBan(_ context.Context, at time.Time, externalIds []string) (models.BanStatus, error) {
	if f.err != nil {
		return models.BanStatus{}, f.err
	}
	var status models.BanStatus
	reasons := make([]string, 0)
	for _, b := range f.entries {
		if !slices.Contains(externalIds, b.ExternalId) || at.Before(b.StartDate) || at.After(b.EndDate) {
			continue
		}
		status.Banned = true
		status.Entries = append(status.Entries, b)
		reasons = append(reasons, b.Reason)
	}
	status.Reason = strings.Join(reasons, "; ")
	return status, nil
}

type publishedEvent struct {
	subject string
	teamId  string
	extra   map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

func (f *fakePublisher) PublishTeamEvent(_ context.Context, subject string, _ *models.Scrim, team *models.Team, extra map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{subject: subject, teamId: team.TeamId, extra: extra})
	return nil
}

func (f *fakePublisher) PublishScrimEvent(_ context.Context, subject string, _ *models.Scrim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{subject: subject})
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.subject)
	}
	return out
}

const (
	testChannel = "chan-1"
	testScrimId = "scrim-1"
	adminId     = "admin-1"
	passHolder  = "pass-1"
)

var errBoom = errors.New("boom")

type fixture struct {
	now       time.Time
	scrim     models.Scrim
	scrims    *fakeScrims
	teams     *fakeTeams
	players   *fakePlayers
	priority  *fakePriority
	bans      *fakeBans
	publisher *fakePublisher
	cache     *roster.MemoryStore
	locks     *ScrimLocks
	lobbySize int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	f := &fixture{
		now: now,
		scrim: models.Scrim{
			ScrimId:       testScrimId,
			ChannelId:     testChannel,
			ScheduledTime: now.Add(2 * time.Hour),
			Active:        true,
		},
		teams:     &fakeTeams{byScrim: map[string][]models.Team{}},
		players:   &fakePlayers{profiles: map[string]models.Player{}},
		priority:  &fakePriority{},
		bans:      &fakeBans{},
		publisher: &fakePublisher{},
		cache:     roster.NewMemoryStore(),
		locks:     NewScrimLocks(),
		lobbySize: 20,
	}
	f.scrims = &fakeScrims{byChannel: map[string]*models.Scrim{testChannel: &f.scrim}}
	return f
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Repos: Repositories{
			Scrims:   f.scrims,
			Teams:    f.teams,
			Players:  f.players,
			Priority: f.priority,
		},
		Cache:      f.cache,
		Locks:      f.locks,
		Bans:       f.bans,
		Authorizer: identity.NewAuthorizer(identity.AdminPrincipals([]string{adminId}, nil), nil),
		Passes:     identity.NewPassResolver([]identity.Principal{identity.UserPrincipal{ID: passHolder}}, nil),
		Publisher:  f.publisher,
		Options: Options{
			LobbySize:          f.lobbySize,
			RosterLockLead:     30 * time.Minute,
			PersistenceTimeout: 2 * time.Second,
			Now:                func() time.Time { return f.now },
		},
	}
}

func (f *fixture) signups() SignupService {
	return NewSignupService(f.deps())
}

func linked(id string) models.Player {
	return models.Player{ExternalId: id, DisplayName: "name-" + id, StatsLinkId: "stats-" + id}
}

func unlinked(id string) models.Player {
	return models.Player{ExternalId: id, DisplayName: "name-" + id}
}

func roster3(ids ...string) []models.Player {
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, linked(id))
	}
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected code %s, got %s (%v)", code, got, err)
	}
}
