package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	commonevents "github.com/burakmert236/scrimsignups/common/events"
	"github.com/burakmert236/scrimsignups/common/models"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
)

func TestCreateScrim(t *testing.T) {
	f := newFixture(t)
	svc := NewScrimService(f.deps())
	ctx := context.Background()
	at := f.now.Add(24 * time.Hour)

	_, err := svc.CreateScrim(ctx, "random", "chan-2", at)
	requireCode(t, err, signuperrors.CodeNotAuthorized)

	_, err = svc.CreateScrim(ctx, adminId, "chan-2", time.Time{})
	requireCode(t, err, apperrors.CodeInvalidInput)

	scrim, err := svc.CreateScrim(ctx, adminId, "chan-2", at)
	require.NoError(t, err)
	assert.True(t, scrim.Active)
	assert.Equal(t, at, scrim.ScheduledTime)

	cached, ok, err := f.cache.GetScrim(ctx, "chan-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scrim.ScrimId, cached.ScrimId)

	teams, ok, err := f.cache.GetTeams(ctx, scrim.ScrimId)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, teams)

	_, err = svc.CreateScrim(ctx, adminId, "chan-2", at)
	requireCode(t, err, signuperrors.CodeScrimAlreadyActive)

	assert.Equal(t, []string{commonevents.ScrimCreated}, f.publisher.subjects())
}

func TestCloseScrim(t *testing.T) {
	f := newFixture(t)
	scrims := NewScrimService(f.deps())
	ctx := context.Background()

	_, err := scrims.WarmUp(ctx)
	require.NoError(t, err)

	err = scrims.CloseScrim(ctx, "cap", testChannel)
	requireCode(t, err, signuperrors.CodeNotAuthorized)

	require.NoError(t, scrims.CloseScrim(ctx, adminId, testChannel))

	_, ok, err := f.cache.GetScrim(ctx, testChannel)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := f.scrims.GetActiveByChannel(ctx, testChannel)
	require.NoError(t, err)
	assert.Nil(t, active)

	err = scrims.CloseScrim(ctx, adminId, testChannel)
	requireCode(t, err, signuperrors.CodeScrimNotFound)

	_, err = NewSignupService(f.deps()).AddTeam(ctx, testChannel, "Late", linked("cap"), roster3("p1", "p2", "p3"))
	requireCode(t, err, signuperrors.CodeScrimNotFound)
}

func TestWarmUp(t *testing.T) {
	f := newFixture(t)
	f.scrims.byChannel["chan-2"] = &models.Scrim{ScrimId: "scrim-2", ChannelId: "chan-2", Active: true}

	n, err := NewScrimService(f.deps()).WarmUp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, ch := range []string{testChannel, "chan-2"} {
		_, ok, err := f.cache.GetScrim(context.Background(), ch)
		require.NoError(t, err)
		assert.True(t, ok, ch)
	}
}

func TestWarmUp_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.scrims.err = errBoom

	_, err := NewScrimService(f.deps()).WarmUp(context.Background())
	requireCode(t, err, signuperrors.CodePersistenceFailure)
}

func TestApplyScrimEvent(t *testing.T) {
	f := newFixture(t)
	svc := NewScrimService(f.deps())
	ctx := context.Background()

	remote := &models.Scrim{ScrimId: "scrim-9", ChannelId: "chan-9", Active: true}
	require.NoError(t, svc.ApplyScrimEvent(ctx, commonevents.ScrimCreated, remote))

	cached, ok, err := f.cache.GetScrim(ctx, "chan-9")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "scrim-9", cached.ScrimId)

	// a stale close for an older scrim leaves the channel alone
	stale := &models.Scrim{ScrimId: "scrim-8", ChannelId: "chan-9"}
	require.NoError(t, svc.ApplyScrimEvent(ctx, commonevents.ScrimClosed, stale))
	_, ok, err = f.cache.GetScrim(ctx, "chan-9")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.ApplyScrimEvent(ctx, commonevents.ScrimClosed, remote))
	_, ok, err = f.cache.GetScrim(ctx, "chan-9")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.ApplyScrimEvent(ctx, "events.scrim.unknown", remote))
	requireCode(t, svc.ApplyScrimEvent(ctx, commonevents.ScrimCreated, &models.Scrim{}), apperrors.CodeInvalidInput)
}

func TestPriorityService(t *testing.T) {
	f := newFixture(t)
	svc := NewPriorityService(f.deps())
	ctx := context.Background()

	entry := models.PriorityEntry{
		ExternalId: "p1",
		StartDate:  f.now.Add(-time.Hour),
		EndDate:    f.now.Add(time.Hour),
		Amount:     1,
		Reason:     " hosted last week ",
	}

	_, err := svc.AddPriority(ctx, "p1", entry)
	requireCode(t, err, signuperrors.CodeNotAuthorized)

	backwards := entry
	backwards.StartDate, backwards.EndDate = entry.EndDate, entry.StartDate
	_, err = svc.AddPriority(ctx, adminId, backwards)
	requireCode(t, err, apperrors.CodeInvalidInput)

	noReason := entry
	noReason.Reason = "   "
	_, err = svc.AddPriority(ctx, adminId, noReason)
	requireCode(t, err, apperrors.CodeInvalidInput)

	created, err := svc.AddPriority(ctx, adminId, entry)
	require.NoError(t, err)
	assert.NotEmpty(t, created.PriorityId)
	assert.Equal(t, "hosted last week", created.Reason)

	listed, err := svc.ListPriority(ctx, f.now)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = svc.ExpungePriority(ctx, adminId, nil)
	requireCode(t, err, apperrors.CodeInvalidInput)

	removed, err := svc.ExpungePriority(ctx, adminId, []string{created.PriorityId, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestPriorityService_ExpungeExpired(t *testing.T) {
	f := newFixture(t)
	f.priority.entries = []models.PriorityEntry{
		{PriorityId: "old", StartDate: f.now.Add(-72 * time.Hour), EndDate: f.now.Add(-time.Hour)},
		{PriorityId: "current", StartDate: f.now.Add(-time.Hour), EndDate: f.now.Add(time.Hour)},
	}

	removed, err := NewPriorityService(f.deps()).ExpungeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	require.Len(t, f.priority.entries, 1)
	assert.Equal(t, "current", f.priority.entries[0].PriorityId)
}

func TestPlayerService_UpdateProfiles(t *testing.T) {
	f := newFixture(t)
	svc := NewPlayerService(f.deps())
	ctx := context.Background()

	_, err := svc.UpdateProfiles(ctx, nil)
	requireCode(t, err, apperrors.CodeInvalidInput)

	_, err = svc.UpdateProfiles(ctx, []models.Player{{DisplayName: "anonymous"}})
	requireCode(t, err, apperrors.CodeInvalidInput)

	elo := 1800
	stored, err := svc.UpdateProfiles(ctx, []models.Player{{ExternalId: "p1", StatsLinkId: "stats-p1", Elo: &elo}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "stats-p1", f.players.profiles["p1"].StatsLinkId)

	// the stored link now satisfies signup
	members := []models.Player{unlinked("p1"), linked("p2"), linked("p3")}
	_, err = NewSignupService(f.deps()).AddTeam(ctx, testChannel, "Linked", linked("cap"), members)
	require.NoError(t, err)

	f.players.err = errBoom
	_, err = svc.UpdateProfiles(ctx, []models.Player{{ExternalId: "p1"}})
	requireCode(t, err, signuperrors.CodePersistenceFailure)
}

func TestScrimLocks(t *testing.T) {
	locks := NewScrimLocks()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "a")
	require.NoError(t, err)

	// other scrims are independent
	releaseB, err := locks.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(timeout, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		r, err := locks.Acquire(ctx, "a")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	release()
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Equal(t, 0, locks.held())
}
