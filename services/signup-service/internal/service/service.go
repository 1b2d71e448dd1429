package service

import (
	"context"
	"time"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
	signuperrors "github.com/burakmert236/scrimsignups/services/signup-service/internal/errors"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/identity"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/repository"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/roster"
)

type Repositories struct {
	Scrims   repository.ScrimRepository
	Teams    repository.TeamRepository
	Players  repository.PlayerRepository
	Priority repository.PriorityRepository
}

type BanChecker interface {
	HasActiveBan(ctx context.Context, at time.Time, externalIds []string) (models.BanStatus, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, actorId string, action identity.Action, team *models.Team) (identity.Decision, error)
}

type PassHolderSource interface {
	PassHolders(ctx context.Context) ([]string, error)
}

type EventPublisher interface {
	PublishTeamEvent(ctx context.Context, subject string, scrim *models.Scrim, team *models.Team, extra map[string]any) error
	PublishScrimEvent(ctx context.Context, subject string, scrim *models.Scrim) error
}

type Options struct {
	LobbySize          int
	RosterLockLead     time.Duration
	PersistenceTimeout time.Duration
	Now                func() time.Time
}

type Dependencies struct {
	Repos      Repositories
	Cache      roster.Store
	Locks      *ScrimLocks
	Bans       BanChecker
	Authorizer Authorizer
	Passes     PassHolderSource
	Publisher  EventPublisher
	Logger     *logger.Logger
	Options    Options
}

// core carries what every service needs: the roster cache, the per-scrim
// locks and the persistence timeout.
type core struct {
	repos     Repositories
	cache     roster.Store
	locks     *ScrimLocks
	bans      BanChecker
	authz     Authorizer
	passes    PassHolderSource
	publisher EventPublisher
	logger    *logger.Logger
	opts      Options
}

func newCore(d Dependencies, component string) *core {
	if d.Locks == nil {
		d.Locks = NewScrimLocks()
	}
	if d.Cache == nil {
		d.Cache = roster.NewMemoryStore()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Options.Now == nil {
		d.Options.Now = time.Now
	}
	return &core{
		repos:     d.Repos,
		cache:     d.Cache,
		locks:     d.Locks,
		bans:      d.Bans,
		authz:     d.Authorizer,
		passes:    d.Passes,
		publisher: d.Publisher,
		logger:    d.Logger.With("component", component),
		opts:      d.Options,
	}
}

func (c *core) now() time.Time {
	return c.opts.Now().UTC()
}

func (c *core) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.PersistenceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.PersistenceTimeout)
}

func (c *core) lockScrim(ctx context.Context, scrimId string) (func(), error) {
	release, err := c.locks.Acquire(ctx, scrimId)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "timed out waiting for the scrim roster")
	}
	return release, nil
}

// lockActive takes the scrim's lock and re-reads the channel's active scrim
// from persistence. A close that held the lock first leaves nothing to write to.
func (c *core) lockActive(ctx context.Context, scrim *models.Scrim) (func(), error) {
	release, err := c.lockScrim(ctx, scrim.ScrimId)
	if err != nil {
		return nil, err
	}

	current, err := c.repos.Scrims.GetActiveByChannel(ctx, scrim.ChannelId)
	if err != nil {
		release()
		return nil, signuperrors.PersistenceFailure(err)
	}
	if current == nil || current.ScrimId != scrim.ScrimId {
		if cached, ok, err := c.cache.GetScrim(ctx, scrim.ChannelId); err == nil && ok && cached.ScrimId == scrim.ScrimId {
			if err := c.cache.RemoveScrim(ctx, scrim.ChannelId); err != nil {
				c.logger.Warn("Roster cache write failed", "channel_id", scrim.ChannelId, "error", err)
			}
		}
		release()
		return nil, signuperrors.ScrimNotFound(scrim.ChannelId)
	}
	return release, nil
}

func (c *core) authorize(ctx context.Context, actorId string, action identity.Action, team *models.Team) (identity.Decision, error) {
	decision, err := c.authz.Authorize(ctx, actorId, action, team)
	if err != nil {
		return identity.Decision{}, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "authorization lookup failed")
	}
	return decision, nil
}

// activeScrim checks the cache first and falls back to persistence, caching
// what it finds. Cache failures degrade to persistence reads.
func (c *core) activeScrim(ctx context.Context, channelId string) (*models.Scrim, error) {
	scrim, ok, err := c.cache.GetScrim(ctx, channelId)
	if err != nil {
		c.logger.Warn("Roster cache read failed", "channel_id", channelId, "error", err)
	}
	if err == nil && ok {
		return scrim, nil
	}

	scrim, err = c.repos.Scrims.GetActiveByChannel(ctx, channelId)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}
	if scrim == nil {
		return nil, signuperrors.ScrimNotFound(channelId)
	}

	if err := c.cache.CreateScrim(ctx, channelId, scrim); err != nil {
		c.logger.Warn("Roster cache write failed", "channel_id", channelId, "error", err)
	}
	return scrim, nil
}

// cachedTeams is the write-path gate: cache first, persistence on a miss.
func (c *core) cachedTeams(ctx context.Context, scrimId string) ([]models.Team, error) {
	teams, ok, err := c.cache.GetTeams(ctx, scrimId)
	if err != nil {
		c.logger.Warn("Roster cache read failed", "scrim_id", scrimId, "error", err)
	}
	if err == nil && ok {
		return teams, nil
	}
	return c.freshTeams(ctx, scrimId)
}

// freshTeams always reads persistence and refreshes the cache. Callers hold
// the scrim lock so an older read never replaces a newer list.
func (c *core) freshTeams(ctx context.Context, scrimId string) ([]models.Team, error) {
	teams, err := c.repos.Teams.GetTeamsForScrim(ctx, scrimId)
	if err != nil {
		return nil, signuperrors.PersistenceFailure(err)
	}
	c.cacheTeams(ctx, scrimId, teams)
	return teams, nil
}

func (c *core) cacheTeams(ctx context.Context, scrimId string, teams []models.Team) {
	if err := c.cache.SetTeams(ctx, scrimId, teams); err != nil {
		c.logger.Warn("Roster cache write failed", "scrim_id", scrimId, "error", err)
	}
}
