package roster

import (
	"context"
	"sync"

	"github.com/burakmert236/scrimsignups/common/models"
)

// MemoryStore keeps everything in process. Values are copied on the way in
// and out so callers can mutate what they get back.
type MemoryStore struct {
	mu     sync.RWMutex
	scrims map[string]*models.Scrim
	teams  map[string][]models.Team
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scrims: make(map[string]*models.Scrim),
		teams:  make(map[string][]models.Team),
	}
}

func (m *MemoryStore) GetScrim(_ context.Context, channelId string) (*models.Scrim, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scrim, ok := m.scrims[channelId]
	if !ok {
		return nil, false, nil
	}
	return cloneScrim(scrim), true, nil
}

func (m *MemoryStore) CreateScrim(_ context.Context, channelId string, scrim *models.Scrim) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scrims[channelId] = cloneScrim(scrim)
	return nil
}

func (m *MemoryStore) RemoveScrim(_ context.Context, channelId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if scrim, ok := m.scrims[channelId]; ok {
		delete(m.teams, scrim.ScrimId)
	}
	delete(m.scrims, channelId)
	return nil
}

func (m *MemoryStore) GetTeams(_ context.Context, scrimId string) ([]models.Team, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	teams, ok := m.teams[scrimId]
	if !ok {
		return nil, false, nil
	}
	return cloneTeams(teams), true, nil
}

func (m *MemoryStore) SetTeams(_ context.Context, scrimId string, teams []models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teams[scrimId] = cloneTeams(teams)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scrims = make(map[string]*models.Scrim)
	m.teams = make(map[string][]models.Team)
	return nil
}
