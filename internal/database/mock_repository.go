package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory stand-in for Repository used by tests in
// other packages.
type MockRepository struct {
	mu sync.RWMutex

	profiles map[string]*Profile
	slipUps  map[string]*SlipUp

	// ErrorOnNextCall is returned (and cleared) by the next operation.
	ErrorOnNextCall error
}

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		profiles: make(map[string]*Profile),
		slipUps:  make(map[string]*SlipUp),
	}
}

func (m *MockRepository) checkError() error {
	if m.ErrorOnNextCall != nil {
		err := m.ErrorOnNextCall
		m.ErrorOnNextCall = nil
		return err
	}
	return nil
}

// GetProfile retrieves a profile by user ID.
func (m *MockRepository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, NewNotFoundError("profile", userID)
	}
	copied := *p
	return &copied, nil
}

// CreateProfile stores a profile.
func (m *MockRepository) CreateProfile(ctx context.Context, profile *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(); err != nil {
		return err
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	copied := *profile
	m.profiles[profile.ID] = &copied
	return nil
}

// GetLatestSlipUp returns the newest slip-up for a user.
func (m *MockRepository) GetLatestSlipUp(ctx context.Context, userID string) (*SlipUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}
	var latest *SlipUp
	for _, s := range m.slipUps {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.SlipUpDate > latest.SlipUpDate {
			latest = s
		}
	}
	if latest == nil {
		return nil, NewNotFoundError("slip_up", userID)
	}
	copied := *latest
	return &copied, nil
}

// CreateSlipUp stores a slip-up record.
func (m *MockRepository) CreateSlipUp(ctx context.Context, slipUp *SlipUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(); err != nil {
		return err
	}
	if slipUp.ID == "" {
		slipUp.ID = uuid.New().String()
	}
	slipUp.CreatedAt = time.Now().UTC()
	copied := *slipUp
	m.slipUps[slipUp.ID] = &copied
	return nil
}

// Reset clears all stored data.
func (m *MockRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string]*Profile)
	m.slipUps = make(map[string]*SlipUp)
	m.ErrorOnNextCall = nil
}
