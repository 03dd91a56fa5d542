package users

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps profiles for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
	polls    map[string]PollRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[int64]Profile),
		polls:    make(map[string]PollRecord),
	}
}

func (s *MemoryStore) EnsureUser(_ context.Context, p Profile) (Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.ID]; ok {
		return clone(existing), false, nil
	}
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = time.Now()
	}
	p.RegisteredAt = p.RegisteredAt.Truncate(time.Second)
	p = clone(p)
	s.profiles[p.ID] = p
	return clone(p), true, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) SaveRegistration(_ context.Context, id int64, fullName string, age int) error {
	if err := ValidateAge(age); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.FullName = &fullName
	p.Age = &age
	s.profiles[id] = p
	return nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

func (s *MemoryStore) SavePoll(_ context.Context, rec PollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Options = append([]string(nil), rec.Options...)
	s.polls[rec.PollID] = rec
	return nil
}

// clone copies the optional fields so callers cannot mutate stored state.
func clone(p Profile) Profile {
	if p.Username != nil {
		v := *p.Username
		p.Username = &v
	}
	if p.FullName != nil {
		v := *p.FullName
		p.FullName = &v
	}
	if p.Age != nil {
		v := *p.Age
		p.Age = &v
	}
	return p
}
