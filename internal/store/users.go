package store

import (
	"sort"

	"rcord/internal/models"
)

// RegisterUser creates an account, seeding its status entry and invite
// bucket. It reports false when the username is already taken.
func (s *Store) RegisterUser(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Users[username]; ok {
		return false, nil
	}
	now := models.Stamp(s.now())
	s.data.Users[username] = &models.User{Password: password, CreatedAt: now}
	s.bucketLocked(username)
	s.data.Status[username] = &models.Status{Online: false, LastSeen: now}
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// ValidateLogin reports whether username exists and password matches
// verbatim.
func (s *Store) ValidateLogin(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[username]
	return ok && user.Password == password
}

// UserExists reports whether username is registered.
func (s *Store) UserExists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data.Users[username]
	return ok
}

// Usernames returns every registered username, sorted.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data.Users))
	for name := range s.data.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statuses returns a copy of the persisted presence map.
func (s *Store) Statuses() map[string]models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Status, len(s.data.Status))
	for name, st := range s.data.Status {
		if st != nil {
			out[name] = *st
		}
	}
	return out
}

// SetStatus records username's presence. An empty lastSeen means now.
func (s *Store) SetStatus(username string, online bool, lastSeen string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lastSeen == "" {
		lastSeen = models.Stamp(s.now())
	}
	s.data.Status[username] = &models.Status{Online: online, LastSeen: lastSeen}
	return s.persistLocked()
}
