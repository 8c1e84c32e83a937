// Package store persists all durable server state in a single JSON file.
// Every mutation rewrites the file through a temp-file-plus-rename so a
// crash can never leave a half-written database behind, and a checksum
// over the canonical form of the data detects outside corruption.
package store

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"rcord/internal/models"
)

// DefaultInviteTTL is how long a pending invite stays valid.
const DefaultInviteTTL = 300 * time.Second

// ErrIntegrity is returned when the database file fails its checksum.
// Callers are expected to treat it as fatal rather than start with
// corrupted state.
var ErrIntegrity = errors.New("database integrity check failed")

// Config carries the store's construction parameters. InviteTTL defaults
// to DefaultInviteTTL when unset.
type Config struct {
	Path      string
	InviteTTL time.Duration
}

// Store is the process-wide database handle. State lives in memory behind
// a RWMutex; every mutating operation performs its read-modify-write under
// the write lock and ends with one atomic snapshot to disk.
type Store struct {
	mu        sync.RWMutex
	path      string
	inviteTTL time.Duration
	now       func() time.Time
	data      *database
}

// database is the persisted document layout.
type database struct {
	Users    map[string]*models.User     `json:"users"`
	Rooms    map[string]*models.Room     `json:"rooms"`
	Chats    map[string]*models.Chat     `json:"chats"`
	Messages map[string][]models.Message `json:"messages"`
	Invites  inviteTable                 `json:"invites"`
	Status   map[string]*models.Status   `json:"status"`
}

type inviteTable struct {
	Users map[string]*models.UserInvites `json:"users"`
}

func newDatabase() *database {
	return &database{
		Users:    map[string]*models.User{},
		Rooms:    map[string]*models.Room{},
		Chats:    map[string]*models.Chat{},
		Messages: map[string][]models.Message{},
		Invites:  inviteTable{Users: map[string]*models.UserInvites{}},
		Status:   map[string]*models.Status{},
	}
}

// normalize fills in whatever an older or hand-edited file is missing:
// absent collections, nil member slices, a status entry for every user
// (falling back to their registration time) and their invite bucket.
func (d *database) normalize() {
	if d.Users == nil {
		d.Users = map[string]*models.User{}
	}
	if d.Rooms == nil {
		d.Rooms = map[string]*models.Room{}
	}
	if d.Chats == nil {
		d.Chats = map[string]*models.Chat{}
	}
	if d.Messages == nil {
		d.Messages = map[string][]models.Message{}
	}
	if d.Invites.Users == nil {
		d.Invites.Users = map[string]*models.UserInvites{}
	}
	if d.Status == nil {
		d.Status = map[string]*models.Status{}
	}
	for _, room := range d.Rooms {
		if room.Members == nil {
			room.Members = []string{}
		}
	}
	for _, chat := range d.Chats {
		if chat.Participants == nil {
			chat.Participants = []string{}
		}
	}
	for username, user := range d.Users {
		if _, ok := d.Status[username]; !ok {
			lastSeen := ""
			if user != nil {
				lastSeen = user.CreatedAt
			}
			d.Status[username] = &models.Status{LastSeen: lastSeen}
		}
		if _, ok := d.Invites.Users[username]; !ok {
			d.Invites.Users[username] = &models.UserInvites{
				Rooms: []models.RoomInvite{},
				Chats: []models.ChatInvite{},
			}
		}
	}
	for _, bucket := range d.Invites.Users {
		if bucket.Rooms == nil {
			bucket.Rooms = []models.RoomInvite{}
		}
		if bucket.Chats == nil {
			bucket.Chats = []models.ChatInvite{}
		}
	}
}

// Open loads the database at cfg.Path, creating an empty one when the file
// does not exist. A checksum mismatch or unreadable file is an error; the
// server must not come up on corrupted state.
func Open(cfg Config) (*Store, error) {
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = DefaultInviteTTL
	}
	s := &Store{
		path:      cfg.Path,
		inviteTTL: cfg.InviteTTL,
		now:       time.Now,
	}

	raw, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.data = newDatabase()
		if err := s.persistLocked(); err != nil {
			return nil, fmt.Errorf("initializing database file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading database file: %w", err)
	default:
		data, err := decodeSnapshot(raw)
		if err != nil {
			return nil, err
		}
		data.normalize()
		s.data = data
	}
	return s, nil
}

// Ping reports whether the database file is still present and statable.
func (s *Store) Ping() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("database file: %w", err)
	}
	return nil
}

// Counts returns the sizes of the top-level collections.
func (s *Store) Counts() (users, rooms, chats int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Users), len(s.data.Rooms), len(s.data.Chats)
}

// bucketLocked returns username's invite bucket, creating it when absent.
// Callers must hold the write lock.
func (s *Store) bucketLocked(username string) *models.UserInvites {
	bucket, ok := s.data.Invites.Users[username]
	if !ok {
		bucket = &models.UserInvites{
			Rooms: []models.RoomInvite{},
			Chats: []models.ChatInvite{},
		}
		s.data.Invites.Users[username] = bucket
	}
	return bucket
}
