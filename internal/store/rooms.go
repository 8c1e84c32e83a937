package store

import (
	"sort"

	"rcord/internal/models"
)

// CreateRoom creates a named room with creator as its only member. An
// empty kind defaults to text. It reports false when the name is taken.
func (s *Store) CreateRoom(name, creator, kind string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Rooms[name]; ok {
		return false, nil
	}
	s.data.Rooms[name] = &models.Room{
		Members:   []string{creator},
		CreatedAt: models.Stamp(s.now()),
		Kind:      models.KindOrText(kind),
	}
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// AddRoomMember joins username to a room and consumes any pending
// invite for it, legacy entries included. Expired invites held by the
// user are swept first. It reports false when the room does not exist.
func (s *Store) AddRoomMember(name, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiredRooms, expiredChats := s.sweepInvitesLocked(username)
	room, ok := s.data.Rooms[name]
	if !ok {
		if len(expiredRooms) > 0 || len(expiredChats) > 0 {
			if err := s.persistLocked(); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if !contains(room.Members, username) {
		room.Members = append(room.Members, username)
	}
	bucket := s.bucketLocked(username)
	kept := bucket.Rooms[:0]
	for _, inv := range bucket.Rooms {
		if inv.Room != name {
			kept = append(kept, inv)
		}
	}
	bucket.Rooms = kept
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// RoomExists reports whether a room with the given name exists.
func (s *Store) RoomExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data.Rooms[name]
	return ok
}

// RoomHasMember reports whether username belongs to the room. Unknown
// rooms have no members.
func (s *Store) RoomHasMember(name, username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.data.Rooms[name]
	return ok && contains(room.Members, username)
}

// RoomMembers returns the room's members, sorted. Unknown rooms yield
// an empty list.
func (s *Store) RoomMembers(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.data.Rooms[name]
	if !ok {
		return []string{}
	}
	members := make([]string, len(room.Members))
	copy(members, room.Members)
	sort.Strings(members)
	return members
}

// RoomKind returns the room's media kind. Unknown rooms and rooms
// without a recorded kind report text.
func (s *Store) RoomKind(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomKindLocked(name)
}

func (s *Store) roomKindLocked(name string) string {
	room, ok := s.data.Rooms[name]
	if !ok {
		return models.KindText
	}
	return models.KindOrText(room.Kind)
}

// RoomsForUser returns summaries of every room username belongs to,
// sorted by room name.
func (s *Store) RoomsForUser(username string) []models.RoomSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.RoomSummary{}
	for name, room := range s.data.Rooms {
		if contains(room.Members, username) {
			out = append(out, models.RoomSummary{Room: name, Kind: models.KindOrText(room.Kind)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}
