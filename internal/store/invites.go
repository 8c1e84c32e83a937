package store

import (
	"sort"
	"time"

	"rcord/internal/metrics"
	"rcord/internal/models"
)

// InviteToRoom records a room invite for username and returns its
// timestamp. Re-inviting returns the existing timestamp without
// resetting it; a nil result means no invite was recorded (unknown
// room) or the pending invite predates timestamps.
func (s *Store) InviteToRoom(username, room string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Rooms[room]; !ok {
		return nil, nil
	}
	bucket := s.bucketLocked(username)
	for _, inv := range bucket.Rooms {
		if inv.Room == room {
			if inv.InvitedAt == "" {
				return nil, nil
			}
			at := inv.InvitedAt
			return &at, nil
		}
	}
	at := models.Stamp(s.now())
	bucket.Rooms = append(bucket.Rooms, models.RoomInvite{Room: room, InvitedAt: at})
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &at, nil
}

// InviteToChat records a chat invite for username, with the same
// idempotency rules as InviteToRoom.
func (s *Store) InviteToChat(username, chatID string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Chats[chatID]; !ok {
		return nil, nil
	}
	bucket := s.bucketLocked(username)
	for _, inv := range bucket.Chats {
		if inv.Chat == chatID {
			if inv.InvitedAt == "" {
				return nil, nil
			}
			at := inv.InvitedAt
			return &at, nil
		}
	}
	at := models.Stamp(s.now())
	bucket.Chats = append(bucket.Chats, models.ChatInvite{Chat: chatID, InvitedAt: at})
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &at, nil
}

// RoomInvites returns username's pending room invites, sorted by room
// name. Expired entries are not filtered here; callers sweep first via
// CleanupExpiredInvites.
func (s *Store) RoomInvites(username string) []models.RoomInviteSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.RoomInviteSummary{}
	bucket, ok := s.data.Invites.Users[username]
	if !ok {
		return out
	}
	for _, inv := range bucket.Rooms {
		summary := models.RoomInviteSummary{Room: inv.Room, Kind: s.roomKindLocked(inv.Room)}
		if inv.InvitedAt != "" {
			at := inv.InvitedAt
			summary.InvitedAt = &at
		}
		out = append(out, summary)
	}
	sortRoomInvites(out)
	return out
}

// ChatInvites returns username's pending chat invites, sorted by chat
// id.
func (s *Store) ChatInvites(username string) []models.ChatInviteSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ChatInviteSummary{}
	bucket, ok := s.data.Invites.Users[username]
	if !ok {
		return out
	}
	for _, inv := range bucket.Chats {
		summary := models.ChatInviteSummary{Chat: inv.Chat, Kind: s.chatKindLocked(inv.Chat)}
		if inv.InvitedAt != "" {
			at := inv.InvitedAt
			summary.InvitedAt = &at
		}
		out = append(out, summary)
	}
	sortChatInvites(out)
	return out
}

// AcceptChatInvite sweeps username's invites and, when the chat
// exists, joins them to it and consumes the invite. The second result
// reports that the invite for this chat expired during the sweep.
func (s *Store) AcceptChatInvite(username, chatID string) (accepted, expired bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiredRooms, expiredChats := s.sweepInvitesLocked(username)
	swept := len(expiredRooms) > 0 || len(expiredChats) > 0
	if contains(expiredChats, chatID) {
		if err := s.persistLocked(); err != nil {
			return false, true, err
		}
		return false, true, nil
	}
	chat, ok := s.data.Chats[chatID]
	if !ok {
		if swept {
			if err := s.persistLocked(); err != nil {
				return false, false, err
			}
		}
		return false, false, nil
	}
	chat.Participants = uniqueSorted(append(chat.Participants, username))
	bucket := s.bucketLocked(username)
	kept := bucket.Chats[:0]
	for _, inv := range bucket.Chats {
		if inv.Chat != chatID {
			kept = append(kept, inv)
		}
	}
	bucket.Chats = kept
	if err := s.persistLocked(); err != nil {
		return false, false, err
	}
	return true, false, nil
}

// RemoveRoomInvite drops username's invite for the room, legacy
// entries included. It reports whether anything was removed.
func (s *Store) RemoveRoomInvite(username, room string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.bucketLocked(username)
	kept := bucket.Rooms[:0]
	for _, inv := range bucket.Rooms {
		if inv.Room != room {
			kept = append(kept, inv)
		}
	}
	removed := len(kept) != len(bucket.Rooms)
	bucket.Rooms = kept
	if !removed {
		return false, nil
	}
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveChatInvite drops username's invite for the chat.
func (s *Store) RemoveChatInvite(username, chatID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.bucketLocked(username)
	kept := bucket.Chats[:0]
	for _, inv := range bucket.Chats {
		if inv.Chat != chatID {
			kept = append(kept, inv)
		}
	}
	removed := len(kept) != len(bucket.Chats)
	bucket.Chats = kept
	if !removed {
		return false, nil
	}
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// HasRoomInvite sweeps username's invites and reports whether a
// pending invite for the room remains. The second result reports that
// the invite expired during this sweep.
func (s *Store) HasRoomInvite(username, room string) (has, expired bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiredRooms, expiredChats := s.sweepInvitesLocked(username)
	bucket := s.bucketLocked(username)
	for _, inv := range bucket.Rooms {
		if inv.Room == room {
			has = true
			break
		}
	}
	if len(expiredRooms) > 0 || len(expiredChats) > 0 {
		if err := s.persistLocked(); err != nil {
			return has, contains(expiredRooms, room), err
		}
	}
	return has, contains(expiredRooms, room), nil
}

// HasChatInvite sweeps username's invites and reports whether a
// pending invite for the chat remains.
func (s *Store) HasChatInvite(username, chatID string) (has, expired bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiredRooms, expiredChats := s.sweepInvitesLocked(username)
	bucket := s.bucketLocked(username)
	for _, inv := range bucket.Chats {
		if inv.Chat == chatID {
			has = true
			break
		}
	}
	if len(expiredRooms) > 0 || len(expiredChats) > 0 {
		if err := s.persistLocked(); err != nil {
			return has, contains(expiredChats, chatID), err
		}
	}
	return has, contains(expiredChats, chatID), nil
}

// CleanupExpiredInvites sweeps username's invites and returns the
// evicted room and chat names.
func (s *Store) CleanupExpiredInvites(username string) (rooms, chats []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms, chats = s.sweepInvitesLocked(username)
	if len(rooms) > 0 || len(chats) > 0 {
		if err := s.persistLocked(); err != nil {
			return rooms, chats, err
		}
	}
	return rooms, chats, nil
}

// sweepInvitesLocked drops username's expired invites in place and
// returns the evicted names. Legacy entries without a timestamp never
// expire.
func (s *Store) sweepInvitesLocked(username string) (expiredRooms, expiredChats []string) {
	now := s.now()
	expiredRooms = []string{}
	expiredChats = []string{}
	bucket := s.bucketLocked(username)
	keptRooms := bucket.Rooms[:0]
	for _, inv := range bucket.Rooms {
		if s.inviteExpired(inv.InvitedAt, now) {
			if inv.Room != "" {
				expiredRooms = append(expiredRooms, inv.Room)
			}
			continue
		}
		keptRooms = append(keptRooms, inv)
	}
	bucket.Rooms = keptRooms
	keptChats := bucket.Chats[:0]
	for _, inv := range bucket.Chats {
		if s.inviteExpired(inv.InvitedAt, now) {
			if inv.Chat != "" {
				expiredChats = append(expiredChats, inv.Chat)
			}
			continue
		}
		keptChats = append(keptChats, inv)
	}
	bucket.Chats = keptChats
	if n := len(expiredRooms) + len(expiredChats); n > 0 {
		metrics.InvitesExpired.Add(float64(n))
	}
	return expiredRooms, expiredChats
}

// inviteExpired reports whether a timestamp is older than the invite
// TTL. Empty or unparseable timestamps never expire.
func (s *Store) inviteExpired(invitedAt string, now time.Time) bool {
	if invitedAt == "" {
		return false
	}
	t, err := models.ParseStamp(invitedAt)
	if err != nil {
		return false
	}
	return now.Sub(t) > s.inviteTTL
}

func sortRoomInvites(list []models.RoomInviteSummary) {
	sort.Slice(list, func(i, j int) bool { return list[i].Room < list[j].Room })
}

func sortChatInvites(list []models.ChatInviteSummary) {
	sort.Slice(list, func(i, j int) bool { return list[i].Chat < list[j].Chat })
}
