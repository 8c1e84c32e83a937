package store

import (
	"sort"
	"strings"

	"rcord/internal/models"
)

// ChatIDFor derives the canonical id of a direct chat between two
// users. The id is order independent.
func ChatIDFor(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// CreateChat ensures a chat with the given id exists and that creator
// participates in it. The invitee only joins on acceptance. Creating
// an existing chat keeps its stored kind.
func (s *Store) CreateChat(id, creator, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.data.Chats[id]
	if !ok {
		s.data.Chats[id] = &models.Chat{
			Participants: []string{creator},
			CreatedAt:    models.Stamp(s.now()),
			Kind:         models.KindOrText(kind),
		}
		return s.persistLocked()
	}
	if chat.Kind == "" {
		chat.Kind = models.KindOrText(kind)
	}
	if !contains(chat.Participants, creator) {
		chat.Participants = append(chat.Participants, creator)
	}
	return s.persistLocked()
}

// ChatExists reports whether a chat with the given id exists.
func (s *Store) ChatExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data.Chats[id]
	return ok
}

// ChatHasMember reports whether username participates in the chat.
// Pending invitees are not participants.
func (s *Store) ChatHasMember(id, username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.data.Chats[id]
	return ok && contains(chat.Participants, username)
}

// ChatMembers returns the chat's participants, sorted. Unknown chats
// yield an empty list.
func (s *Store) ChatMembers(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.data.Chats[id]
	if !ok {
		return []string{}
	}
	members := make([]string, len(chat.Participants))
	copy(members, chat.Participants)
	sort.Strings(members)
	return members
}

// ChatKind returns the chat's media kind. Unknown chats and chats
// without a recorded kind report text.
func (s *Store) ChatKind(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatKindLocked(id)
}

func (s *Store) chatKindLocked(id string) string {
	chat, ok := s.data.Chats[id]
	if !ok {
		return models.KindText
	}
	return models.KindOrText(chat.Kind)
}

// ChatsForUser returns summaries of every chat username participates
// in, sorted by chat id.
func (s *Store) ChatsForUser(username string) []models.ChatSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ChatSummary{}
	for id, chat := range s.data.Chats {
		if contains(chat.Participants, username) {
			out = append(out, models.ChatSummary{Chat: id, Kind: models.KindOrText(chat.Kind)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chat < out[j].Chat })
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func uniqueSorted(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
