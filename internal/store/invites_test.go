package store

import (
	"path/filepath"
	"testing"
	"time"

	"rcord/internal/models"
)

// openExpiryStore returns a store with a five-minute invite TTL and a
// clock pinned to base.
func openExpiryStore(t *testing.T, base time.Time) *Store {
	t.Helper()

	s, err := Open(Config{
		Path:      filepath.Join(t.TempDir(), "db.json"),
		InviteTTL: 300 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.now = func() time.Time { return base }
	return s
}

func TestInviteToRoomKeepsOriginalTimestamp(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := openExpiryStore(t, base)
	if _, err := s.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	first, err := s.InviteToRoom("bob", "general")
	if err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}
	if first == nil || *first != models.Stamp(base) {
		t.Fatalf("InviteToRoom() = %v, want %q", first, models.Stamp(base))
	}

	s.now = func() time.Time { return base.Add(10 * time.Second) }
	second, err := s.InviteToRoom("bob", "general")
	if err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}
	if second == nil || *second != *first {
		t.Fatalf("InviteToRoom() = %v on re-invite, want the original %q", second, *first)
	}
}

func TestInviteToUnknownRoomNotRecorded(t *testing.T) {
	s := openTestStore(t)

	invitedAt, err := s.InviteToRoom("bob", "ghost")
	if err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}
	if invitedAt != nil {
		t.Fatalf("InviteToRoom() = %q for an unknown room, want nil", *invitedAt)
	}
	if invites := s.RoomInvites("bob"); len(invites) != 0 {
		t.Fatalf("RoomInvites() = %+v, want nothing recorded", invites)
	}
}

func TestInviteExpiresStrictlyAfterTTL(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := openExpiryStore(t, base)
	if _, err := s.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if _, err := s.InviteToRoom("bob", "general"); err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}

	// Exactly at the TTL the invite is still valid.
	s.now = func() time.Time { return base.Add(300 * time.Second) }
	has, expired, err := s.HasRoomInvite("bob", "general")
	if err != nil {
		t.Fatalf("HasRoomInvite() error = %v", err)
	}
	if !has || expired {
		t.Fatalf("HasRoomInvite() = %v, %v at the TTL boundary, want still valid", has, expired)
	}

	s.now = func() time.Time { return base.Add(300*time.Second + time.Nanosecond) }
	has, expired, err = s.HasRoomInvite("bob", "general")
	if err != nil {
		t.Fatalf("HasRoomInvite() error = %v", err)
	}
	if has || !expired {
		t.Fatalf("HasRoomInvite() = %v, %v past the TTL, want evicted and reported", has, expired)
	}

	// The eviction is one-shot; later checks find nothing.
	has, expired, err = s.HasRoomInvite("bob", "general")
	if err != nil {
		t.Fatalf("HasRoomInvite() error = %v", err)
	}
	if has || expired {
		t.Fatalf("HasRoomInvite() = %v, %v on recheck, want plain absence", has, expired)
	}
}

func TestLegacyInviteNeverExpires(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := openExpiryStore(t, base)
	if _, err := s.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	s.data.Invites.Users["bob"] = &models.UserInvites{
		Rooms: []models.RoomInvite{{Room: "general"}},
		Chats: []models.ChatInvite{},
	}

	s.now = func() time.Time { return base.Add(24 * time.Hour) }
	has, expired, err := s.HasRoomInvite("bob", "general")
	if err != nil {
		t.Fatalf("HasRoomInvite() error = %v", err)
	}
	if !has || expired {
		t.Fatalf("HasRoomInvite() = %v, %v for a legacy invite, want it kept", has, expired)
	}

	invites := s.RoomInvites("bob")
	if len(invites) != 1 || invites[0].InvitedAt != nil {
		t.Fatalf("RoomInvites() = %+v, want one legacy invite with null invited_at", invites)
	}
}

func TestAcceptChatInviteReportsExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := openExpiryStore(t, base)
	if err := s.CreateChat("alice:bob", "alice", "text"); err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if _, err := s.InviteToChat("bob", "alice:bob"); err != nil {
		t.Fatalf("InviteToChat() error = %v", err)
	}

	s.now = func() time.Time { return base.Add(301 * time.Second) }
	accepted, expired, err := s.AcceptChatInvite("bob", "alice:bob")
	if err != nil {
		t.Fatalf("AcceptChatInvite() error = %v", err)
	}
	if accepted || !expired {
		t.Fatalf("AcceptChatInvite() = %v, %v, want the expiry reported", accepted, expired)
	}
	if s.ChatHasMember("alice:bob", "bob") {
		t.Fatal("ChatHasMember() = true after an expired accept")
	}
}

func TestCleanupExpiredInvitesReportsEvictions(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := openExpiryStore(t, base)
	if _, err := s.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if err := s.CreateChat("alice:bob", "alice", "text"); err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if _, err := s.InviteToRoom("bob", "general"); err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}
	if _, err := s.InviteToChat("bob", "alice:bob"); err != nil {
		t.Fatalf("InviteToChat() error = %v", err)
	}
	// A legacy invite sits alongside and must survive the sweep.
	bucket := s.data.Invites.Users["bob"]
	bucket.Rooms = append(bucket.Rooms, models.RoomInvite{Room: "lounge"})

	s.now = func() time.Time { return base.Add(time.Hour) }
	rooms, chats, err := s.CleanupExpiredInvites("bob")
	if err != nil {
		t.Fatalf("CleanupExpiredInvites() error = %v", err)
	}
	if len(rooms) != 1 || rooms[0] != "general" {
		t.Fatalf("expired rooms = %v, want [general]", rooms)
	}
	if len(chats) != 1 || chats[0] != "alice:bob" {
		t.Fatalf("expired chats = %v, want [alice:bob]", chats)
	}

	remaining := s.RoomInvites("bob")
	if len(remaining) != 1 || remaining[0].Room != "lounge" {
		t.Fatalf("RoomInvites() = %+v after sweep, want only the legacy invite", remaining)
	}

	// Nothing left to evict; the slices stay empty but non-nil.
	rooms, chats, err = s.CleanupExpiredInvites("bob")
	if err != nil {
		t.Fatalf("CleanupExpiredInvites() error = %v", err)
	}
	if rooms == nil || chats == nil || len(rooms) != 0 || len(chats) != 0 {
		t.Fatalf("CleanupExpiredInvites() = %v, %v on recheck, want empty slices", rooms, chats)
	}
}

func TestRemoveRoomInviteReportsRemoval(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if _, err := s.InviteToRoom("bob", "general"); err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}

	removed, err := s.RemoveRoomInvite("bob", "general")
	if err != nil {
		t.Fatalf("RemoveRoomInvite() error = %v", err)
	}
	if !removed {
		t.Fatal("RemoveRoomInvite() = false for a pending invite")
	}

	removed, err = s.RemoveRoomInvite("bob", "general")
	if err != nil {
		t.Fatalf("RemoveRoomInvite() error = %v", err)
	}
	if removed {
		t.Fatal("RemoveRoomInvite() = true with nothing left to remove")
	}
}
