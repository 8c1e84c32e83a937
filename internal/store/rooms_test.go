package store

import "testing"

func TestCreateRoomRejectsDuplicateName(t *testing.T) {
	s := openTestStore(t)
	if s.RoomExists("general") {
		t.Fatal("RoomExists() = true on a fresh store")
	}

	created, err := s.CreateRoom("general", "alice", "")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if !created {
		t.Fatal("CreateRoom() = false for a fresh name")
	}
	if !s.RoomExists("general") {
		t.Fatal("RoomExists() = false after create")
	}

	created, err = s.CreateRoom("general", "bob", "voice")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if created {
		t.Fatal("CreateRoom() accepted a duplicate name")
	}
	if got := s.RoomKind("general"); got != "text" {
		t.Fatalf("RoomKind() = %q, duplicate create overwrote the room", got)
	}
}

func TestAddRoomMemberConsumesInvite(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	invitedAt, err := s.InviteToRoom("bob", "general")
	if err != nil {
		t.Fatalf("InviteToRoom() error = %v", err)
	}
	if invitedAt == nil {
		t.Fatal("InviteToRoom() = nil timestamp for a fresh invite")
	}

	joined, err := s.AddRoomMember("general", "bob")
	if err != nil {
		t.Fatalf("AddRoomMember() error = %v", err)
	}
	if !joined {
		t.Fatal("AddRoomMember() = false for an existing room")
	}

	members := s.RoomMembers("general")
	if len(members) != 2 || members[0] != "alice" || members[1] != "bob" {
		t.Fatalf("RoomMembers() = %v, want [alice bob]", members)
	}
	if invites := s.RoomInvites("bob"); len(invites) != 0 {
		t.Fatalf("RoomInvites() = %+v, want invite consumed on join", invites)
	}

	// Joining again must not duplicate the membership.
	if _, err := s.AddRoomMember("general", "bob"); err != nil {
		t.Fatalf("AddRoomMember() error = %v", err)
	}
	if members := s.RoomMembers("general"); len(members) != 2 {
		t.Fatalf("RoomMembers() = %v after repeat join, want two members", members)
	}
}

func TestAddRoomMemberUnknownRoom(t *testing.T) {
	s := openTestStore(t)

	joined, err := s.AddRoomMember("ghost", "bob")
	if err != nil {
		t.Fatalf("AddRoomMember() error = %v", err)
	}
	if joined {
		t.Fatal("AddRoomMember() = true for an unknown room")
	}
}

func TestRoomKindFallsBackToText(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CreateRoom("plain", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if _, err := s.CreateRoom("lounge", "alice", "voice"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	testCases := []struct {
		name string
		room string
		want string
	}{
		{name: "empty_kind", room: "plain", want: "text"},
		{name: "voice_kind", room: "lounge", want: "voice"},
		{name: "unknown_room", room: "ghost", want: "text"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.RoomKind(tc.room); got != tc.want {
				t.Fatalf("RoomKind(%q) = %q, want %q", tc.room, got, tc.want)
			}
		})
	}
}

func TestRoomsForUserListsOnlyMemberships(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"zeta", "alpha"} {
		if _, err := s.CreateRoom(name, "alice", ""); err != nil {
			t.Fatalf("CreateRoom(%q) error = %v", name, err)
		}
	}
	if _, err := s.CreateRoom("private", "bob", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	rooms := s.RoomsForUser("alice")
	if len(rooms) != 2 || rooms[0].Room != "alpha" || rooms[1].Room != "zeta" {
		t.Fatalf("RoomsForUser() = %+v, want [alpha zeta] sorted", rooms)
	}
	if rooms := s.RoomsForUser("carol"); len(rooms) != 0 {
		t.Fatalf("RoomsForUser() = %+v for a user in no rooms, want empty", rooms)
	}
}
