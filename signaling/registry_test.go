package signaling

import (
	"fmt"
	"testing"
)

func TestJoinCreatesRoom(t *testing.T) {
	r := NewRegistry()

	prev, snap := r.Join("abc123", "conn-a", "Alice", true)
	if prev != 0 {
		t.Errorf("Expected previous count 0, got %d", prev)
	}
	if snap.ParticipantCount != 1 {
		t.Errorf("Expected 1 participant, got %d", snap.ParticipantCount)
	}
	if snap.InterviewerID != "conn-a" {
		t.Errorf("Expected interviewer conn-a, got %q", snap.InterviewerID)
	}
	if snap.Names["conn-a"] != "Alice" {
		t.Errorf("Expected display name Alice, got %q", snap.Names["conn-a"])
	}

	if _, ok := r.SnapshotRoom("abc123"); !ok {
		t.Error("Room should exist after first join")
	}
}

func TestSnapshotUnknownRoom(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.SnapshotRoom("nowhere"); ok {
		t.Error("SnapshotRoom() should report false for an unknown room")
	}
}

func TestRoleFirstClaimSticks(t *testing.T) {
	r := NewRegistry()

	r.Join("abc123", "conn-a", "Alice", true)
	_, snap := r.Join("abc123", "conn-b", "Alina", true)

	if snap.ParticipantCount != 2 {
		t.Errorf("Expected both connections in the room, got %d", snap.ParticipantCount)
	}
	if snap.InterviewerID != "conn-a" {
		t.Errorf("Second interviewer claim must not displace the first, got %q", snap.InterviewerID)
	}
}

func TestLeaveReleasesRoleAndDeletesEmptyRoom(t *testing.T) {
	r := NewRegistry()

	r.Join("abc123", "conn-a", "Alice", true)
	r.Join("abc123", "conn-b", "Bob", false)

	snap, ok := r.Leave("abc123", "conn-a")
	if !ok {
		t.Fatal("Leave() should succeed for a member")
	}
	if snap.ParticipantCount != 1 {
		t.Errorf("Expected 1 participant after leave, got %d", snap.ParticipantCount)
	}
	if snap.InterviewerID != "" {
		t.Errorf("Role slot should be released, got %q", snap.InterviewerID)
	}

	snap, ok = r.Leave("abc123", "conn-b")
	if !ok {
		t.Fatal("Leave() should succeed for the last member")
	}
	if snap.ParticipantCount != 0 {
		t.Errorf("Expected empty room, got %d participants", snap.ParticipantCount)
	}

	if _, ok := r.SnapshotRoom("abc123"); ok {
		t.Error("Room should be deleted once the last participant leaves")
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Join("abc123", "conn-a", "Alice", true)
	if _, ok := r.Leave("abc123", "conn-a"); !ok {
		t.Fatal("First leave should succeed")
	}
	if _, ok := r.Leave("abc123", "conn-a"); ok {
		t.Error("Second leave for the same pair must be a no-op")
	}
	if _, ok := r.Leave("other", "conn-a"); ok {
		t.Error("Leave on an unknown room must be a no-op")
	}
}

func TestParticipantCountMatchesJoinsAndLeaves(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 5; i++ {
		r.Join("abc123", fmt.Sprintf("conn-%d", i), "User", false)
	}
	// Rejoin must not double count.
	_, snap := r.Join("abc123", "conn-0", "User", false)
	if snap.ParticipantCount != 5 {
		t.Errorf("Expected 5 participants after rejoin, got %d", snap.ParticipantCount)
	}

	for i := 0; i < 3; i++ {
		r.Leave("abc123", fmt.Sprintf("conn-%d", i))
	}
	snap, ok := r.SnapshotRoom("abc123")
	if !ok {
		t.Fatal("Room should still exist")
	}
	if snap.ParticipantCount != 2 {
		t.Errorf("Expected 2 participants, got %d", snap.ParticipantCount)
	}
}

func TestRoomsOf(t *testing.T) {
	r := NewRegistry()

	r.Join("room-1", "conn-a", "Alice", true)
	r.Join("room-2", "conn-a", "Alice", true)
	r.Join("room-2", "conn-b", "Bob", false)

	rooms := r.RoomsOf("conn-a")
	if len(rooms) != 2 {
		t.Fatalf("Expected conn-a in 2 rooms, got %v", rooms)
	}
	if got := r.RoomsOf("conn-b"); len(got) != 1 || got[0] != "room-2" {
		t.Errorf("Expected conn-b in room-2 only, got %v", got)
	}
	if got := r.RoomsOf("conn-c"); len(got) != 0 {
		t.Errorf("Expected no rooms for unknown connection, got %v", got)
	}
}

func TestActiveRoomsIsACopy(t *testing.T) {
	r := NewRegistry()

	r.Join("room-1", "conn-a", "Alice", true)
	rooms := r.ActiveRooms()
	if rooms["room-1"] != 1 {
		t.Fatalf("Expected count 1 for room-1, got %d", rooms["room-1"])
	}

	rooms["room-1"] = 99
	if again := r.ActiveRooms(); again["room-1"] != 1 {
		t.Error("Mutating the returned map must not affect the registry")
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	numConns := 100

	done := make(chan bool, numConns)
	for i := 0; i < numConns; i++ {
		go func(index int) {
			connID := fmt.Sprintf("conn-%d", index)
			r.Join("abc123", connID, "User", index == 0)
			if index%2 == 0 {
				r.Leave("abc123", connID)
			}
			done <- true
		}(i)
	}
	for i := 0; i < numConns; i++ {
		<-done
	}

	snap, ok := r.SnapshotRoom("abc123")
	if !ok {
		t.Fatal("Room should exist while odd-indexed connections remain")
	}
	if snap.ParticipantCount != numConns/2 {
		t.Errorf("Expected %d participants, got %d", numConns/2, snap.ParticipantCount)
	}
}
