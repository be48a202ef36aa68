package signaling

import "sync"

// Snapshot is a read-only view of one room's presence state, taken under the
// registry lock. InterviewerID and IntervieweeID are connection ids and are
// empty while the role slot is unclaimed.
type Snapshot struct {
	RoomID           string
	ParticipantCount int
	InterviewerID    string
	IntervieweeID    string
	Names            map[string]string
}

type room struct {
	participants  map[string]struct{}
	names         map[string]string
	interviewerID string
	intervieweeID string
}

func (rm *room) snapshot(roomID string) Snapshot {
	names := make(map[string]string, len(rm.names))
	for id, name := range rm.names {
		names[id] = name
	}
	return Snapshot{
		RoomID:           roomID,
		ParticipantCount: len(rm.participants),
		InterviewerID:    rm.interviewerID,
		IntervieweeID:    rm.intervieweeID,
		Names:            names,
	}
}

// Registry is the authoritative in-memory mapping from room id to the
// connections currently joined and their role assignment. Rooms are created
// lazily on first join and removed when the last participant leaves, so a
// room exists exactly while it has at least one participant.
//
// A single coarse lock is enough here: every operation is O(room size) and
// rooms hold two participants in practice.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join adds connID to the room, creating the room if absent. The first
// connection to claim a role keeps it; later claims for an occupied slot
// still join the participant set but do not displace the holder (two tabs
// joining as interviewer is allowed). It returns the participant count from
// before the join and a snapshot of the room after it.
func (r *Registry) Join(roomID, connID, name string, interviewer bool) (prev int, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{
			participants: make(map[string]struct{}),
			names:        make(map[string]string),
		}
		r.rooms[roomID] = rm
	}

	prev = len(rm.participants)
	rm.participants[connID] = struct{}{}
	rm.names[connID] = name

	if interviewer {
		if rm.interviewerID == "" {
			rm.interviewerID = connID
		}
	} else if rm.intervieweeID == "" {
		rm.intervieweeID = connID
	}

	return prev, rm.snapshot(roomID)
}

// Leave removes connID from the room, releasing any role slot it held, and
// deletes the room once it is empty. It reports false when the room or the
// membership does not exist, which makes repeated leaves harmless.
func (r *Registry) Leave(roomID, connID string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	if _, member := rm.participants[connID]; !member {
		return Snapshot{}, false
	}

	delete(rm.participants, connID)
	delete(rm.names, connID)
	if rm.interviewerID == connID {
		rm.interviewerID = ""
	}
	if rm.intervieweeID == connID {
		rm.intervieweeID = ""
	}

	snap := rm.snapshot(roomID)
	if snap.ParticipantCount == 0 {
		delete(r.rooms, roomID)
	}
	return snap, true
}

// SnapshotRoom returns the current state of a room, or false if the room has
// no participants.
func (r *Registry) SnapshotRoom(roomID string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	return rm.snapshot(roomID), true
}

// RoomsOf returns every room id connID currently belongs to. Used by the
// disconnect path to clean up all memberships of a dying connection.
func (r *Registry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var roomIDs []string
	for roomID, rm := range r.rooms {
		if _, member := rm.participants[connID]; member {
			roomIDs = append(roomIDs, roomID)
		}
	}
	return roomIDs
}

// ActiveRooms returns a copy of the room id to participant count mapping.
func (r *Registry) ActiveRooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[string]int, len(r.rooms))
	for roomID, rm := range r.rooms {
		rooms[roomID] = len(rm.participants)
	}
	return rooms
}
