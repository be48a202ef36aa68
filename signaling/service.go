package signaling

import (
	"github.com/sirupsen/logrus"
)

// Outbound describes one event fan-out produced by a handler. ExcludeSender
// distinguishes the relay style (peers only, so a sender never hears its own
// offer back) from the self-inclusive presence style, where the joiner also
// receives the broadcast and can render the room state immediately.
type Outbound struct {
	RoomID        string
	Event         string
	Payload       any
	ExcludeSender bool
}

// Service translates inbound signaling events into registry mutations and
// outbound broadcasts. Handlers are pure with respect to the transport: they
// take the sender's connection id and the raw event payload and return the
// broadcasts to deliver, which keeps them unit-testable without a live
// socket. A malformed event is logged and dropped, never surfaced as an
// error, so one client cannot stall a room's relay.
type Service struct {
	registry *Registry
}

// NewService creates a signaling service backed by registry.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// Registry exposes the service's presence state for read-only consumers such
// as the interview status endpoint.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Join handles a join_room event. The room is created on first join. The
// joiner is included in the user_joined broadcast, and when the join brings
// the room from one to two participants a ready_to_connect event nominates
// the interviewer connection as the WebRTC offer initiator.
func (s *Service) Join(connID string, data any) []Outbound {
	p, err := parseJoin(data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"connection_id": connID,
			"error":         err,
		}).Warn("Dropping malformed join_room event")
		return nil
	}

	prev, snap := s.registry.Join(p.RoomID, connID, p.UserName, p.IsInterviewer)
	logrus.WithFields(logrus.Fields{
		"connection_id": connID,
		"room_id":       p.RoomID,
		"user_name":     p.UserName,
		"interviewer":   p.IsInterviewer,
		"participants":  snap.ParticipantCount,
	}).Info("Connection joined room")

	out := []Outbound{{
		RoomID: p.RoomID,
		Event:  EventUserJoined,
		Payload: map[string]any{
			"connectionId":     connID,
			"userName":         p.UserName,
			"isInterviewer":    p.IsInterviewer,
			"participantCount": snap.ParticipantCount,
		},
	}}

	if prev == 1 && snap.ParticipantCount == 2 {
		// Both seats are taken: tell the room to start negotiating. The
		// initiator is null when nobody claimed the interviewer role.
		var initiator any
		if snap.InterviewerID != "" {
			initiator = snap.InterviewerID
		}
		out = append(out, Outbound{
			RoomID:  p.RoomID,
			Event:   EventReadyToConnect,
			Payload: map[string]any{"initiator": initiator},
		})
	}
	return out
}

// Relay handles offer, answer and ice_candidate events by forwarding the
// opaque negotiation body to every other member of the room. The payload is
// never parsed beyond the room id; negotiation correctness belongs to the
// two peers.
func (s *Service) Relay(connID, event string, data any) []Outbound {
	p, err := parseRelay(event, data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"connection_id": connID,
			"event":         event,
			"error":         err,
		}).Warn("Dropping malformed relay event")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"connection_id": connID,
		"room_id":       p.RoomID,
		"event":         event,
	}).Debug("Relaying negotiation event")

	return []Outbound{{
		RoomID:        p.RoomID,
		Event:         event,
		Payload:       map[string]any{relayField[event]: p.Body},
		ExcludeSender: true,
	}}
}

// Disconnect removes the connection from every room it joined and notifies
// the survivors. Emptied rooms are discarded by the registry; no broadcast
// is produced for them.
func (s *Service) Disconnect(connID string) []Outbound {
	var out []Outbound
	for _, roomID := range s.registry.RoomsOf(connID) {
		snap, ok := s.registry.Leave(roomID, connID)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"connection_id": connID,
				"room_id":       roomID,
			}).Info("Connection already removed from room")
			continue
		}

		logrus.WithFields(logrus.Fields{
			"connection_id": connID,
			"room_id":       roomID,
			"participants":  snap.ParticipantCount,
		}).Info("Connection left room")

		if snap.ParticipantCount > 0 {
			out = append(out, Outbound{
				RoomID: roomID,
				Event:  EventUserDisconnected,
				Payload: map[string]any{
					"connectionId":     connID,
					"participantCount": snap.ParticipantCount,
				},
			})
		}
	}
	return out
}
