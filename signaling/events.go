package signaling

import "fmt"

// Inbound event names recognized by the service.
const (
	EventJoinRoom     = "join_room"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice_candidate"
)

// Outbound event names. The relay events offer/answer/ice_candidate go out
// under their inbound names.
const (
	EventUserJoined       = "user_joined"
	EventReadyToConnect   = "ready_to_connect"
	EventUserDisconnected = "user_disconnected"
)

// relayField maps a relay event to the payload field carrying its body. The
// body is an opaque SDP or ICE object and is forwarded without inspection.
var relayField = map[string]string{
	EventOffer:        "offer",
	EventAnswer:       "answer",
	EventICECandidate: "candidate",
}

type (
	// JoinPayload is the decoded join_room event.
	JoinPayload struct {
		RoomID        string
		UserName      string
		IsInterviewer bool
	}

	// RelayPayload is the decoded form of any of the relay events.
	RelayPayload struct {
		RoomID string
		Body   any
	}
)

func asFields(data any) (map[string]any, error) {
	fields, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload must be an object, got %T", data)
	}
	return fields, nil
}

func parseJoin(data any) (JoinPayload, error) {
	fields, err := asFields(data)
	if err != nil {
		return JoinPayload{}, err
	}

	roomID, _ := fields["roomId"].(string)
	if roomID == "" {
		return JoinPayload{}, fmt.Errorf("roomId is required")
	}

	userName, _ := fields["userName"].(string)
	isInterviewer, _ := fields["isInterviewer"].(bool)
	return JoinPayload{
		RoomID:        roomID,
		UserName:      userName,
		IsInterviewer: isInterviewer,
	}, nil
}

func parseRelay(event string, data any) (RelayPayload, error) {
	fields, err := asFields(data)
	if err != nil {
		return RelayPayload{}, err
	}

	roomID, _ := fields["roomId"].(string)
	if roomID == "" {
		return RelayPayload{}, fmt.Errorf("roomId is required")
	}

	field, ok := relayField[event]
	if !ok {
		return RelayPayload{}, fmt.Errorf("unknown relay event %q", event)
	}
	return RelayPayload{RoomID: roomID, Body: fields[field]}, nil
}
