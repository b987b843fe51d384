package pubsub

import "fmt"

// Channel naming convention for room events.
const ChannelRoomEvents = "chat:room:%s:events"

// Event types published by the membership and relay workflows.
const (
	EventMemberJoined       = "member_joined"
	EventMemberLeft         = "member_left"
	EventMessageCreated     = "message_created"
	EventBotResponseCreated = "bot_response_created"
	EventRoomClosed         = "room_closed"
)

// RoomEventsChannel returns the channel name for a room's event stream.
func RoomEventsChannel(roomID string) string {
	return fmt.Sprintf(ChannelRoomEvents, roomID)
}

// RoomEventsPattern returns the subscription pattern covering every
// room's event stream.
func RoomEventsPattern() string {
	return fmt.Sprintf(ChannelRoomEvents, "*")
}

// MembershipPayload is published when a user joins or leaves a room.
type MembershipPayload struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	MemberCount int    `json:"member_count"`
}

// MessagePayload is published when a message or bot response is stored.
type MessagePayload struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Text      string `json:"text"`
	Bot       bool   `json:"bot"`
}

// RoomClosedPayload is published when a room is deleted.
type RoomClosedPayload struct {
	RoomID string `json:"room_id"`
}
