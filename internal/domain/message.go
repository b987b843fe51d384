package domain

import "time"

// Message represents a human message. Immutable once created. The room
// reference is optional and survives room deletion.
type Message struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	RoomID    *string   `json:"room_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BotResponse represents an automated reply. Immutable once created.
type BotResponse struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"user_id"`
	Reply     string    `json:"reply"`
	RoomID    *string   `json:"room_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PostMessageRequest represents a post message request.
type PostMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// PostBotResponseRequest represents a stored bot reply request.
type PostBotResponseRequest struct {
	Reply string `json:"reply" binding:"required"`
}

// ListMessagesRequest represents a message history request.
type ListMessagesRequest struct {
	Cursor    string `form:"cursor"`
	Limit     int    `form:"limit"`
	Direction string `form:"direction"`
}

// MessageHistoryResponse represents a page of room messages.
type MessageHistoryResponse struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor"`
	HasMore    bool      `json:"has_more"`
}

// RelayResponse represents the result of a relay operation: the stored
// user message and the generated bot reply.
type RelayResponse struct {
	Message     Message     `json:"message"`
	BotResponse BotResponse `json:"bot_response"`
}
