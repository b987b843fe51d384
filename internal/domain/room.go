package domain

import "time"

// Room represents an interview chat room. MemberIDs is the member set:
// the canonical user identifiers currently joined, each at most once.
type Room struct {
	ID          string     `json:"id"`
	OwnerID     UserID     `json:"owner_id"`
	Name        string     `json:"name"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	DurationMin int        `json:"duration_minutes,omitempty"`
	MemberIDs   []UserID   `json:"member_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasMember reports whether id is in the member set, by canonical equality.
func (r *Room) HasMember(id UserID) bool {
	for _, m := range r.MemberIDs {
		if m.Equal(id) {
			return true
		}
	}
	return false
}

// AddMember appends id to the member set. Returns false if already present.
func (r *Room) AddMember(id UserID) bool {
	if r.HasMember(id) {
		return false
	}
	r.MemberIDs = append(r.MemberIDs, UserID(id.Canonical()))
	return true
}

// RemoveMember removes id from the member set by canonical equality.
// Returns false if the id was not a member.
func (r *Room) RemoveMember(id UserID) bool {
	for i, m := range r.MemberIDs {
		if m.Equal(id) {
			r.MemberIDs = append(r.MemberIDs[:i], r.MemberIDs[i+1:]...)
			return true
		}
	}
	return false
}

// CreateRoomRequest represents a create room request.
type CreateRoomRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	DurationMin int        `json:"duration_minutes"`
}

// UpdateRoomRequest represents an update room request.
type UpdateRoomRequest struct {
	Name        *string    `json:"name"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	DurationMin *int       `json:"duration_minutes"`
}

// ListRoomsRequest represents a list rooms request.
type ListRoomsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	DurationMin int        `json:"duration_minutes,omitempty"`
	MemberIDs   []string   `json:"member_ids"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListRoomsResponse represents a paginated list response.
type ListRoomsResponse struct {
	Rooms      []RoomResponse `json:"rooms"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// ToResponse converts Room to RoomResponse.
func (r *Room) ToResponse() RoomResponse {
	members := make([]string, len(r.MemberIDs))
	for i, m := range r.MemberIDs {
		members[i] = m.String()
	}
	return RoomResponse{
		ID:          r.ID,
		OwnerID:     r.OwnerID.String(),
		Name:        r.Name,
		ScheduledAt: r.ScheduledAt,
		DurationMin: r.DurationMin,
		MemberIDs:   members,
		CreatedAt:   r.CreatedAt,
	}
}
