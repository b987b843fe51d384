package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/voxhire/interview-service/pkg/database"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string               `gorm:"type:varchar(36);primaryKey"`
	Email        string               `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	DisplayName  string               `gorm:"type:varchar(100)"`
	PasswordHash string               `gorm:"type:varchar(255);not null"`
	Roles        database.StringArray `gorm:"type:text"`
	CreatedAt    time.Time            `gorm:"autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt       `gorm:"index"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           UserID(m.ID),
		Email:        m.Email,
		Username:     m.Username,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		Roles:        []string(m.Roles),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID.String(),
		Email:        u.Email,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Roles:        database.StringArray(u.Roles),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// RoomModel is the GORM model for the chat_rooms table. Member IDs are
// serialized with database.StringArray; the column is never NULL so the
// repository's compare-and-swap on it always matches.
type RoomModel struct {
	ID          string               `gorm:"type:varchar(36);primaryKey"`
	OwnerID     string               `gorm:"type:varchar(36);index;not null"`
	Name        string               `gorm:"type:varchar(200);not null"`
	ScheduledAt *time.Time           `gorm:""`
	DurationMin int                  `gorm:"default:0"`
	MemberIDs   database.StringArray `gorm:"type:text;not null"`
	CreatedAt   time.Time            `gorm:"autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt       `gorm:"index"`
}

// TableName specifies the table name for RoomModel.
func (RoomModel) TableName() string {
	return "chat_rooms"
}

// ToDomain converts RoomModel to domain Room.
func (m *RoomModel) ToDomain() *Room {
	members := make([]UserID, len(m.MemberIDs))
	for i, id := range m.MemberIDs {
		members[i] = UserID(id)
	}
	return &Room{
		ID:          m.ID,
		OwnerID:     UserID(m.OwnerID),
		Name:        m.Name,
		ScheduledAt: m.ScheduledAt,
		DurationMin: m.DurationMin,
		MemberIDs:   members,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// RoomToModel converts domain Room to RoomModel.
func RoomToModel(r *Room) *RoomModel {
	members := make(database.StringArray, len(r.MemberIDs))
	for i, id := range r.MemberIDs {
		members[i] = id.String()
	}
	return &RoomModel{
		ID:          r.ID,
		OwnerID:     r.OwnerID.String(),
		Name:        r.Name,
		ScheduledAt: r.ScheduledAt,
		DurationMin: r.DurationMin,
		MemberIDs:   members,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	Username  string    `gorm:"type:varchar(50)"`
	Text      string    `gorm:"type:text;not null"`
	RoomID    *string   `gorm:"type:varchar(36);index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:        m.ID,
		UserID:    UserID(m.UserID),
		Username:  m.Username,
		Text:      m.Text,
		RoomID:    m.RoomID,
		CreatedAt: m.CreatedAt,
	}
}

// MessageToModel converts domain Message to MessageModel.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:        msg.ID,
		UserID:    msg.UserID.String(),
		Username:  msg.Username,
		Text:      msg.Text,
		RoomID:    msg.RoomID,
		CreatedAt: msg.CreatedAt,
	}
}

// BotResponseModel is the GORM model for the bot_responses table.
type BotResponseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	Reply     string    `gorm:"type:text;not null"`
	RoomID    *string   `gorm:"type:varchar(36);index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for BotResponseModel.
func (BotResponseModel) TableName() string {
	return "bot_responses"
}

// ToDomain converts BotResponseModel to domain BotResponse.
func (m *BotResponseModel) ToDomain() *BotResponse {
	return &BotResponse{
		ID:        m.ID,
		UserID:    UserID(m.UserID),
		Reply:     m.Reply,
		RoomID:    m.RoomID,
		CreatedAt: m.CreatedAt,
	}
}

// BotResponseToModel converts domain BotResponse to BotResponseModel.
func BotResponseToModel(b *BotResponse) *BotResponseModel {
	return &BotResponseModel{
		ID:        b.ID,
		UserID:    b.UserID.String(),
		Reply:     b.Reply,
		RoomID:    b.RoomID,
		CreatedAt: b.CreatedAt,
	}
}
