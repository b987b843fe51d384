package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/voxhire/interview-service/internal/domain"
)

// CassandraConfig holds configuration for the cassandra message backend.
type CassandraConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	Keyspace       string        `mapstructure:"keyspace"`
	Consistency    string        `mapstructure:"consistency"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// CassandraMessageRepository implements MessageRepository on Cassandra.
// Messages are written to messages_by_room (clustered by timeuuid for
// history pages) and messages_by_id (point lookups). Bot responses go to
// bot_responses_by_room. Inserts are independent appends; there are no
// cross-table transactions, matching the non-transactional relay design.
type CassandraMessageRepository struct {
	session *gocql.Session
}

// NewCassandraMessageRepository connects to the cluster.
func NewCassandraMessageRepository(cfg CassandraConfig) (*CassandraMessageRepository, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	switch cfg.Consistency {
	case "LOCAL_ONE":
		cluster.Consistency = gocql.LocalOne
	case "LOCAL_QUORUM":
		cluster.Consistency = gocql.LocalQuorum
	case "ONE":
		cluster.Consistency = gocql.One
	case "QUORUM":
		cluster.Consistency = gocql.Quorum
	default:
		cluster.Consistency = gocql.LocalOne
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &CassandraMessageRepository{session: session}, nil
}

// CreateMessage appends a new message.
func (r *CassandraMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	id := gocql.TimeUUID()
	msg.ID = id.String()
	msg.CreatedAt = id.Time()

	roomID := ""
	if msg.RoomID != nil {
		roomID = *msg.RoomID
	}

	if err := r.session.Query(
		`INSERT INTO messages_by_room (room_id, message_id, user_id, username, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		roomID, id, msg.UserID.String(), msg.Username, msg.Text, msg.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if err := r.session.Query(
		`INSERT INTO messages_by_id (message_id, room_id, user_id, username, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, roomID, msg.UserID.String(), msg.Username, msg.Text, msg.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to index message: %w", err)
	}

	return nil
}

// CreateBotResponse appends a new bot response.
func (r *CassandraMessageRepository) CreateBotResponse(ctx context.Context, reply *domain.BotResponse) error {
	id := gocql.TimeUUID()
	reply.ID = id.String()
	reply.CreatedAt = id.Time()

	roomID := ""
	if reply.RoomID != nil {
		roomID = *reply.RoomID
	}

	if err := r.session.Query(
		`INSERT INTO bot_responses_by_room (room_id, response_id, user_id, reply, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		roomID, id, reply.UserID.String(), reply.Reply, reply.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to insert bot response: %w", err)
	}

	return nil
}

// GetMessage retrieves a message by ID.
func (r *CassandraMessageRepository) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	var roomID string
	var userID string
	var createdAt time.Time

	err := r.session.Query(
		`SELECT message_id, room_id, user_id, username, text, created_at
		 FROM messages_by_id WHERE message_id = ?`, id,
	).WithContext(ctx).Scan(&msg.ID, &roomID, &userID, &msg.Username, &msg.Text, &createdAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	msg.UserID = domain.UserID(userID)
	msg.CreatedAt = createdAt
	if roomID != "" {
		msg.RoomID = &roomID
	}
	return &msg, nil
}

// ListByRoom returns a page of a room's messages. The cursor is the
// timeuuid of the last message of the previous page.
func (r *CassandraMessageRepository) ListByRoom(ctx context.Context, roomID string, cursor string, limit int, direction Direction) ([]domain.Message, string, bool, error) {
	if limit < 1 {
		limit = 50
	}
	if cursor != "" {
		if _, err := gocql.ParseUUID(cursor); err != nil {
			return nil, "", false, ErrInvalidCursor
		}
	}
	// Query limit + 1 to determine if there are more results
	queryLimit := limit + 1

	var query string
	var args []interface{}

	if direction == DirectionBackward {
		if cursor == "" {
			query = `SELECT message_id, user_id, username, text, created_at
					 FROM messages_by_room
					 WHERE room_id = ?
					 ORDER BY message_id DESC
					 LIMIT ?`
			args = []interface{}{roomID, queryLimit}
		} else {
			query = `SELECT message_id, user_id, username, text, created_at
					 FROM messages_by_room
					 WHERE room_id = ? AND message_id < ?
					 ORDER BY message_id DESC
					 LIMIT ?`
			args = []interface{}{roomID, cursor, queryLimit}
		}
	} else {
		if cursor == "" {
			query = `SELECT message_id, user_id, username, text, created_at
					 FROM messages_by_room
					 WHERE room_id = ?
					 ORDER BY message_id ASC
					 LIMIT ?`
			args = []interface{}{roomID, queryLimit}
		} else {
			query = `SELECT message_id, user_id, username, text, created_at
					 FROM messages_by_room
					 WHERE room_id = ? AND message_id > ?
					 ORDER BY message_id ASC
					 LIMIT ?`
			args = []interface{}{roomID, cursor, queryLimit}
		}
	}

	iter := r.session.Query(query, args...).WithContext(ctx).Iter()

	var messages []domain.Message
	var msg domain.Message
	var userID string
	var createdAt time.Time

	for iter.Scan(&msg.ID, &userID, &msg.Username, &msg.Text, &createdAt) {
		msg.UserID = domain.UserID(userID)
		msg.CreatedAt = createdAt
		rid := roomID
		msg.RoomID = &rid
		messages = append(messages, msg)
		msg = domain.Message{}
	}

	if err := iter.Close(); err != nil {
		return nil, "", false, fmt.Errorf("failed to iterate messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	var nextCursor string
	if len(messages) > 0 {
		nextCursor = messages[len(messages)-1].ID
	}

	return messages, nextCursor, hasMore, nil
}

// Close shuts down the session.
func (r *CassandraMessageRepository) Close() error {
	r.session.Close()
	return nil
}
