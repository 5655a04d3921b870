package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

// ChatSummaryRow is one row of the chat-list aggregate: the caller's chat
// joined with the peer profile, last-message preview and unread count in a
// single pass.
type ChatSummaryRow struct {
	ChatID        uuid.UUID `gorm:"column:chat_id"`
	PetID         uuid.UUID `gorm:"column:pet_id"`
	LastMessageAt time.Time `gorm:"column:last_message_at"`
	UnreadCount   int64     `gorm:"column:unread_count"`

	PeerID        uuid.UUID `gorm:"column:peer_id"`
	PeerName      string    `gorm:"column:peer_name"`
	PeerEmail     string    `gorm:"column:peer_email"`
	PeerAvatarURL string    `gorm:"column:peer_avatar_url"`

	LastMessageID        uuid.UUID      `gorm:"column:lm_id"`
	LastMessageType      string         `gorm:"column:lm_type"`
	LastMessageRole      string         `gorm:"column:lm_role"`
	LastMessageContent   datatypes.JSON `gorm:"column:lm_content"`
	LastMessageCreatedAt time.Time      `gorm:"column:lm_created_at"`
	LastMessageSenderID  uuid.UUID      `gorm:"column:lm_sender_id"`
}

type ChatRepo interface {
	// EnsureByKey atomically inserts the chat if no row with its ChatKey
	// exists, otherwise loads the existing row into c. Returns whether the
	// row was inserted by this call.
	EnsureByKey(ctx context.Context, tx *gorm.DB, c *chat.Chat) (bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*chat.Chat, error)
	UpdateLastMessage(ctx context.Context, tx *gorm.DB, chatID, messageID uuid.UUID, at time.Time) error
	ListSummariesForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]ChatSummaryRow, error)
	// FindByExactParticipants is the aggregate-match fallback for rows that
	// predate the canonical key. Never used for creation.
	FindByExactParticipants(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, petID *uuid.UUID) (*chat.Chat, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: baseLog.With("repo", "ChatRepo")}
}

func (r *chatRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chatRepo) EnsureByKey(ctx context.Context, tx *gorm.DB, c *chat.Chat) (bool, error) {
	conn := r.conn(tx).WithContext(ctx)

	res := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_key"}},
		DoNothing: true,
	}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	// Lost the race (or the chat already existed): load the winner. The
	// reload needs a fresh dest, the primary key the create hook assigned
	// to c would otherwise leak into the query conditions.
	var existing chat.Chat
	if err := conn.Where("chat_key = ?", c.ChatKey).First(&existing).Error; err != nil {
		return false, err
	}
	*c = existing
	return false, nil
}

func (r *chatRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*chat.Chat, error) {
	var c chat.Chat
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chatRepo) UpdateLastMessage(ctx context.Context, tx *gorm.DB, chatID, messageID uuid.UUID, at time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&chat.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]any{
			"last_message_at": at,
			"last_message_id": messageID,
		}).Error
}

// ListSummariesForUser produces exactly one row per chat the user is in.
// Group chats surface their earliest-joined peer rather than fanning out.
func (r *chatRepo) ListSummariesForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]ChatSummaryRow, error) {
	var rows []ChatSummaryRow
	err := r.conn(tx).WithContext(ctx).Raw(`
		SELECT
			c.id              AS chat_id,
			c.pet_id          AS pet_id,
			c.last_message_at AS last_message_at,
			peer.user_id      AS peer_id,
			pr.name           AS peer_name,
			pr.email          AS peer_email,
			pr.avatar_url     AS peer_avatar_url,
			m.id              AS lm_id,
			m.type            AS lm_type,
			m.role            AS lm_role,
			m.content         AS lm_content,
			m.created_at      AS lm_created_at,
			m.sender_id       AS lm_sender_id,
			(SELECT COUNT(*) FROM chat_message cm
			  WHERE cm.chat_id = c.id AND cm.created_at > me.last_read_at) AS unread_count
		FROM chat_participant me
		JOIN chat c ON c.id = me.chat_id
		LEFT JOIN chat_participant peer
		  ON peer.chat_id = c.id
		 AND peer.user_id = (
			SELECT p2.user_id FROM chat_participant p2
			 WHERE p2.chat_id = c.id AND p2.user_id <> me.user_id
			 ORDER BY p2.joined_at, p2.user_id
			 LIMIT 1)
		LEFT JOIN profile pr ON pr.id = peer.user_id
		LEFT JOIN chat_message m ON m.id = c.last_message_id
		WHERE me.user_id = ?
		ORDER BY c.last_message_at DESC, c.id DESC
	`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatRepo) FindByExactParticipants(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, petID *uuid.UUID) (*chat.Chat, error) {
	if len(userIDs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	conn := r.conn(tx).WithContext(ctx)

	var chatIDs []uuid.UUID
	q := conn.Model(&chat.Participant{}).
		Select("chat_id").
		Group("chat_id").
		Having("COUNT(DISTINCT user_id) = ?", len(userIDs)).
		Having("SUM(CASE WHEN user_id IN ? THEN 0 ELSE 1 END) = 0", userIDs)
	if err := q.Find(&chatIDs).Error; err != nil {
		return nil, err
	}

	for _, id := range chatIDs {
		var c chat.Chat
		query := conn.Where("id = ?", id)
		if petID == nil {
			query = query.Where("pet_id IS NULL")
		} else {
			query = query.Where("pet_id = ?", *petID)
		}
		if err := query.First(&c).Error; err == nil {
			return &c, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, gorm.ErrRecordNotFound
}
