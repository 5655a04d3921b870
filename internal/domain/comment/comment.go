package comment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
)

// Comment is a top-level comment on a pet listing, with threaded replies.
type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	PetID    uuid.UUID `gorm:"type:uuid;column:pet_id;not null;index" json:"pet"`
	AuthorID uuid.UUID `gorm:"type:uuid;column:author_id;not null;index" json:"-"`

	Author *profile.Profile `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Text string `gorm:"column:text;not null" json:"text"`

	Replies []Reply `gorm:"foreignKey:CommentID" json:"replies"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Comment) TableName() string { return "pet_comment" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Reply struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	CommentID uuid.UUID `gorm:"type:uuid;column:comment_id;not null;index" json:"-"`
	AuthorID  uuid.UUID `gorm:"type:uuid;column:author_id;not null" json:"-"`

	Author *profile.Profile `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Text      string    `gorm:"column:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Reply) TableName() string { return "pet_comment_reply" }

func (r *Reply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
