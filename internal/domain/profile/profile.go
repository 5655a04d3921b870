package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile is the platform user record. SupaID is the hosted identity
// provider's subject; the rest of the backend only ever uses the internal ID.
type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	SupaID string    `gorm:"column:supa_id;not null;uniqueIndex" json:"supaId"`
	Email  string    `gorm:"column:email;not null;uniqueIndex" json:"email"`

	Name      string `gorm:"column:name" json:"name"`
	AvatarURL string `gorm:"column:avatar_url" json:"avatarUrl"`
	Bio       string `gorm:"column:bio" json:"bio"`
	Phone     string `gorm:"column:phone" json:"phone"`

	Location       datatypes.JSON `gorm:"column:location" json:"location,omitempty"`
	PetPreferences datatypes.JSON `gorm:"column:pet_preferences" json:"petPreferences,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Profile) TableName() string { return "profile" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Peer is the projection of a profile shown in chat lists.
type Peer struct {
	ID        *uuid.UUID `json:"_id"`
	Name      string     `json:"name"`
	AvatarURL *string    `json:"avatarUrl"`
}
