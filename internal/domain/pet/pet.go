package pet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
)

const (
	StatusAvailable = "available"
	StatusPending   = "pending"
	StatusAdopted   = "adopted"
	StatusRemoved   = "removed"
)

var (
	SpeciesValues       = []string{"dog", "cat", "rabbit", "bird", "reptile", "other"}
	GenderValues        = []string{"male", "female", "unknown"}
	AgeUnitValues       = []string{"days", "months", "years"}
	SizeValues          = []string{"small", "medium", "large"}
	ActivityLevelValues = []string{"low", "medium", "high"}
	StatusValues        = []string{StatusAvailable, StatusPending, StatusAdopted, StatusRemoved}
)

// Age is a structured age: 6 months, 2 years, ...
type Age struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Location mirrors the GeoJSON-plus-address shape the clients send.
// Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	PostalCode  string    `json:"postalCode,omitempty"`
}

type Pet struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Name string    `gorm:"column:name;not null" json:"name"`

	Species string `gorm:"column:species;not null;index" json:"species"`
	Breed   string `gorm:"column:breed" json:"breed,omitempty"`
	Gender  string `gorm:"column:gender;not null;default:'unknown'" json:"gender"`

	Age      datatypes.JSON `gorm:"column:age;not null" json:"age"`
	Colors   datatypes.JSON `gorm:"column:colors" json:"color,omitempty"`
	Size     string         `gorm:"column:size" json:"size,omitempty"`
	Activity string         `gorm:"column:activity_level" json:"activityLevel,omitempty"`

	Description string `gorm:"column:description" json:"description,omitempty"`

	Sterilized   *bool  `gorm:"column:sterilized" json:"sterilized,omitempty"`
	Dewormed     *bool  `gorm:"column:dewormed" json:"dewormed,omitempty"`
	Vaccinated   *bool  `gorm:"column:vaccinated" json:"vaccinated,omitempty"`
	HasPassport  bool   `gorm:"column:has_passport;not null;default:false" json:"hasPassport"`
	SpecialNeeds bool   `gorm:"column:special_needs;not null;default:false" json:"specialNeeds"`
	HealthNotes  string `gorm:"column:health_notes" json:"healthNotes,omitempty"`

	Images datatypes.JSON `gorm:"column:images" json:"images,omitempty"`

	Status string `gorm:"column:status;not null;default:'available';index" json:"status"`

	// Location keeps the full client shape; City/Latitude/Longitude are
	// denormalized for filtering and nearby queries.
	Location  datatypes.JSON `gorm:"column:location" json:"location,omitempty"`
	City      string         `gorm:"column:city;index" json:"-"`
	Latitude  *float64       `gorm:"column:latitude" json:"-"`
	Longitude *float64       `gorm:"column:longitude" json:"-"`

	PostedByID *uuid.UUID       `gorm:"type:uuid;column:posted_by" json:"-"`
	PostedBy   *profile.Profile `gorm:"foreignKey:PostedByID" json:"postedBy,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Pet) TableName() string { return "pet" }

func (p *Pet) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func OneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
