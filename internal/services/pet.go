package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/pet"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

const defaultNearbyRadiusMeters = 5000

type CreatePetInput struct {
	Name         string        `json:"name"`
	Species      string        `json:"species"`
	Breed        string        `json:"breed"`
	Gender       string        `json:"gender"`
	Age          *pet.Age      `json:"age"`
	Color        []string      `json:"color"`
	Size         string        `json:"size"`
	Activity     string        `json:"activityLevel"`
	Description  string        `json:"description"`
	Sterilized   *bool         `json:"sterilized"`
	Dewormed     *bool         `json:"dewormed"`
	Vaccinated   *bool         `json:"vaccinated"`
	HasPassport  bool          `json:"hasPassport"`
	SpecialNeeds bool          `json:"specialNeeds"`
	HealthNotes  string        `json:"healthNotes"`
	Images       []string      `json:"images"`
	Status       string        `json:"status"`
	Location     *pet.Location `json:"location"`
	PostedBy     *uuid.UUID    `json:"postedBy"`
}

// NearbyPet is a pet plus its distance from the query point in meters.
type NearbyPet struct {
	*pet.Pet
	DistanceMeters float64 `json:"distanceMeters"`
}

type PetService interface {
	Create(ctx context.Context, in CreatePetInput) (*pet.Pet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error)
	List(ctx context.Context, filters repos.PetFilters) ([]*pet.Pet, error)
	ListPaginated(ctx context.Context, filters repos.PetFilters, page, limit int) ([]*pet.Pet, int64, error)
	// Nearby returns available pets within maxDistance meters of the point,
	// closest first.
	Nearby(ctx context.Context, lng, lat float64, maxDistance float64, page, limit int) ([]NearbyPet, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*pet.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type petService struct {
	db   *gorm.DB
	log  *logger.Logger
	pets repos.PetRepo
}

func NewPetService(db *gorm.DB, log *logger.Logger, pets repos.PetRepo) PetService {
	return &petService{
		db:   db,
		log:  log.With("service", "PetService"),
		pets: pets,
	}
}

func validateCreatePet(in CreatePetInput) error {
	if in.Name == "" || in.Species == "" || in.Age == nil {
		return fmt.Errorf("'name', 'species', and 'age' (with value and unit) are required fields")
	}
	if !pet.OneOf(in.Species, pet.SpeciesValues) {
		return fmt.Errorf("species must be one of: %v", pet.SpeciesValues)
	}
	if in.Gender != "" && !pet.OneOf(in.Gender, pet.GenderValues) {
		return fmt.Errorf("gender must be 'male', 'female', or 'unknown'")
	}
	if !pet.OneOf(in.Age.Unit, pet.AgeUnitValues) {
		return fmt.Errorf("age unit must be one of: %v", pet.AgeUnitValues)
	}
	if in.Size != "" && !pet.OneOf(in.Size, pet.SizeValues) {
		return fmt.Errorf("size must be 'small', 'medium', or 'large'")
	}
	if in.Activity != "" && !pet.OneOf(in.Activity, pet.ActivityLevelValues) {
		return fmt.Errorf("activity level must be 'low', 'medium', or 'high'")
	}
	if in.Status != "" && !pet.OneOf(in.Status, pet.StatusValues) {
		return fmt.Errorf("status must be one of: %v", pet.StatusValues)
	}
	if in.Location != nil && in.Location.Coordinates != nil && len(in.Location.Coordinates) != 2 {
		return fmt.Errorf("location.coordinates must be an array of two numbers [longitude, latitude]")
	}
	return nil
}

func (s *petService) Create(ctx context.Context, in CreatePetInput) (*pet.Pet, error) {
	if err := validateCreatePet(in); err != nil {
		return nil, apierr.BadRequest("invalid_pet", err)
	}

	ageRaw, err := json.Marshal(in.Age)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("encode age: %w", err))
	}

	p := &pet.Pet{
		Name:         in.Name,
		Species:      in.Species,
		Breed:        in.Breed,
		Gender:       in.Gender,
		Age:          datatypes.JSON(ageRaw),
		Size:         in.Size,
		Activity:     in.Activity,
		Description:  in.Description,
		Sterilized:   in.Sterilized,
		Dewormed:     in.Dewormed,
		Vaccinated:   in.Vaccinated,
		HasPassport:  in.HasPassport,
		SpecialNeeds: in.SpecialNeeds,
		HealthNotes:  in.HealthNotes,
		Status:       in.Status,
		PostedByID:   in.PostedBy,
	}
	if p.Gender == "" {
		p.Gender = "unknown"
	}
	if p.Status == "" {
		p.Status = pet.StatusAvailable
	}
	if len(in.Color) > 0 {
		raw, err := json.Marshal(in.Color)
		if err != nil {
			return nil, apierr.Internal(fmt.Errorf("encode colors: %w", err))
		}
		p.Colors = datatypes.JSON(raw)
	}
	if len(in.Images) > 0 {
		raw, err := json.Marshal(in.Images)
		if err != nil {
			return nil, apierr.Internal(fmt.Errorf("encode images: %w", err))
		}
		p.Images = datatypes.JSON(raw)
	}
	if in.Location != nil {
		raw, err := json.Marshal(in.Location)
		if err != nil {
			return nil, apierr.Internal(fmt.Errorf("encode location: %w", err))
		}
		p.Location = datatypes.JSON(raw)
		p.City = in.Location.City
		if len(in.Location.Coordinates) == 2 {
			lng, lat := in.Location.Coordinates[0], in.Location.Coordinates[1]
			p.Longitude = &lng
			p.Latitude = &lat
		}
	}

	if err := s.pets.Create(ctx, nil, p); err != nil {
		return nil, apierr.Store(fmt.Errorf("create pet: %w", err))
	}
	return p, nil
}

func (s *petService) GetByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error) {
	p, err := s.pets.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("load pet: %w", err))
	}
	if p == nil {
		return nil, apierr.NotFound(fmt.Errorf("pet %s not found", id))
	}
	return p, nil
}

func (s *petService) List(ctx context.Context, filters repos.PetFilters) ([]*pet.Pet, error) {
	pets, err := s.pets.List(ctx, nil, filters)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("list pets: %w", err))
	}
	return pets, nil
}

func (s *petService) ListPaginated(ctx context.Context, filters repos.PetFilters, page, limit int) ([]*pet.Pet, int64, error) {
	pets, total, err := s.pets.ListPaginated(ctx, nil, filters, page, limit)
	if err != nil {
		return nil, 0, apierr.Store(fmt.Errorf("list pets paginated: %w", err))
	}
	return pets, total, nil
}

// haversine returns the great-circle distance between two points in meters.
func haversine(lng1, lat1, lng2, lat2 float64) float64 {
	const earthRadius = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

func (s *petService) Nearby(ctx context.Context, lng, lat float64, maxDistance float64, page, limit int) ([]NearbyPet, int64, error) {
	if maxDistance <= 0 {
		maxDistance = defaultNearbyRadiusMeters
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	candidates, err := s.pets.ListAvailableWithCoords(ctx, nil)
	if err != nil {
		return nil, 0, apierr.Store(fmt.Errorf("list pets with coords: %w", err))
	}

	within := make([]NearbyPet, 0, len(candidates))
	for _, p := range candidates {
		d := haversine(lng, lat, *p.Longitude, *p.Latitude)
		if d <= maxDistance {
			within = append(within, NearbyPet{Pet: p, DistanceMeters: d})
		}
	}
	sort.Slice(within, func(i, j int) bool {
		return within[i].DistanceMeters < within[j].DistanceMeters
	})

	total := int64(len(within))
	start := (page - 1) * limit
	if start >= len(within) {
		return []NearbyPet{}, total, nil
	}
	end := start + limit
	if end > len(within) {
		end = len(within)
	}
	return within[start:end], total, nil
}

// petColumnByField maps client JSON field names onto columns. Unknown fields
// are rejected so a typo cannot silently drop an update.
var petColumnByField = map[string]string{
	"name":          "name",
	"species":       "species",
	"breed":         "breed",
	"gender":        "gender",
	"size":          "size",
	"activityLevel": "activity_level",
	"description":   "description",
	"sterilized":    "sterilized",
	"dewormed":      "dewormed",
	"vaccinated":    "vaccinated",
	"hasPassport":   "has_passport",
	"specialNeeds":  "special_needs",
	"healthNotes":   "health_notes",
	"status":        "status",
}

func normalizePetUpdate(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case "age", "color", "images":
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", k, err)
			}
			col := k
			if k == "color" {
				col = "colors"
			}
			out[col] = datatypes.JSON(raw)
		case "location":
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode location: %w", err)
			}
			out["location"] = datatypes.JSON(raw)
			var loc pet.Location
			if err := json.Unmarshal(raw, &loc); err == nil {
				out["city"] = loc.City
				if len(loc.Coordinates) == 2 {
					out["longitude"] = loc.Coordinates[0]
					out["latitude"] = loc.Coordinates[1]
				}
			}
		default:
			col, ok := petColumnByField[k]
			if !ok {
				return nil, fmt.Errorf("unknown field %q", k)
			}
			if str, isStr := v.(string); isStr {
				switch k {
				case "species":
					if !pet.OneOf(str, pet.SpeciesValues) {
						return nil, fmt.Errorf("species must be one of: %v", pet.SpeciesValues)
					}
				case "gender":
					if !pet.OneOf(str, pet.GenderValues) {
						return nil, fmt.Errorf("gender must be 'male', 'female', or 'unknown'")
					}
				case "status":
					if !pet.OneOf(str, pet.StatusValues) {
						return nil, fmt.Errorf("status must be one of: %v", pet.StatusValues)
					}
				}
			}
			out[col] = v
		}
	}
	return out, nil
}

func (s *petService) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*pet.Pet, error) {
	normalized, err := normalizePetUpdate(fields)
	if err != nil {
		return nil, apierr.BadRequest("invalid_pet", err)
	}
	p, err := s.pets.Update(ctx, nil, id, normalized)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("update pet: %w", err))
	}
	if p == nil {
		return nil, apierr.NotFound(fmt.Errorf("pet %s not found", id))
	}
	return p, nil
}

func (s *petService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.pets.Delete(ctx, nil, id)
	if err != nil {
		return apierr.Store(fmt.Errorf("delete pet: %w", err))
	}
	if !deleted {
		return apierr.NotFound(fmt.Errorf("pet %s not found", id))
	}
	return nil
}
