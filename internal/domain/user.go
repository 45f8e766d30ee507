package domain

import (
	"time"

	"github.com/lib/pq"
)

const (
	MaxBioLength       = 500
	MinAge             = 18
	MaxAge             = 100
	DefaultMinAgePref  = 18
	DefaultMaxAgePref  = 50
	DefaultDistanceKm  = 50
	ProfilePictureSize = 800
)

var GenderIdentities = []string{
	"Agender",
	"Bigender",
	"Female",
	"Gender Fluid",
	"Gender Non-conforming",
	"Gender Questioning",
	"Gender Variant",
	"Genderqueer",
	"Male",
	"Non-binary",
	"Pangender",
	"Trans Female",
	"Trans Male",
	"Trans Person",
	"Two-Spirit",
	"Other",
}

var SexualOrientations = []string{
	"Asexual",
	"Bisexual",
	"Demisexual",
	"Gay",
	"Lesbian",
	"Pansexual",
	"Queer",
	"Questioning",
	"Straight",
	"Other",
}

type User struct {
	ID                int            `json:"id" db:"id"`
	Email             string         `json:"email" db:"email"`
	PasswordHash      string         `json:"-" db:"password_hash"`
	Username          string         `json:"username" db:"username"`
	ProfilePicture    *string        `json:"profile_picture" db:"profile_picture"`
	Age               *int           `json:"age" db:"age"`
	GenderIdentity    *string        `json:"gender_identity" db:"gender_identity"`
	SexualOrientation *string        `json:"sexual_orientation" db:"sexual_orientation"`
	Bio               *string        `json:"bio" db:"bio"`
	LocationLat       *float64       `json:"location_lat" db:"location_lat"`
	LocationLng       *float64       `json:"location_lng" db:"location_lng"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	PrefMinAge        int            `json:"pref_min_age" db:"pref_min_age"`
	PrefMaxAge        int            `json:"pref_max_age" db:"pref_max_age"`
	PrefDistanceKm    int            `json:"pref_distance_km" db:"pref_distance_km"`
	MembershipTier    Tier           `json:"membership_tier" db:"membership_tier"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

func (u *User) HasLocation() bool {
	return u.LocationLat != nil && u.LocationLng != nil
}

// PublicProfile is what other users see in feeds and chats.
type PublicProfile struct {
	ID                int      `json:"id"`
	Username          string   `json:"username"`
	ProfilePicture    *string  `json:"profile_picture"`
	Age               *int     `json:"age"`
	GenderIdentity    *string  `json:"gender_identity"`
	SexualOrientation *string  `json:"sexual_orientation"`
	Bio               *string  `json:"bio"`
	Interests         []string `json:"interests"`
	DistanceKm        *float64 `json:"distance_km,omitempty"`
}

func (u *User) Public() *PublicProfile {
	interests := []string(u.Interests)
	if interests == nil {
		interests = []string{}
	}
	return &PublicProfile{
		ID:                u.ID,
		Username:          u.Username,
		ProfilePicture:    u.ProfilePicture,
		Age:               u.Age,
		GenderIdentity:    u.GenderIdentity,
		SexualOrientation: u.SexualOrientation,
		Bio:               u.Bio,
		Interests:         interests,
	}
}

func IsGenderIdentity(v string) bool {
	return contains(GenderIdentities, v)
}

func IsSexualOrientation(v string) bool {
	return contains(SexualOrientations, v)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
