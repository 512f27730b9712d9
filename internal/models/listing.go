package models

import "time"

// Listing status values.
const (
	ListingAvailable = "Available"
	ListingPending   = "Pending"
	ListingAdopted   = "Adopted"
)

// AdoptionListing is a pet posted for adoption. Distinct from Pet, which is a
// post-adoption health-tracking record.
type AdoptionListing struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PetName     string     `gorm:"not null" json:"pet_name"`
	Species     string     `gorm:"not null" json:"species"`
	Breed       string     `json:"breed"`
	Age         int        `json:"age"`
	Gender      string     `json:"gender"`
	Description string     `gorm:"type:text" json:"description"`
	City        string     `gorm:"not null" json:"city"`
	State       string     `gorm:"not null" json:"state"`
	PhotoURL    string     `json:"photo_url"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Weight      float64    `json:"weight"`

	// Contact snapshot supplied by the donator at listing time.
	DonatorName  string `gorm:"not null" json:"donator_name"`
	DonatorEmail string `gorm:"not null" json:"donator_email"`
	DonatorPhone string `gorm:"not null" json:"donator_phone"`

	Status    string    `gorm:"default:'Available';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
