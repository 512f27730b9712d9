package models

import "time"

// Pet is a health-tracker record owned by a user. One is created for the
// adopter when an adoption completes, copying descriptive fields from the
// listing.
type Pet struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Name        string     `gorm:"not null" json:"name"`
	Breed       string     `json:"breed"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Weight      float64    `json:"weight"`
	ImageURL    string     `json:"image_url"`
	Age         int        `json:"age"`
	Species     string     `json:"species"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HealthRecord is a single vaccination/checkup/treatment entry. A record is
// attached either to a listing (pre-adoption history) or to a Pet
// (post-adoption tracker); at transfer time listing records are copied, not
// moved, onto the adopter's new Pet.
type HealthRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	PetID        *uint      `gorm:"index" json:"pet_id,omitempty"`
	ListingID    *uint      `gorm:"index" json:"listing_id,omitempty"`
	RecordType   string     `gorm:"not null" json:"record_type"`
	Date         time.Time  `gorm:"not null" json:"date"`
	Veterinarian string     `json:"veterinarian"`
	NextDueDate  *time.Time `json:"next_due_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
