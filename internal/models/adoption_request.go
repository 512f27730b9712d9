package models

import "time"

// Adoption request status values. Approved/Rejected exist for manual
// moderation flows; the completion workflow only drives Pending -> Completed.
const (
	RequestPending   = "Pending"
	RequestApproved  = "Approved"
	RequestRejected  = "Rejected"
	RequestCompleted = "Completed"
)

// AdoptionRequest tracks one user's request to adopt a listed pet, from
// creation through dual confirmation to completion.
//
// AdoptionCompleted is only ever set together with CompletedAt and
// Status=Completed, and only when both confirmation flags are true. The
// transition is one-way.
type AdoptionRequest struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	ListingID   uint             `gorm:"not null;index" json:"listing_id"`
	Listing     *AdoptionListing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	PetOwnerID  uint             `gorm:"not null;index" json:"pet_owner_id"`
	PetOwner    *User            `gorm:"foreignKey:PetOwnerID" json:"pet_owner,omitempty"`
	RequesterID uint             `gorm:"not null;index" json:"requester_id"`
	Requester   *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`

	// Contact snapshot taken at request time.
	RequesterName  string `gorm:"not null" json:"requester_name"`
	RequesterEmail string `gorm:"not null" json:"requester_email"`
	RequesterPhone string `gorm:"not null" json:"requester_phone"`
	Message        string `gorm:"type:text;not null" json:"message"`

	Status             string     `gorm:"default:'Pending'" json:"status"`
	CompletedByOwner   bool       `gorm:"default:false" json:"completed_by_owner"`
	CompletedByAdopter bool       `gorm:"default:false" json:"completed_by_adopter"`
	AdoptionCompleted  bool       `gorm:"default:false" json:"adoption_completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	ChatRoomID *uint     `json:"chat_room_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsParty reports whether userID is the pet owner or the requester.
func (r *AdoptionRequest) IsParty(userID uint) bool {
	return r.PetOwnerID == userID || r.RequesterID == userID
}
