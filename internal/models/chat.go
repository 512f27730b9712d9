package models

import "time"

// ChatRoom is the conversation between a listing's owner and an adopter,
// tied 1:1 to an adoption request. The unique index on AdoptionRequestID is
// what makes concurrent get-or-create calls converge on a single room.
type ChatRoom struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	AdoptionRequestID uint             `gorm:"not null;uniqueIndex" json:"adoption_request_id"`
	AdoptionRequest   *AdoptionRequest `gorm:"foreignKey:AdoptionRequestID" json:"adoption_request,omitempty"`
	ListingID         uint             `gorm:"not null;index" json:"listing_id"`
	Listing           *AdoptionListing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	PetOwnerID        uint             `gorm:"not null;index" json:"pet_owner_id"`
	PetOwner          *User            `gorm:"foreignKey:PetOwnerID" json:"pet_owner,omitempty"`
	AdopterID         uint             `gorm:"not null;index" json:"adopter_id"`
	Adopter           *User            `gorm:"foreignKey:AdopterID" json:"adopter,omitempty"`

	LastMessage     string    `gorm:"type:text" json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsMember reports whether userID is a party to the room.
func (c *ChatRoom) IsMember(userID uint) bool {
	return c.PetOwnerID == userID || c.AdopterID == userID
}

// Message is a persisted chat message. CreatedAt together with ID defines
// the canonical order within a room.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatRoomID uint      `gorm:"not null;index" json:"chat_room_id"`
	ChatRoom   *ChatRoom `gorm:"foreignKey:ChatRoomID" json:"-"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
