// Package models contains data structures for the application's domain models.
package models

import "time"

// User is the identity surface referenced by listings, requests and chats.
// Account creation and credential handling live in a separate auth service;
// this backend only ever resolves a bearer token to a user ID.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
