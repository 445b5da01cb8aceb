package domain

import "time"

// Notification is an in-app notification row shown on a user's dashboard.
type Notification struct {
	ID          string
	Dataspace   string
	RecipientID string
	ActorID     string
	RequestID   string
	Verb        string
	Description string
	Unread      bool
	CreatedAt   time.Time
}
