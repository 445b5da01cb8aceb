package domain

import "time"

// RequestComment captures user-authored discussion on a request.
type RequestComment struct {
	ID        string
	RequestID string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}
