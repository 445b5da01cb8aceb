package dto

import "time"

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Dataspace string `json:"dataspace"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NotificationResponse is one in-app notification row.
type NotificationResponse struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	RequestID   string    `json:"request_id"`
	Verb        string    `json:"verb"`
	Description string    `json:"description"`
	Unread      bool      `json:"unread"`
	CreatedAt   time.Time `json:"created_at"`
}
