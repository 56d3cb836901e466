package entity

import "time"

// UserAccount is one entry of the credentials file.
type UserAccount struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
}

// AuthSession is a logged-in browser session.
type AuthSession struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
