package models

import "time"

// IssuedToken is a signed bearer token and the instant it stops being valid.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires"`
}
