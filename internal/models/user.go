package models

import "time"

// Fixed byte lengths of the stored credential material.
const (
	PasswordHashLen = 64
	PasswordSaltLen = 128
)

// User is a directory record. Credential material never leaves the process:
// it is skipped by JSON and only exposed through UserView without it.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash []byte    `json:"-"` // don’t expose hash
	PasswordSalt []byte    `json:"-"` // don’t expose salt
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserView is the redacted read model returned on every read path.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View strips credential material from u.
func (u User) View() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Views redacts a slice of users, preserving order.
func Views(users []User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}

// UserPatch is a partial update. A nil field is absent; a present but blank
// field leaves the stored value unchanged.
type UserPatch struct {
	Username  *string
	FirstName *string
	LastName  *string
	Password  *string
}
