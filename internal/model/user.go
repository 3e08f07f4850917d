package model

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type User struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"firstname"`
	LastName     string     `json:"lastname"`
	Email        string     `json:"email"`
	DOB          *time.Time `json:"dob"`
	Region       string     `json:"region"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DOBString formats the date of birth as YYYY-MM-DD, or "" when unknown.
func (u *User) DOBString() string {
	if u.DOB == nil {
		return ""
	}
	return u.DOB.Format(DateLayout)
}

// NewUser carries the fields collected at signup.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	DOB          *time.Time
	Region       string
	PasswordHash string
}

// Profile is the editable part of a user.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	DOB       *time.Time
	Region    string
}

// NormalizeEmail trims and lowercases an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
