package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserCredential is an entry of the credential set.
type UserCredential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	FullName     string    `json:"fullName"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// User is the public profile of a credential; it never carries the hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c UserCredential) Profile() User {
	return User{
		ID:        c.ID,
		Email:     c.Email,
		FullName:  c.FullName,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
	}
}
