package core

import (
	"context"
	"time"
)

type (
	// User is a platform account. Subject identifies the auth principal:
	// "password:<email>" for local accounts, or the provider-issued subject
	// for OAuth/OIDC sign-ins.
	User struct {
		ID           string    `json:"id"`
		Subject      string    `json:"subject"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		AvatarURL    string    `json:"avatarUrl,omitempty"`
		PasswordHash string    `json:"passwordHash,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// UserStore defines the persistence layer for accounts.
	UserStore interface {
		// CreateUser stores a new user and returns the assigned id.
		CreateUser(ctx context.Context, user *User) (string, error)

		// FindUserByEmail returns the user registered under email.
		FindUserByEmail(ctx context.Context, email string) (*User, error)

		// FindUserBySubject returns the user for an auth subject.
		FindUserBySubject(ctx context.Context, subject string) (*User, error)
	}
)
