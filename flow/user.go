package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chinmay1088/dhub/api"
)

// ErrNoUserKey is returned when no key is given and no client key is known.
var ErrNoUserKey = errors.New("No client or user key available")

// UserBackend fetches user records.
type UserBackend interface {
	UserInfo(ctx context.Context, key string) (*api.User, error)
}

// UserInfo looks a user up by key, falling back to the client's own key.
type UserInfo struct {
	guard
	backend  UserBackend
	fallback string
}

// NewUserInfo returns a lookup flow. fallback is the key used when none is
// given, usually the signed-in address.
func NewUserInfo(backend UserBackend, fallback string) *UserInfo {
	return &UserInfo{backend: backend, fallback: fallback}
}

// Run fetches the user for key.
func (u *UserInfo) Run(ctx context.Context, key string) (*api.User, error) {
	if err := u.acquire(); err != nil {
		return nil, err
	}
	defer u.release()

	key = strings.TrimSpace(key)
	if key == "" {
		key = u.fallback
	}
	if key == "" {
		return nil, ErrNoUserKey
	}
	user, err := u.backend.UserInfo(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}
