package auth

import (
	"context"
	"errors"

	"github.com/Mazussy/Sleep-Tracker/internal"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords so
// the two cases are indistinguishable to a caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Provider interface {
	Register(ctx context.Context, username, password, name, email string) (*internal.User, error)
	Authenticate(ctx context.Context, username, password string) (*internal.User, error)
}
