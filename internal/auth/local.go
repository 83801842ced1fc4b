package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

// dummyHash is a valid bcrypt hash of a throwaway value, compared against
// when the username does not exist so lookups take the same time either way.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// LocalProvider authenticates against the users table. Passwords are stored
// as bcrypt hashes; comparison is constant time.
type LocalProvider struct {
	users  storage.UserRepository
	cost   int
	logger internal.Logger
}

func NewLocalProvider(users storage.UserRepository, bcryptCost int, logger internal.Logger) *LocalProvider {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &LocalProvider{users: users, cost: bcryptCost, logger: logger}
}

func (p *LocalProvider) Register(ctx context.Context, username, password, name, email string) (*internal.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", internal.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", internal.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &internal.User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         name,
		Email:        email,
		DateCreated:  time.Now(),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	p.logger.Infof("registered user %q (id=%d)", username, user.ID)
	return user, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*internal.User, error) {
	user, err := p.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		p.logger.Warnf("failed login for %q", username)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

var _ Provider = (*LocalProvider)(nil)
