package api

import (
	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/auth"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Users() storage.UserRepository
	Sessions() storage.SessionRepository
	Auth() auth.Provider
	JWTSecret() string
	TokenTTLHours() int
}

type app struct {
	logger    internal.Logger
	store     storage.Storage
	provider  auth.Provider
	jwtSecret string
	tokenTTL  int
}

func NewApp(logger internal.Logger, store storage.Storage, provider auth.Provider, jwtSecret string, tokenTTLHours int) App {
	return &app{
		logger:    logger,
		store:     store,
		provider:  provider,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTLHours,
	}
}

func (a *app) Logger() internal.Logger             { return a.logger }
func (a *app) Users() storage.UserRepository       { return a.store }
func (a *app) Sessions() storage.SessionRepository { return a.store }
func (a *app) Auth() auth.Provider                 { return a.provider }
func (a *app) JWTSecret() string                   { return a.jwtSecret }
func (a *app) TokenTTLHours() int                  { return a.tokenTTL }
