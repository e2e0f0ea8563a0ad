package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storyfetch/internal/instagram"
	"storyfetch/internal/services"
	"storyfetch/internal/session"
)

// Client is the login surface the authenticator drives.
type Client interface {
	Login(ctx context.Context, username, password string) error
	Probe(ctx context.Context) error
	ExportSettings() session.Settings
	RestoreSettings(settings session.Settings)
}

// Store persists the session blob between runs.
type Store interface {
	Load() (session.Settings, bool, error)
	Save(settings session.Settings) error
	EnsureParentDir() error
}

// Credentials is the username/password pair for password logins.
type Credentials struct {
	Username string
	Password string
}

// Authenticator establishes an authenticated client, preferring the
// persisted session and falling back to a password login.
type Authenticator struct {
	client Client
	store  Store
	logger *slog.Logger
}

// New constructs an authenticator.
func New(client Client, store Store, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		client: client,
		store:  store,
		logger: logger.With("component", "auth"),
	}
}

// Authenticate walks the login state machine:
//
//	session file present -> restore, login, probe
//	probe rejects session -> reset state, keep device ids, login again
//	anything else fails  -> fresh password login, persist new session
//
// When every path is exhausted the returned error carries ErrAuth; an
// unauthenticated client is never handed to later stages.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) error {
	settings, exists, err := a.store.Load()
	if err != nil {
		// An unreadable blob is treated like a first run; the password
		// path below rewrites it wholesale.
		a.logger.Warn("discarding unreadable session file", "error", err)
		exists = false
	}
	if !exists {
		if err := a.store.EnsureParentDir(); err != nil {
			return services.Wrap(services.ErrAuth, "auth", "prepare session directory", err)
		}
	}

	if exists && settings.Authenticated() {
		if err := a.loginViaSession(ctx, settings, creds); err == nil {
			a.logger.Info("authenticated via session", "session_refresh", false)
			return nil
		} else {
			a.logger.Info("session login failed, falling back to password", "error", err)
		}
	}

	a.logger.Info("attempting password login", "username", creds.Username)
	if err := a.client.Login(ctx, creds.Username, creds.Password); err != nil {
		return services.Wrap(services.ErrAuth, "auth", "password login", err)
	}
	if err := a.store.Save(a.client.ExportSettings()); err != nil {
		return services.Wrap(services.ErrAuth, "auth", "persist session", err)
	}
	a.logger.Info("authenticated via password, session persisted")
	return nil
}

func (a *Authenticator) loginViaSession(ctx context.Context, settings session.Settings, creds Credentials) error {
	a.client.RestoreSettings(settings)

	if err := a.client.Login(ctx, creds.Username, creds.Password); err != nil {
		return fmt.Errorf("session login: %w", err)
	}

	err := a.client.Probe(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, instagram.ErrLoginRequired) {
		return fmt.Errorf("session probe: %w", err)
	}

	// Expired session: reset everything except the device identity so the
	// remote service keeps seeing the same device across the refresh.
	a.logger.Info("session rejected, retrying login with preserved device ids")
	expired := a.client.ExportSettings()
	a.client.RestoreSettings(session.Settings{UUIDs: expired.UUIDs})

	if err := a.client.Login(ctx, creds.Username, creds.Password); err != nil {
		return fmt.Errorf("refresh login: %w", err)
	}
	return nil
}
