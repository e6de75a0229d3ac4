// Package services contains the application services of the FieldOps client:
// authentication against the backend and the local-mutation surface for
// field-captured data.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkravets/fieldops/internal/client/api"
	"github.com/mkravets/fieldops/internal/client/repositories/state"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/cryptox"
	"github.com/mkravets/fieldops/internal/dbx"
)

// ErrLocalDataNotAvailable means no cached credentials exist on this device,
// so offline login cannot be attempted.
var ErrLocalDataNotAvailable = errors.New("local auth data unavailable")

// AuthService authenticates a worker by badge number and PIN. Online login
// caches salt and verifier locally so the worker can still open the app in
// the field without coverage.
type AuthService interface {
	OnlineLogin(ctx context.Context, badge string, pin []byte) error
	OfflineLogin(ctx context.Context, badge string, pin []byte) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ClearOfflineData(ctx context.Context) error
}

type authService struct {
	client api.Client
	db     *sql.DB
}

func NewAuthService(client api.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getStateRepo() state.Repository {
	return state.NewSQLiteRepository(a.db)
}

// OnlineLogin authenticates against the backend and caches badge, salt and
// verifier for offline use.
func (a *authService) OnlineLogin(ctx context.Context, badge string, pin []byte) error {
	salt, err := a.client.GetSalt(ctx, badge)
	if err != nil {
		return fmt.Errorf("get salt error: %w", err)
	}

	key := cryptox.DeriveCredentialKey(pin, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	if err := a.client.Login(ctx, badge, verifier); err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	if err := a.saveOfflineData(ctx, badge, salt, verifier); err != nil {
		return fmt.Errorf("offline data saving error: %w", err)
	}
	return nil
}

// OfflineLogin verifies the PIN against the locally cached verifier.
func (a *authService) OfflineLogin(ctx context.Context, badge string, pin []byte) error {
	repo := a.getStateRepo()

	savedBadge, err := repo.Get(ctx, state.KeyBadgeNumber)
	if err != nil {
		return err
	}
	if savedBadge == nil {
		return ErrLocalDataNotAvailable
	}
	if string(savedBadge) != badge {
		return common.ErrorUnauthorized
	}

	savedSalt, err := repo.Get(ctx, state.KeySalt)
	if err != nil {
		return err
	}
	savedVerifier, err := repo.Get(ctx, state.KeyVerifier)
	if err != nil {
		return err
	}
	if savedSalt == nil || savedVerifier == nil {
		return ErrLocalDataNotAvailable
	}

	key := cryptox.DeriveCredentialKey(pin, savedSalt)
	defer common.WipeByteArray(key)
	candidate := cryptox.MakeVerifier(key)

	if subtle.ConstantTimeCompare(savedVerifier, candidate) == 0 {
		return common.ErrorUnauthorized
	}
	return nil
}

func (a *authService) saveOfflineData(ctx context.Context, badge string, salt, verifier []byte) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := state.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, state.KeyBadgeNumber, []byte(badge)); err != nil {
			return err
		}
		if err := repo.Set(ctx, state.KeySalt, salt); err != nil {
			return err
		}
		return repo.Set(ctx, state.KeyVerifier, verifier)
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// ClearOfflineData wipes cached credentials, e.g. on logout.
func (a *authService) ClearOfflineData(ctx context.Context) error {
	repo := a.getStateRepo()
	for _, key := range []string{state.KeyBadgeNumber, state.KeySalt, state.KeyVerifier,
		state.KeyAccessToken, state.KeyRefreshToken} {
		if err := repo.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDeviceID returns the stable identifier of this installation,
// generating and persisting one on first use.
func EnsureDeviceID(ctx context.Context, repo state.Repository) (string, error) {
	saved, err := repo.Get(ctx, state.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if saved != nil {
		return string(saved), nil
	}

	id := uuid.NewString()
	if err := repo.Set(ctx, state.KeyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}
