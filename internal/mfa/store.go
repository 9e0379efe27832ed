package mfa

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/ze-tech/passbold/internal/db"
	"github.com/ze-tech/passbold/internal/types"
)

// SettingsStore is the external organization settings store, keyed by
// organization. Get fails with apierrors.ErrNotFound when no value is stored.
// Save replaces the whole value atomically.
type SettingsStore interface {
	Get(ctx context.Context, orgID uuid.UUID) (json.RawMessage, error)
	Save(ctx context.Context, orgID uuid.UUID, value json.RawMessage, actorID uuid.UUID) error
}

// AccountStateStore is the external per-user account state store. Get returns
// nil when the user never started an MFA setup.
type AccountStateStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.MfaAccountState, error)
	Save(ctx context.Context, userID uuid.UUID, state *types.MfaAccountState) error
}

type RecoveryCodeStore interface {
	Unused(ctx context.Context, userID uuid.UUID) ([]types.MfaRecoveryCode, error)
	MarkUsed(ctx context.Context, codeID uuid.UUID) error
	Replace(ctx context.Context, userID uuid.UUID, codes []types.MfaRecoveryCode) error
}

// Database-backed store implementations.

type PgSettingsStore struct{}

func (PgSettingsStore) Get(ctx context.Context, orgID uuid.UUID) (json.RawMessage, error) {
	setting, err := db.GetOrganizationSetting(ctx, orgID, types.SettingsPropertyMFA)
	if err != nil {
		return nil, err
	}
	return setting.Value, nil
}

func (PgSettingsStore) Save(ctx context.Context, orgID uuid.UUID, value json.RawMessage, actorID uuid.UUID) error {
	return db.UpsertOrganizationSetting(ctx, orgID, types.SettingsPropertyMFA, value, actorID)
}

type PgAccountStateStore struct{}

func (PgAccountStateStore) Get(ctx context.Context, userID uuid.UUID) (*types.MfaAccountState, error) {
	return db.GetMfaAccountState(ctx, userID)
}

func (PgAccountStateStore) Save(ctx context.Context, userID uuid.UUID, state *types.MfaAccountState) error {
	return db.SaveMfaAccountState(ctx, userID, state)
}

type PgRecoveryCodeStore struct{}

func (PgRecoveryCodeStore) Unused(ctx context.Context, userID uuid.UUID) ([]types.MfaRecoveryCode, error) {
	return db.GetUnusedMfaRecoveryCodes(ctx, userID)
}

func (PgRecoveryCodeStore) MarkUsed(ctx context.Context, codeID uuid.UUID) error {
	return db.MarkMfaRecoveryCodeAsUsed(ctx, codeID)
}

func (PgRecoveryCodeStore) Replace(ctx context.Context, userID uuid.UUID, codes []types.MfaRecoveryCode) error {
	return db.RunTx(ctx, func(ctx context.Context) error {
		if err := db.DeleteAllMfaRecoveryCodes(ctx, userID); err != nil {
			return err
		}
		return db.CreateMfaRecoveryCodes(ctx, userID, codes)
	})
}
