package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ze-tech/passbold/internal/apierrors"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/types"
)

func GetAccountSetting(
	ctx context.Context,
	userID uuid.UUID,
	property string,
) (*types.AccountSetting, error) {
	db := internalctx.GetDb(ctx)
	rows, err := db.Query(ctx,
		`SELECT s.id, s.user_account_id, s.property, s.value, s.created_at, s.updated_at
		FROM AccountSetting s
		WHERE s.user_account_id = @userId AND s.property = @property`,
		pgx.NamedArgs{
			"userId":   userID,
			"property": property,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query account setting: %w", err)
	}
	setting, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[types.AccountSetting])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to collect account setting: %w", err)
	}
	return setting, nil
}

func UpsertAccountSetting(
	ctx context.Context,
	userID uuid.UUID,
	property string,
	value json.RawMessage,
) error {
	db := internalctx.GetDb(ctx)
	_, err := db.Exec(ctx,
		`INSERT INTO AccountSetting (user_account_id, property, value)
		VALUES (@userId, @property, @value)
		ON CONFLICT (user_account_id, property) DO UPDATE
		SET value = @value, updated_at = now()`,
		pgx.NamedArgs{
			"userId":   userID,
			"property": property,
			"value":    value,
		},
	)
	if err != nil {
		if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %w", apierrors.ErrNotFound, err)
		}
		return fmt.Errorf("failed to upsert account setting: %w", err)
	}
	return nil
}

// GetMfaAccountState returns the decoded MFA account state for the user, or
// nil when the user never started an MFA setup.
func GetMfaAccountState(ctx context.Context, userID uuid.UUID) (*types.MfaAccountState, error) {
	setting, err := GetAccountSetting(ctx, userID, types.SettingsPropertyMFA)
	if errors.Is(err, apierrors.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var state types.MfaAccountState
	if err := json.Unmarshal(setting.Value, &state); err != nil {
		return nil, fmt.Errorf("failed to decode MFA account state: %w", err)
	}
	return &state, nil
}

func SaveMfaAccountState(ctx context.Context, userID uuid.UUID, state *types.MfaAccountState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode MFA account state: %w", err)
	}
	return UpsertAccountSetting(ctx, userID, types.SettingsPropertyMFA, value)
}

// DeleteStaleMfaAccountStates removes MFA account states in which no provider
// ever reached a verified timestamp and which have not been touched for
// maxAge. Any state with at least one verified provider is never touched.
func DeleteStaleMfaAccountStates(ctx context.Context, maxAge time.Duration) (int64, error) {
	db := internalctx.GetDb(ctx)
	result, err := db.Exec(ctx,
		`DELETE FROM AccountSetting s
		WHERE s.property = @property
		AND s.updated_at < now() - make_interval(secs => @maxAgeSeconds)
		AND (s.value #>> '{totp,verified}') IS NULL
		AND (s.value #>> '{yubikey,verified}') IS NULL
		AND (s.value #>> '{duo,verified}') IS NULL`,
		pgx.NamedArgs{
			"property":      types.SettingsPropertyMFA,
			"maxAgeSeconds": maxAge.Seconds(),
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale MFA account states: %w", err)
	}
	return result.RowsAffected(), nil
}
