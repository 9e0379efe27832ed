package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ze-tech/passbold/internal/apierrors"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/types"
)

func CreateMfaRecoveryCodes(ctx context.Context, userID uuid.UUID, codes []types.MfaRecoveryCode) error {
	db := internalctx.GetDb(ctx)
	for _, code := range codes {
		_, err := db.Exec(ctx,
			`INSERT INTO MfaRecoveryCode (user_account_id, code_hash, code_salt)
			VALUES (@userId, @codeHash, @codeSalt)`,
			pgx.NamedArgs{
				"userId":   userID,
				"codeHash": code.CodeHash,
				"codeSalt": code.CodeSalt,
			},
		)
		if err != nil {
			if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return fmt.Errorf("%w: %w", apierrors.ErrNotFound, err)
			}
			return fmt.Errorf("failed to insert recovery code: %w", err)
		}
	}
	return nil
}

func GetUnusedMfaRecoveryCodes(ctx context.Context, userID uuid.UUID) ([]types.MfaRecoveryCode, error) {
	db := internalctx.GetDb(ctx)
	rows, err := db.Query(ctx,
		`SELECT id, created_at, user_account_id, code_hash, code_salt, used_at
		FROM MfaRecoveryCode
		WHERE user_account_id = @userId AND used_at IS NULL
		ORDER BY created_at`,
		pgx.NamedArgs{
			"userId": userID,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recovery codes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[types.MfaRecoveryCode])
	if err != nil {
		return nil, fmt.Errorf("failed to collect recovery codes: %w", err)
	}
	return codes, nil
}

func CountUnusedMfaRecoveryCodes(ctx context.Context, userID uuid.UUID) (int, error) {
	db := internalctx.GetDb(ctx)
	var count int
	err := db.QueryRow(ctx,
		`SELECT count(*) FROM MfaRecoveryCode
		WHERE user_account_id = @userId AND used_at IS NULL`,
		pgx.NamedArgs{
			"userId": userID,
		},
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recovery codes: %w", err)
	}
	return count, nil
}

func MarkMfaRecoveryCodeAsUsed(ctx context.Context, codeID uuid.UUID) error {
	db := internalctx.GetDb(ctx)
	cmd, err := db.Exec(ctx,
		`UPDATE MfaRecoveryCode SET used_at = now()
		WHERE id = @id AND used_at IS NULL`,
		pgx.NamedArgs{
			"id": codeID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to mark recovery code as used: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("recovery code not found or already used")
	}
	return nil
}

func DeleteAllMfaRecoveryCodes(ctx context.Context, userID uuid.UUID) error {
	db := internalctx.GetDb(ctx)
	_, err := db.Exec(ctx,
		`DELETE FROM MfaRecoveryCode WHERE user_account_id = @userId`,
		pgx.NamedArgs{
			"userId": userID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to delete recovery codes: %w", err)
	}
	return nil
}
