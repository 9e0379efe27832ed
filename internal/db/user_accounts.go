package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ze-tech/passbold/internal/apierrors"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/types"
)

const userAccountOutputExpr = ` u.id, u.organization_id, u.email, u.name, u.user_role, u.created_at `

// mfaEnabledFilterExpr mirrors mfa.IsMfaEnabled: a user counts as MFA-enabled
// when at least one organization-enabled provider block in their account
// state carries a verified timestamp.
const mfaEnabledFilterExpr = `
	EXISTS (
		SELECT 1 FROM unnest(@enabledProviders::text[]) AS p
		WHERE (s.value -> p ->> 'verified') IS NOT NULL
	)`

type ListUserAccountsOptions struct {
	// EnabledProviders is the organization's currently enabled provider set,
	// injected by the caller so that filter and derived column share one
	// source of truth.
	EnabledProviders []types.MfaProvider
	FilterMfaEnabled *bool
}

func GetUserAccountByID(ctx context.Context, id uuid.UUID) (*types.UserAccount, error) {
	db := internalctx.GetDb(ctx)
	rows, err := db.Query(ctx,
		`SELECT`+userAccountOutputExpr+`FROM UserAccount u WHERE u.id = @id`,
		pgx.NamedArgs{
			"id": id,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[types.UserAccount])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to collect user: %w", err)
	}
	return user, nil
}

func GetUserAccountsByOrgID(
	ctx context.Context,
	orgID uuid.UUID,
	opts ListUserAccountsOptions,
) ([]types.UserAccountWithMfaState, error) {
	db := internalctx.GetDb(ctx)
	providers := make([]string, len(opts.EnabledProviders))
	for i, p := range opts.EnabledProviders {
		providers[i] = string(p)
	}

	query := `
		SELECT` + userAccountOutputExpr + `, s.value AS mfa_state
		FROM UserAccount u
		LEFT JOIN AccountSetting s
			ON s.user_account_id = u.id AND s.property = 'MFA'
		WHERE u.organization_id = @organizationId`
	if opts.FilterMfaEnabled != nil {
		if *opts.FilterMfaEnabled {
			query += ` AND ` + mfaEnabledFilterExpr
		} else {
			query += ` AND NOT ` + mfaEnabledFilterExpr
		}
	}
	query += ` ORDER BY u.created_at, u.id`

	rows, err := db.Query(ctx, query, pgx.NamedArgs{
		"organizationId":   orgID,
		"enabledProviders": providers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.UserAccountWithMfaState])
	if err != nil {
		return nil, fmt.Errorf("failed to collect users: %w", err)
	}
	return users, nil
}
