package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ze-tech/passbold/internal/apierrors"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/types"
)

const organizationSettingOutputExpr = `
	s.id, s.organization_id, s.property, s.value,
	s.created_by_useraccount_id, s.created_at, s.updated_at `

func GetOrganizationSetting(
	ctx context.Context,
	orgID uuid.UUID,
	property string,
) (*types.OrganizationSetting, error) {
	db := internalctx.GetDb(ctx)
	rows, err := db.Query(ctx,
		`SELECT`+organizationSettingOutputExpr+`
		FROM OrganizationSetting s
		WHERE s.organization_id = @organizationId AND s.property = @property`,
		pgx.NamedArgs{
			"organizationId": orgID,
			"property":       property,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query organization setting: %w", err)
	}
	setting, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[types.OrganizationSetting])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierrors.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to collect organization setting: %w", err)
	}
	return setting, nil
}

// UpsertOrganizationSetting replaces the whole value stored under the given
// property. There is no partial-field update path.
func UpsertOrganizationSetting(
	ctx context.Context,
	orgID uuid.UUID,
	property string,
	value json.RawMessage,
	createdBy uuid.UUID,
) error {
	db := internalctx.GetDb(ctx)
	_, err := db.Exec(ctx,
		`INSERT INTO OrganizationSetting
			(organization_id, property, value, created_by_useraccount_id)
		VALUES (@organizationId, @property, @value, @createdBy)
		ON CONFLICT (organization_id, property) DO UPDATE
		SET value = @value,
			created_by_useraccount_id = @createdBy,
			updated_at = now()`,
		pgx.NamedArgs{
			"organizationId": orgID,
			"property":       property,
			"value":          value,
			"createdBy":      createdBy,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upsert organization setting: %w", err)
	}
	return nil
}
