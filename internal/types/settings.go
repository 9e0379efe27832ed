package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Settings property under which MFA configuration and account state are
// stored, for both organization-scoped and user-scoped settings.
const SettingsPropertyMFA = "MFA"

type OrganizationSetting struct {
	ID             uuid.UUID       `db:"id"`
	OrganizationID uuid.UUID       `db:"organization_id"`
	Property       string          `db:"property"`
	Value          json.RawMessage `db:"value"`
	CreatedBy      *uuid.UUID      `db:"created_by_useraccount_id"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type AccountSetting struct {
	ID            uuid.UUID       `db:"id"`
	UserAccountID uuid.UUID       `db:"user_account_id"`
	Property      string          `db:"property"`
	Value         json.RawMessage `db:"value"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}
