package types

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

type UserAccount struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	Role           UserRole  `db:"user_role"`
	CreatedAt      time.Time `db:"created_at"`
}

// UserAccountWithMfaState carries the listing projection together with the
// user's raw MFA account state, from which the derived is_mfa_enabled column
// is computed in one place.
type UserAccountWithMfaState struct {
	UserAccount
	MfaState *MfaAccountState `db:"mfa_state"`
}
