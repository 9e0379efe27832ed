package api

import (
	"time"

	"github.com/google/uuid"
)

type UserAccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	// IsMfaEnabled is present only when requested via
	// contain[is_mfa_enabled]=1.
	IsMfaEnabled *bool `json:"isMfaEnabled,omitempty"`
}
