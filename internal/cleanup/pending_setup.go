package cleanup

import (
	"context"

	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/db"
	"github.com/ze-tech/passbold/internal/env"
	"go.uber.org/zap"
)

// RunPendingMfaSetupCleanup drops account states of MFA setups that were
// started but never completed. A setup counts as abandoned when no provider
// reached verification within the configured max age.
func RunPendingMfaSetupCleanup(ctx context.Context) error {
	log := internalctx.GetLogger(ctx)
	deleted, err := db.DeleteStaleMfaAccountStates(ctx, env.CleanupPendingSetupMaxAge())
	if err != nil {
		return err
	}
	log.Info("pending MFA setup cleanup done", zap.Int64("deleted", deleted))
	return nil
}
