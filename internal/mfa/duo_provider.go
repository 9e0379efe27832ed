package mfa

import (
	"context"
	"fmt"
	"time"

	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/mfa/duo"
	"github.com/ze-tech/passbold/internal/types"
)

type duoProvider struct {
	settings *OrgSettings
}

func (p *duoProvider) ID() types.MfaProvider {
	return types.MfaProviderDuo
}

func (p *duoProvider) credentials() (integrationKey, secretKey, salt, hostName string, err error) {
	if integrationKey, err = p.settings.DuoIntegrationKey(); err != nil {
		return
	}
	if secretKey, err = p.settings.DuoSecretKey(); err != nil {
		return
	}
	if salt, err = p.settings.DuoSalt(); err != nil {
		return
	}
	hostName, err = p.settings.DuoHostName()
	return
}

func (p *duoProvider) Begin(
	ctx context.Context,
	mode Mode,
	user *types.UserAccount,
	state *types.MfaAccountState,
) (*Challenge, error) {
	integrationKey, secretKey, salt, hostName, err := p.credentials()
	if err != nil {
		return nil, err
	}
	sigRequest, err := duo.SignRequest(integrationKey, secretKey, salt, user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to sign duo request: %w", err)
	}
	return &Challenge{
		Provider:   types.MfaProviderDuo,
		SigRequest: sigRequest,
		HostName:   hostName,
	}, nil
}

func (p *duoProvider) Verify(
	ctx context.Context,
	mode Mode,
	user *types.UserAccount,
	state *types.MfaAccountState,
	response Response,
) error {
	integrationKey, secretKey, salt, _, err := p.credentials()
	if err != nil {
		return err
	}
	if mode == ModeVerify && state.VerifiedAt(types.MfaProviderDuo) == nil {
		return apierrors.ErrNotFound
	}
	verifiedUser, err := duo.VerifyResponse(integrationKey, secretKey, salt, response.SigResponse)
	if err != nil || verifiedUser != user.ID.String() {
		return apierrors.ErrProviderRejected
	}
	if mode == ModeSetup {
		now := time.Now().UTC()
		state.Duo = &types.DuoAccountState{Verified: &now}
		if !state.Providers.Contains(types.MfaProviderDuo) {
			state.Providers = append(state.Providers, string(types.MfaProviderDuo))
		}
	}
	return nil
}
