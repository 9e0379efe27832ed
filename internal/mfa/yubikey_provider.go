package mfa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/mfa/yubikey"
	"github.com/ze-tech/passbold/internal/types"
)

type yubikeyProvider struct {
	settings   *OrgSettings
	httpClient *http.Client
}

func (p *yubikeyProvider) ID() types.MfaProvider {
	return types.MfaProviderYubikey
}

func (p *yubikeyProvider) client() (*yubikey.Client, error) {
	clientID, err := p.settings.YubikeyClientID()
	if err != nil {
		return nil, err
	}
	secretKey, err := p.settings.YubikeySecretKey()
	if err != nil {
		return nil, err
	}
	return yubikey.NewClient(clientID, secretKey, p.httpClient)
}

func (p *yubikeyProvider) Begin(
	ctx context.Context,
	mode Mode,
	user *types.UserAccount,
	state *types.MfaAccountState,
) (*Challenge, error) {
	if _, err := p.client(); err != nil {
		return nil, err
	}
	return &Challenge{
		Provider: types.MfaProviderYubikey,
		Message:  "Please touch your Yubikey to provide a one-time password.",
	}, nil
}

func (p *yubikeyProvider) Verify(
	ctx context.Context,
	mode Mode,
	user *types.UserAccount,
	state *types.MfaAccountState,
	response Response,
) error {
	client, err := p.client()
	if err != nil {
		return err
	}
	if mode == ModeVerify && (state == nil || state.Yubikey == nil || state.Yubikey.Verified == nil) {
		return apierrors.ErrNotFound
	}

	keyID, err := client.Verify(ctx, response.HotpToken)
	if errors.Is(err, yubikey.ErrUnavailable) {
		// user-retryable, not a crash
		return fmt.Errorf("%w: validation service unavailable, please retry", apierrors.ErrProviderRejected)
	} else if err != nil {
		return apierrors.ErrProviderRejected
	}

	switch mode {
	case ModeSetup:
		now := time.Now().UTC()
		state.Yubikey = &types.YubikeyAccountState{Verified: &now, KeyID: keyID}
		if !state.Providers.Contains(types.MfaProviderYubikey) {
			state.Providers = append(state.Providers, string(types.MfaProviderYubikey))
		}
	case ModeVerify:
		// the OTP must come from the key enrolled at setup time
		if state.Yubikey.KeyID != "" && state.Yubikey.KeyID != keyID {
			return apierrors.ErrProviderRejected
		}
	}
	return nil
}
