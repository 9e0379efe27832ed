package mfa

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/types"
)

type totpProvider struct {
	issuer string
}

func (p *totpProvider) ID() types.MfaProvider {
	return types.MfaProviderTotp
}

func (p *totpProvider) Begin(
	ctx context.Context,
	mode Mode,
	user *types.UserAccount,
	state *types.MfaAccountState,
) (*Challenge, error) {
	if mode == ModeVerify {
		return &Challenge{
			Provider: types.MfaProviderTotp,
			Message:  "Please provide the one-time password.",
		}, nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer,
		AccountName: user.Email,
		Algorithm:   otp.AlgorithmSHA1,
		Digits:      otp.DigitsSix,
		Period:      30,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return &Challenge{
		Provider:        types.MfaProviderTotp,
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func (p *totpProvider) Verify(
	ctx context.Context,
	mode Mode,
	user *types.UserAccount,
	state *types.MfaAccountState,
	response Response,
) error {
	var provisioningURI string
	switch mode {
	case ModeSetup:
		// the client echoes the provisioning URI produced by the read step,
		// so the same challenge survives failed attempts
		if response.ProvisioningURI == "" {
			return fmt.Errorf("%w: missing provisioning URI", apierrors.ErrProviderRejected)
		}
		provisioningURI = response.ProvisioningURI
	case ModeVerify:
		if state == nil || state.Totp == nil || state.Totp.ProvisioningURI == "" {
			return apierrors.ErrNotFound
		}
		provisioningURI = state.Totp.ProvisioningURI
	}

	key, err := otp.NewKeyFromURL(provisioningURI)
	if err != nil {
		return fmt.Errorf("%w: invalid provisioning URI", apierrors.ErrProviderRejected)
	}
	if !totp.Validate(response.TotpCode, key.Secret()) {
		return apierrors.ErrProviderRejected
	}

	if mode == ModeSetup {
		now := time.Now().UTC()
		state.Totp = &types.TotpAccountState{
			Verified:        &now,
			ProvisioningURI: provisioningURI,
		}
		if !state.Providers.Contains(types.MfaProviderTotp) {
			state.Providers = append(state.Providers, string(types.MfaProviderTotp))
		}
	}
	return nil
}
