package mfa_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/mfa"
	"github.com/ze-tech/passbold/internal/types"
	. "github.com/onsi/gomega"
)

type fakeAccountStore struct {
	states    map[uuid.UUID]*types.MfaAccountState
	saveCalls int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{states: map[uuid.UUID]*types.MfaAccountState{}}
}

func (s *fakeAccountStore) Get(_ context.Context, userID uuid.UUID) (*types.MfaAccountState, error) {
	return s.states[userID], nil
}

func (s *fakeAccountStore) Save(_ context.Context, userID uuid.UUID, state *types.MfaAccountState) error {
	s.states[userID] = state
	s.saveCalls++
	return nil
}

type fakeRecoveryStore struct {
	codes map[uuid.UUID][]types.MfaRecoveryCode
}

func newFakeRecoveryStore() *fakeRecoveryStore {
	return &fakeRecoveryStore{codes: map[uuid.UUID][]types.MfaRecoveryCode{}}
}

func (s *fakeRecoveryStore) Unused(_ context.Context, userID uuid.UUID) ([]types.MfaRecoveryCode, error) {
	var unused []types.MfaRecoveryCode
	for _, code := range s.codes[userID] {
		if code.UsedAt == nil {
			unused = append(unused, code)
		}
	}
	return unused, nil
}

func (s *fakeRecoveryStore) MarkUsed(_ context.Context, codeID uuid.UUID) error {
	now := time.Now()
	for userID, codes := range s.codes {
		for i := range codes {
			if codes[i].ID == codeID {
				s.codes[userID][i].UsedAt = &now
			}
		}
	}
	return nil
}

func (s *fakeRecoveryStore) Replace(_ context.Context, userID uuid.UUID, codes []types.MfaRecoveryCode) error {
	stored := make([]types.MfaRecoveryCode, len(codes))
	for i, code := range codes {
		code.ID = uuid.New()
		code.UserAccountID = userID
		stored[i] = code
	}
	s.codes[userID] = stored
	return nil
}

type flowFixture struct {
	flow     *mfa.Flow
	gate     *mfa.Gate
	accounts *fakeAccountStore
	recovery *fakeRecoveryStore
	settings *mfa.OrgSettings
	user     *types.UserAccount
}

func newFlowFixture() *flowFixture {
	registry := newTestRegistry()
	gate := mfa.NewGate(gateTestSecret, time.Hour, nil)
	accounts := newFakeAccountStore()
	recovery := newFakeRecoveryStore()
	return &flowFixture{
		flow:     mfa.NewFlow(registry, gate, accounts, recovery),
		gate:     gate,
		accounts: accounts,
		recovery: recovery,
		settings: totpOnlySettings(),
		user:     gateTestUser(),
	}
}

func totpCodeForURI(g *WithT, provisioningURI string) string {
	key, err := otp.NewKeyFromURL(provisioningURI)
	g.Expect(err).NotTo(HaveOccurred())
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	g.Expect(err).NotTo(HaveOccurred())
	return code
}

func TestFlowTotpSetupBegin(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()

	result, err := f.flow.Begin(context.Background(), mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Challenge.Secret).NotTo(BeEmpty())
	g.Expect(result.Challenge.ProvisioningURI).To(HavePrefix("otpauth://totp/"))
	g.Expect(result.Challenge.QRCode).To(HavePrefix("data:image/png;base64,"))
	g.Expect(result.Render.Layout).To(Equal("mfa_setup"))
	g.Expect(result.Render.Template).To(Equal("totp/setupForm"))
}

func TestFlowTotpSetupRejectsDisabledProvider(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()

	_, err := f.flow.Begin(context.Background(), mfa.ModeSetup, types.MfaProviderDuo,
		f.settings, f.user, "session-1", "")
	g.Expect(err).To(MatchError(apierrors.ErrCredentialMissing))
}

func TestFlowTotpSetupRejectsWrongCode(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()

	begin, err := f.flow.Begin(context.Background(), mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())

	_, err = f.flow.Complete(context.Background(), mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{
			TotpCode:        "000000",
			ProvisioningURI: begin.Challenge.ProvisioningURI,
		})
	g.Expect(err).To(MatchError(apierrors.ErrProviderRejected))
	// nothing persisted on failure
	g.Expect(f.accounts.saveCalls).To(BeZero())
}

func TestFlowTotpSetupAndVerify(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()
	ctx := context.Background()

	begin, err := f.flow.Begin(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())

	complete, err := f.flow.Complete(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{
			TotpCode:        totpCodeForURI(g, begin.Challenge.ProvisioningURI),
			ProvisioningURI: begin.Challenge.ProvisioningURI,
		})
	g.Expect(err).NotTo(HaveOccurred())
	// recovery codes are issued exactly once, on first enablement
	g.Expect(complete.RecoveryCodes).To(HaveLen(10))
	g.Expect(complete.Cookie).To(BeNil())

	state := f.accounts.states[f.user.ID]
	g.Expect(state).NotTo(BeNil())
	g.Expect(state.VerifiedAt(types.MfaProviderTotp)).NotTo(BeNil())
	g.Expect(state.Providers.Contains(types.MfaProviderTotp)).To(BeTrue())

	// setting up again is refused
	_, err = f.flow.Begin(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).To(MatchError(apierrors.ErrAlreadySetup))

	// the session still owes verification
	g.Expect(f.gate.Evaluate(f.settings, f.user, "session-1", "")).
		To(Equal(mfa.GateStateRequiredUnverified))

	verify, err := f.flow.Complete(ctx, mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{
			TotpCode: totpCodeForURI(g, state.Totp.ProvisioningURI),
		})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(verify.Cookie).NotTo(BeNil())

	g.Expect(f.gate.Evaluate(f.settings, f.user, "session-1", verify.Cookie.Value)).
		To(Equal(mfa.GateStateVerified))
}

func TestFlowVerifyNotRequired(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()
	f.settings = mfa.NewOrgSettings(newTestRegistry(), &types.MfaOrgSettings{
		Providers: types.MfaProviderList{},
	})

	_, err := f.flow.Begin(context.Background(), mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).To(MatchError(apierrors.ErrNotRequired))
}

func TestFlowVerifyAlreadyVerified(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()

	cookie, err := f.gate.IssueCookie("session-1", types.MfaProviderTotp)
	g.Expect(err).NotTo(HaveOccurred())

	_, err = f.flow.Begin(context.Background(), mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-1", cookie.Value)
	g.Expect(err).To(MatchError(apierrors.ErrAlreadyVerified))
}

func TestFlowRecoveryCodeFallback(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()
	ctx := context.Background()

	begin, err := f.flow.Begin(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())
	complete, err := f.flow.Complete(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{
			TotpCode:        totpCodeForURI(g, begin.Challenge.ProvisioningURI),
			ProvisioningURI: begin.Challenge.ProvisioningURI,
		})
	g.Expect(err).NotTo(HaveOccurred())

	recoveryCode := complete.RecoveryCodes[0]
	g.Expect(recoveryCode).To(ContainSubstring("-"))

	verify, err := f.flow.Complete(ctx, mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{RecoveryCode: recoveryCode})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(verify.Cookie).NotTo(BeNil())

	// a recovery code is single use
	_, err = f.flow.Complete(ctx, mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-2", "", mfa.Response{RecoveryCode: recoveryCode})
	g.Expect(err).To(MatchError(apierrors.ErrProviderRejected))

	// the normalized form is accepted too
	normalized := strings.ToUpper(strings.ReplaceAll(complete.RecoveryCodes[1], "-", ""))
	_, err = f.flow.Complete(ctx, mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-2", "", mfa.Response{RecoveryCode: normalized})
	g.Expect(err).NotTo(HaveOccurred())
}

func TestFlowRegenerateRecoveryCodes(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()
	ctx := context.Background()

	begin, err := f.flow.Begin(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())
	complete, err := f.flow.Complete(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{
			TotpCode:        totpCodeForURI(g, begin.Challenge.ProvisioningURI),
			ProvisioningURI: begin.Challenge.ProvisioningURI,
		})
	g.Expect(err).NotTo(HaveOccurred())

	fresh, err := f.flow.RegenerateRecoveryCodes(ctx, f.user)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(fresh).To(HaveLen(10))
	g.Expect(fresh).NotTo(ContainElement(complete.RecoveryCodes[0]))

	// the previous codes stop working
	_, err = f.flow.Complete(ctx, mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{RecoveryCode: complete.RecoveryCodes[0]})
	g.Expect(err).To(MatchError(apierrors.ErrProviderRejected))

	verify, err := f.flow.Complete(ctx, mfa.ModeVerify, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{RecoveryCode: fresh[0]})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(verify.Cookie).NotTo(BeNil())
}

func TestFlowRegenerateRecoveryCodesWithoutEnrollment(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()

	_, err := f.flow.RegenerateRecoveryCodes(context.Background(), f.user)
	g.Expect(err).To(MatchError(apierrors.ErrNotFound))
}

func TestFlowResetProvider(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()
	ctx := context.Background()

	begin, err := f.flow.Begin(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())
	_, err = f.flow.Complete(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "", mfa.Response{
			TotpCode:        totpCodeForURI(g, begin.Challenge.ProvisioningURI),
			ProvisioningURI: begin.Challenge.ProvisioningURI,
		})
	g.Expect(err).NotTo(HaveOccurred())

	cookie, err := f.flow.ResetProvider(ctx, types.MfaProviderTotp, f.user)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cookie.MaxAge).To(Equal(-1))

	state := f.accounts.states[f.user.ID]
	g.Expect(state.Totp).To(BeNil())
	g.Expect(state.Providers.Contains(types.MfaProviderTotp)).To(BeFalse())

	// setup is possible again after a reset
	_, err = f.flow.Begin(ctx, mfa.ModeSetup, types.MfaProviderTotp,
		f.settings, f.user, "session-1", "")
	g.Expect(err).NotTo(HaveOccurred())
}

func TestFlowResetWithoutEnrollmentStillClearsCookie(t *testing.T) {
	g := NewWithT(t)
	f := newFlowFixture()

	cookie, err := f.flow.ResetProvider(context.Background(), types.MfaProviderTotp, f.user)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cookie.MaxAge).To(Equal(-1))
}
