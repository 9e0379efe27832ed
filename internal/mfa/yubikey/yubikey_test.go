package yubikey_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ze-tech/passbold/internal/mfa/yubikey"
	. "github.com/onsi/gomega"
)

const (
	testClientID = "12345"
	testOTP      = "ccccccclulvjtugnjuuufuicbdbtbrpcbtcchbcfkrkn"
)

var testSecretKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef"))

func validationServer(status string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		fmt.Fprintf(w, "otp=%s\r\nnonce=%s\r\nstatus=%s\r\n",
			query.Get("otp"), query.Get("nonce"), status)
	}))
}

func TestVerifyOK(t *testing.T) {
	g := NewWithT(t)
	server := validationServer("OK")
	defer server.Close()

	client, err := yubikey.NewClient(testClientID, testSecretKey, server.Client())
	g.Expect(err).NotTo(HaveOccurred())

	keyID, err := client.WithEndpoint(server.URL).Verify(context.Background(), testOTP)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(keyID).To(Equal(testOTP[:yubikey.KeyIDLength]))
}

func TestVerifyRejectedStatus(t *testing.T) {
	g := NewWithT(t)
	server := validationServer("BAD_OTP")
	defer server.Close()

	client, err := yubikey.NewClient(testClientID, testSecretKey, server.Client())
	g.Expect(err).NotTo(HaveOccurred())

	_, err = client.WithEndpoint(server.URL).Verify(context.Background(), testOTP)
	g.Expect(err).To(MatchError(yubikey.ErrRejected))
}

func TestVerifyRejectsReplayedOTP(t *testing.T) {
	g := NewWithT(t)
	// a server echoing a different OTP than the one submitted
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "otp=%s\r\nnonce=%s\r\nstatus=OK\r\n",
			"cccccccccccchbcfkrknlulvjtugnjuuufuicbdbtbrp", r.URL.Query().Get("nonce"))
	}))
	defer server.Close()

	client, err := yubikey.NewClient(testClientID, testSecretKey, server.Client())
	g.Expect(err).NotTo(HaveOccurred())

	_, err = client.WithEndpoint(server.URL).Verify(context.Background(), testOTP)
	g.Expect(err).To(MatchError(yubikey.ErrRejected))
}

func TestVerifyServiceUnavailable(t *testing.T) {
	g := NewWithT(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := yubikey.NewClient(testClientID, testSecretKey, server.Client())
	g.Expect(err).NotTo(HaveOccurred())

	_, err = client.WithEndpoint(server.URL).Verify(context.Background(), testOTP)
	g.Expect(err).To(MatchError(yubikey.ErrUnavailable))
}

func TestVerifyRejectsShortOTP(t *testing.T) {
	g := NewWithT(t)

	client, err := yubikey.NewClient(testClientID, testSecretKey, nil)
	g.Expect(err).NotTo(HaveOccurred())

	_, err = client.Verify(context.Background(), "short")
	g.Expect(err).To(MatchError(yubikey.ErrRejected))
}

func TestNewClientRejectsInvalidSecret(t *testing.T) {
	g := NewWithT(t)

	_, err := yubikey.NewClient(testClientID, "not base64 !!!", nil)
	g.Expect(err).To(HaveOccurred())
}
