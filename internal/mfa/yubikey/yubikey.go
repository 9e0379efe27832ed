// Package yubikey verifies Yubico OTPs against the YubiCloud validation
// protocol v2.0. The OTP decryption itself happens server-side at Yubico;
// this client only performs the validation round trip.
package yubikey

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ze-tech/passbold/internal/httpstatus"
)

const (
	DefaultAPIEndpoint = "https://api.yubico.com/wsapi/2.0/verify"

	// public identity prefix length of a Yubico OTP
	KeyIDLength = 12
)

var (
	ErrRejected = errors.New("yubikey OTP rejected")

	// ErrUnavailable indicates the validation service could not be reached
	// or answered with a transport-level failure. User-retryable.
	ErrUnavailable = errors.New("yubikey validation service unavailable")
)

type Client struct {
	clientID   string
	secretKey  []byte
	endpoint   string
	httpClient *http.Client
}

func NewClient(clientID, secretKey string, httpClient *http.Client) (*Client, error) {
	key, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid yubikey secret key: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		clientID:   clientID,
		secretKey:  key,
		endpoint:   DefaultAPIEndpoint,
		httpClient: httpClient,
	}, nil
}

// WithEndpoint overrides the validation endpoint. Used by tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Verify validates the OTP and returns its key identity (the public prefix
// identifying the physical key).
func (c *Client) Verify(ctx context.Context, otp string) (string, error) {
	if len(otp) <= KeyIDLength {
		return "", ErrRejected
	}

	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(nonceBytes)

	params := url.Values{}
	params.Set("id", c.clientID)
	params.Set("otp", otp)
	params.Set("nonce", nonce)
	params.Set("h", c.sign(params))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := httpstatus.CheckStatus(c.httpClient.Do(req))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	fields := parseResponse(string(body))

	if sig, ok := fields["h"]; ok {
		if !c.verifySignature(fields, sig) {
			return "", ErrRejected
		}
	}
	if fields["otp"] != otp || fields["nonce"] != nonce {
		return "", ErrRejected
	}
	if fields["status"] != "OK" {
		return "", ErrRejected
	}
	return otp[:KeyIDLength], nil
}

func parseResponse(body string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if key, value, found := strings.Cut(line, "="); found {
			fields[key] = value
		}
	}
	return fields
}

func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params.Get(key))
	}
	mac := hmac.New(sha1.New, c.secretKey)
	mac.Write([]byte(strings.Join(pairs, "&")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) verifySignature(fields map[string]string, signature string) bool {
	params := url.Values{}
	for key, value := range fields {
		if key != "h" {
			params.Set(key, value)
		}
	}
	return hmac.Equal([]byte(c.sign(params)), []byte(signature))
}
