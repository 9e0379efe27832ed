// Package duo implements the legacy Duo Web signed-request scheme: the
// server signs a challenge with the Duo secret key and an application key,
// the Duo iframe answers it, and the answer is verified offline. Only the
// envelope lives here; how Duo authenticates the user is Duo's business.
package duo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	duoPrefix  = "TX"
	appPrefix  = "APP"
	authPrefix = "AUTH"

	duoExpire = 300 * time.Second
	appExpire = 3600 * time.Second
)

var ErrInvalidResponse = errors.New("invalid duo response")

// SignRequest produces the sig request for the Duo iframe, a TX part signed
// with the Duo secret key and an APP part signed with the application key.
func SignRequest(integrationKey, secretKey, applicationKey, userID string) (string, error) {
	if userID == "" || strings.Contains(userID, "|") {
		return "", fmt.Errorf("invalid duo user identifier")
	}
	now := time.Now()
	duoSig := signVals(secretKey, userID, integrationKey, duoPrefix, now.Add(duoExpire))
	appSig := signVals(applicationKey, userID, integrationKey, appPrefix, now.Add(appExpire))
	return duoSig + ":" + appSig, nil
}

// VerifyResponse checks the sig response posted back by the Duo iframe and
// returns the authenticated user identifier. The AUTH part proves Duo
// accepted the second factor; the APP part proves the response belongs to
// this application.
func VerifyResponse(integrationKey, secretKey, applicationKey, sigResponse string) (string, error) {
	parts := strings.Split(sigResponse, ":")
	if len(parts) != 2 {
		return "", ErrInvalidResponse
	}
	authUser, err := parseVals(secretKey, parts[0], authPrefix, integrationKey)
	if err != nil {
		return "", err
	}
	appUser, err := parseVals(applicationKey, parts[1], appPrefix, integrationKey)
	if err != nil {
		return "", err
	}
	if !hmac.Equal([]byte(authUser), []byte(appUser)) {
		return "", ErrInvalidResponse
	}
	return authUser, nil
}

func signVals(key, userID, integrationKey, prefix string, expiry time.Time) string {
	val := userID + "|" + integrationKey + "|" + strconv.FormatInt(expiry.Unix(), 10)
	cookie := prefix + "|" + base64.StdEncoding.EncodeToString([]byte(val))
	return cookie + "|" + hmacSHA1(key, cookie)
}

func parseVals(key, val, prefix, integrationKey string) (string, error) {
	parts := strings.Split(val, "|")
	if len(parts) != 3 {
		return "", ErrInvalidResponse
	}
	uPrefix, uB64, uSig := parts[0], parts[1], parts[2]

	sig := hmacSHA1(key, uPrefix+"|"+uB64)
	if !hmac.Equal([]byte(hmacSHA1(key, sig)), []byte(hmacSHA1(key, uSig))) {
		return "", ErrInvalidResponse
	}
	if uPrefix != prefix {
		return "", ErrInvalidResponse
	}

	decoded, err := base64.StdEncoding.DecodeString(uB64)
	if err != nil {
		return "", ErrInvalidResponse
	}
	cookieParts := strings.Split(string(decoded), "|")
	if len(cookieParts) != 3 {
		return "", ErrInvalidResponse
	}
	userID, uIntegrationKey, expiry := cookieParts[0], cookieParts[1], cookieParts[2]
	if uIntegrationKey != integrationKey {
		return "", ErrInvalidResponse
	}
	expires, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", ErrInvalidResponse
	}
	if time.Now().Unix() >= expires {
		return "", ErrInvalidResponse
	}
	return userID, nil
}

func hmacSHA1(key, data string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
