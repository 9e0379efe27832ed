package duo

import (
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

const (
	testIKey = "DIXXXXXXXXXXXXXXXXXX"
	testSKey = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	testAKey = "useacustomerprovidedapplicationsecretkey"
)

func TestSignRequestShape(t *testing.T) {
	g := NewWithT(t)

	sig, err := SignRequest(testIKey, testSKey, testAKey, "user-1")
	g.Expect(err).NotTo(HaveOccurred())

	parts := strings.Split(sig, ":")
	g.Expect(parts).To(HaveLen(2))
	g.Expect(parts[0]).To(HavePrefix("TX|"))
	g.Expect(parts[1]).To(HavePrefix("APP|"))
}

func TestSignRequestRejectsInvalidUser(t *testing.T) {
	g := NewWithT(t)

	_, err := SignRequest(testIKey, testSKey, testAKey, "")
	g.Expect(err).To(HaveOccurred())

	_, err = SignRequest(testIKey, testSKey, testAKey, "user|pipe")
	g.Expect(err).To(HaveOccurred())
}

// forgeResponse builds the sig response the Duo iframe would post back after
// a successful second factor.
func forgeResponse(userID string, expiry time.Time) string {
	authSig := signVals(testSKey, userID, testIKey, authPrefix, expiry)
	appSig := signVals(testAKey, userID, testIKey, appPrefix, expiry)
	return authSig + ":" + appSig
}

func TestVerifyResponseRoundTrip(t *testing.T) {
	g := NewWithT(t)

	response := forgeResponse("user-1", time.Now().Add(time.Minute))
	userID, err := VerifyResponse(testIKey, testSKey, testAKey, response)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(userID).To(Equal("user-1"))
}

func TestVerifyResponseRejectsTampering(t *testing.T) {
	g := NewWithT(t)

	response := forgeResponse("user-1", time.Now().Add(time.Minute))
	tampered := strings.Replace(response, "AUTH|", "AUTH|x", 1)
	_, err := VerifyResponse(testIKey, testSKey, testAKey, tampered)
	g.Expect(err).To(MatchError(ErrInvalidResponse))
}

func TestVerifyResponseRejectsWrongKeys(t *testing.T) {
	g := NewWithT(t)

	response := forgeResponse("user-1", time.Now().Add(time.Minute))
	_, err := VerifyResponse(testIKey, "wrongwrongwrongwrongwrongwrongwrongwrong", testAKey, response)
	g.Expect(err).To(MatchError(ErrInvalidResponse))

	_, err = VerifyResponse(testIKey, testSKey, "alsowrongalsowrongalsowrongalsowrongal", response)
	g.Expect(err).To(MatchError(ErrInvalidResponse))
}

func TestVerifyResponseRejectsExpired(t *testing.T) {
	g := NewWithT(t)

	response := forgeResponse("user-1", time.Now().Add(-time.Minute))
	_, err := VerifyResponse(testIKey, testSKey, testAKey, response)
	g.Expect(err).To(MatchError(ErrInvalidResponse))
}

func TestVerifyResponseRejectsUserMismatch(t *testing.T) {
	g := NewWithT(t)

	expiry := time.Now().Add(time.Minute)
	authSig := signVals(testSKey, "user-1", testIKey, authPrefix, expiry)
	appSig := signVals(testAKey, "user-2", testIKey, appPrefix, expiry)
	_, err := VerifyResponse(testIKey, testSKey, testAKey, authSig+":"+appSig)
	g.Expect(err).To(MatchError(ErrInvalidResponse))
}

func TestVerifyResponseRejectsGarbage(t *testing.T) {
	g := NewWithT(t)

	for _, response := range []string{"", ":", "a:b", "AUTH|x|y:APP|x|y"} {
		_, err := VerifyResponse(testIKey, testSKey, testAKey, response)
		g.Expect(err).To(HaveOccurred(), "response: %q", response)
	}
}
