package env

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ze-tech/passbold/internal/envparse"
	"github.com/ze-tech/passbold/internal/envutil"
	"github.com/ze-tech/passbold/internal/types"
)

var (
	databaseUrl                  string
	databaseMaxConns             *int
	jwtSecret                    []byte
	host                         string
	mailerConfig                 MailerConfig
	sentryDSN                    string
	sentryDebug                  bool
	sentryEnvironment            string
	otelExporterOtlpEnabled      bool
	mfaDefaultSettings           *types.MfaOrgSettings
	mfaVerificationValidDuration time.Duration
	mfaTotpIssuer                string
	mfaVerifyRateLimitPerMinute  int
	cleanupPendingSetupCron      *string
	cleanupPendingSetupTimeout   time.Duration
	cleanupPendingSetupMaxAge    time.Duration
	serverShutdownDelayDuration  *time.Duration
)

type MailerType string

const (
	MailerTypeUnspecified MailerType = ""
	MailerTypeSMTP        MailerType = "smtp"
)

type MailerConfig struct {
	Type        MailerType
	FromAddress *mail.Address
	SmtpConfig  *MailerSMTPConfig
}

type MailerSMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	ImplicitTLS bool
}

func Initialize() {
	if currentEnv, ok := os.LookupEnv("PASSBOLD_ENV"); ok {
		fmt.Fprintf(os.Stderr, "environment=%v\n", currentEnv)
		if err := godotenv.Load(currentEnv); err != nil {
			fmt.Fprintf(os.Stderr, "environment %v not loaded: %v\n", currentEnv, err)
		}
		secretEnv := currentEnv + ".secret"
		if err := godotenv.Load(secretEnv); err != nil {
			fmt.Fprintf(os.Stderr, "environment %v not loaded: %v\n", secretEnv, err)
		}
	}

	databaseUrl = envutil.RequireEnv("DATABASE_URL")
	databaseMaxConns = envutil.GetEnvParsedOrNil("DATABASE_MAX_CONNS", strconv.Atoi)
	jwtSecret = envutil.RequireEnvParsed("JWT_SECRET", base64.StdEncoding.DecodeString)
	host = envutil.RequireEnv("PASSBOLD_HOST")
	serverShutdownDelayDuration = envutil.GetEnvParsedOrNil("SERVER_SHUTDOWN_DELAY_DURATION", envparse.PositiveDuration)

	mfaDefaultSettings = parseMfaDefaultSettings()
	mfaVerificationValidDuration = envutil.GetEnvParsedOrDefault(
		"MFA_VERIFICATION_VALID_DURATION", envparse.PositiveDuration, 30*24*time.Hour,
	)
	mfaTotpIssuer = envutil.GetEnvOrDefault("MFA_TOTP_ISSUER", "Passbold")
	mfaVerifyRateLimitPerMinute = envutil.GetEnvParsedOrDefault(
		"MFA_VERIFY_RATE_LIMIT_PER_MINUTE", envparse.NonNegativeNumber, 10,
	)
	cleanupPendingSetupCron = envutil.GetEnvOrNil("CLEANUP_MFA_PENDING_SETUP_CRON")
	cleanupPendingSetupTimeout = envutil.GetEnvParsedOrDefault(
		"CLEANUP_MFA_PENDING_SETUP_TIMEOUT", envparse.PositiveDuration, 0,
	)
	cleanupPendingSetupMaxAge = envutil.GetEnvParsedOrDefault(
		"CLEANUP_MFA_PENDING_SETUP_MAX_AGE", envparse.PositiveDuration, 7*24*time.Hour,
	)

	mailerConfig.Type = envutil.GetEnvParsedOrDefault("MAILER_TYPE", parseMailerType, MailerTypeUnspecified)
	if mailerConfig.Type != MailerTypeUnspecified {
		mailerConfig.FromAddress = envutil.RequireEnvParsed("MAILER_FROM_ADDRESS", envparse.MailAddress)
	}
	if mailerConfig.Type == MailerTypeSMTP {
		mailerConfig.SmtpConfig = &MailerSMTPConfig{
			Host:        envutil.GetEnv("MAILER_SMTP_HOST"),
			Port:        envutil.RequireEnvParsed("MAILER_SMTP_PORT", strconv.Atoi),
			Username:    envutil.GetEnv("MAILER_SMTP_USERNAME"),
			Password:    envutil.GetEnv("MAILER_SMTP_PASSWORD"),
			ImplicitTLS: envutil.GetEnvParsedOrDefault("MAILER_SMTP_IMPLICIT_TLS", strconv.ParseBool, false),
		}
	}

	sentryDSN = envutil.GetEnv("SENTRY_DSN")
	sentryDebug = envutil.GetEnvParsedOrDefault("SENTRY_DEBUG", strconv.ParseBool, false)
	sentryEnvironment = envutil.GetEnv("SENTRY_ENVIRONMENT")
	otelExporterOtlpEnabled = envutil.GetEnvParsedOrDefault("OTEL_EXPORTER_OTLP_ENABLED", strconv.ParseBool, false)
}

// parseMfaDefaultSettings reads the static MFA configuration block. It is the
// middle source of the settings cascade, consulted only when no value is
// stored in the database. Returns nil when MFA_PROVIDERS is not set at all.
func parseMfaDefaultSettings() *types.MfaOrgSettings {
	raw, ok := os.LookupEnv("MFA_PROVIDERS")
	if !ok {
		return nil
	}
	settings := types.MfaOrgSettings{Providers: types.MfaProviderList{}}
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			settings.Providers = append(settings.Providers, name)
		}
	}
	if hostName := envutil.GetEnv("MFA_DUO_HOSTNAME"); hostName != "" {
		settings.Duo = &types.DuoCredentials{
			IntegrationKey: envutil.GetEnv("MFA_DUO_INTEGRATION_KEY"),
			SecretKey:      envutil.GetEnv("MFA_DUO_SECRET_KEY"),
			HostName:       hostName,
			Salt:           envutil.GetEnv("MFA_DUO_SALT"),
		}
	}
	if clientID := envutil.GetEnv("MFA_YUBIKEY_CLIENT_ID"); clientID != "" {
		settings.Yubikey = &types.YubikeyCredentials{
			ClientID:  clientID,
			SecretKey: envutil.GetEnv("MFA_YUBIKEY_SECRET_KEY"),
		}
	}
	return &settings
}

func parseMailerType(value string) (MailerType, error) {
	switch t := MailerType(value); t {
	case MailerTypeUnspecified, MailerTypeSMTP:
		return t, nil
	default:
		return "", fmt.Errorf("invalid mailer type: %v", value)
	}
}

func DatabaseUrl() string { return databaseUrl }

func DatabaseMaxConns() *int { return databaseMaxConns }

func JWTSecret() []byte { return jwtSecret }

func Host() string { return host }

func GetMailerConfig() MailerConfig { return mailerConfig }

func SentryDSN() string { return sentryDSN }

func SentryDebug() bool { return sentryDebug }

func SentryEnvironment() string { return sentryEnvironment }

func OtelExporterOtlpEnabled() bool { return otelExporterOtlpEnabled }

func MfaDefaultSettings() *types.MfaOrgSettings { return mfaDefaultSettings }

func MfaVerificationValidDuration() time.Duration { return mfaVerificationValidDuration }

func MfaTotpIssuer() string { return mfaTotpIssuer }

func MfaVerifyRateLimitPerMinute() int { return mfaVerifyRateLimitPerMinute }

func CleanupPendingSetupCron() *string { return cleanupPendingSetupCron }

func CleanupPendingSetupTimeout() time.Duration { return cleanupPendingSetupTimeout }

func CleanupPendingSetupMaxAge() time.Duration { return cleanupPendingSetupMaxAge }

func ServerShutdownDelayDuration() *time.Duration { return serverShutdownDelayDuration }
