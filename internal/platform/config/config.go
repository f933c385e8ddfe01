package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the server needs to start. Values come from the
// environment with development defaults so main stays lean.
type Config struct {
	Addr string

	// Postgres connection URL. Empty means in-memory stores.
	DatabaseURL string

	Redis RedisConfig

	JWT JWTConfig

	Mail MailConfig

	// Kafka seed brokers for the audit publisher. Empty means audit events
	// stay on the in-process worker only.
	KafkaBrokers []string
	KafkaTopic   string

	// AdminCodeTTL bounds how long an admin verification code stays valid.
	AdminCodeTTL time.Duration

	// ForceLocalLogout clears local auth state even when remote sign-out
	// fails. Default false preserves the legacy behavior where a failed
	// remote sign-out leaves the session visibly authenticated with an
	// error set.
	ForceLocalLogout bool

	ParentDemo  DemoAccount
	TeacherDemo DemoAccount
}

// RedisConfig configures the optional Redis-backed token revocation list.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// JWTConfig configures session token issuance.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// MailConfig selects and configures the outbound mailer.
type MailConfig struct {
	// Sender is "smtp" or "log".
	Sender   string
	SMTPHost string
	SMTPPort int
	From     string
}

// DemoAccount is a fixed credential pair for the parent/teacher demo login
// paths that bypass the identity provider.
type DemoAccount struct {
	Principal string
	Password  string
	Name      string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	jwtSigningKey := getenv("JWT_SIGNING_KEY", "")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:        getenv("CAMPUSGATE_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		JWT: JWTConfig{
			SigningKey: jwtSigningKey,
			Issuer:     getenv("JWT_ISSUER", "campusgate"),
			Audience:   getenv("JWT_AUDIENCE", "campusgate-portal"),
			TTL:        getenvDuration("JWT_TTL", 24*time.Hour),
		},
		Mail: MailConfig{
			Sender:   getenv("MAIL_SENDER", "log"),
			SMTPHost: getenv("SMTP_HOST", "localhost"),
			SMTPPort: getenvInt("SMTP_PORT", 25),
			From:     getenv("MAIL_FROM", "no-reply@campusgate.local"),
		},
		KafkaBrokers:     brokers,
		KafkaTopic:       getenv("KAFKA_AUDIT_TOPIC", "campusgate.audit"),
		AdminCodeTTL:     getenvDuration("ADMIN_CODE_TTL", 30*time.Minute),
		ForceLocalLogout: os.Getenv("FORCE_LOCAL_LOGOUT") == "true",
		ParentDemo: DemoAccount{
			Principal: getenv("DEMO_PARENT_ADMISSION_NUMBER", "STD001"),
			Password:  getenv("DEMO_PARENT_PASSWORD", "parent123"),
			Name:      getenv("DEMO_PARENT_NAME", "Demo Parent"),
		},
		TeacherDemo: DemoAccount{
			Principal: getenv("DEMO_TEACHER_STAFF_ID", "TCH001"),
			Password:  getenv("DEMO_TEACHER_PASSWORD", "teacher123"),
			Name:      getenv("DEMO_TEACHER_NAME", "Demo Teacher"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
