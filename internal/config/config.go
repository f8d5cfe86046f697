package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/tablewatch/internal/check"
)

type Config struct {
	Addr   string // status API bind address
	LogDir string

	Interval     time.Duration // time between full check passes
	Cooldown     time.Duration // minimum gap between alerts per check
	CheckTimeout time.Duration // per-probe backend timeout

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SlackWebhook string // optional secondary notifier

	DefaultRecipient string
	Checks           []check.Descriptor
}

// FromEnv loads the full configuration from the environment. A local .env
// file, when present, is merged in first. Descriptors with defects are logged
// and skipped individually; only missing SMTP credentials are fatal.
func FromEnv(log *zap.Logger) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.Addr = getenv("API_ADDR", "127.0.0.1:8080")
	cfg.LogDir = getenv("LOG_DIR", "logs")

	cfg.Interval = secondsEnv("CHECK_INTERVAL", 300)
	cfg.Cooldown = secondsEnv("ALERT_COOLDOWN", 3600)
	cfg.CheckTimeout = millisEnv("CHECK_TIMEOUT_MS", 10_000)

	cfg.SMTPHost = getenv("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getenv("SMTP_PORT", "587")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SlackWebhook = os.Getenv("SLACK_WEBHOOK")
	if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		return cfg, fmt.Errorf("SMTP_USER and SMTP_PASSWORD are required")
	}

	cfg.DefaultRecipient = os.Getenv("DEFAULT_ALERT_EMAIL")
	cfg.Checks = loadChecks(log, cfg.DefaultRecipient)
	return cfg, nil
}

// loadChecks reads numbered DB_CHECK_N_* variable groups until the first gap.
//
//	DB_CHECK_1_NAME=User Sessions
//	DB_CHECK_1_TYPE=sqlite
//	DB_CHECK_1_DB_PATH=/app/data/sessions.db
//	DB_CHECK_1_TABLE_NAME=user_sessions
//	DB_CHECK_1_ALERT_EMAIL_ENV=ALERT_EMAIL_ADMIN
//
// Credentials are referenced indirectly: *_USER_ENV / *_PASSWORD_ENV name the
// environment variables that hold the actual values, so check definitions can
// be committed while secrets stay out of them.
func loadChecks(log *zap.Logger, defaultRecipient string) []check.Descriptor {
	var out []check.Descriptor
	seen := make(map[string]bool)

	for n := 1; ; n++ {
		prefix := fmt.Sprintf("DB_CHECK_%d_", n)
		name := os.Getenv(prefix + "NAME")
		if name == "" {
			break
		}

		d, err := loadCheck(prefix, name, defaultRecipient)
		if err != nil {
			log.Error("check_config_invalid",
				zap.Int("index", n),
				zap.String("name", name),
				zap.Error(err),
			)
			continue
		}
		if seen[d.Name] {
			log.Error("check_config_duplicate_name",
				zap.Int("index", n),
				zap.String("name", d.Name),
			)
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
		log.Info("check_loaded",
			zap.Int("index", n),
			zap.String("name", d.Name),
			zap.String("kind", string(d.Kind)),
			zap.String("table", d.Table),
		)
	}
	return out
}

func loadCheck(prefix, name, defaultRecipient string) (check.Descriptor, error) {
	var d check.Descriptor
	d.Name = name

	kind, err := check.ParseKind(os.Getenv(prefix + "TYPE"))
	if err != nil {
		return d, err
	}
	d.Kind = kind

	d.Table = os.Getenv(prefix + "TABLE_NAME")
	if d.Table == "" {
		return d, fmt.Errorf("%sTABLE_NAME is required", prefix)
	}

	d.Recipient = defaultRecipient
	if ref := os.Getenv(prefix + "ALERT_EMAIL_ENV"); ref != "" {
		d.Recipient = os.Getenv(ref)
		if d.Recipient == "" {
			return d, fmt.Errorf("alert email variable %s is not set", ref)
		}
	}
	if d.Recipient == "" {
		return d, fmt.Errorf("no alert email: set %sALERT_EMAIL_ENV or DEFAULT_ALERT_EMAIL", prefix)
	}

	d.Target, err = loadTarget(prefix, kind)
	if err != nil {
		return d, err
	}
	return d, nil
}

func loadTarget(prefix string, kind check.Kind) (string, error) {
	switch kind {
	case check.KindSQLite:
		path := os.Getenv(prefix + "DB_PATH")
		if path == "" {
			return "", fmt.Errorf("%sDB_PATH is required", prefix)
		}
		return path, nil

	case check.KindPostgres:
		host := os.Getenv(prefix + "HOST")
		database := os.Getenv(prefix + "DATABASE")
		port := getenv(prefix+"PORT", "5432")
		user, password, err := indirectCredentials(prefix)
		if err != nil {
			return "", err
		}
		if host == "" || database == "" || user == "" || password == "" {
			return "", fmt.Errorf("%sHOST, %sDATABASE and credentials are required", prefix, prefix)
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   net.JoinHostPort(host, port),
			Path:   "/" + database,
		}
		return u.String(), nil

	case check.KindClickHouse:
		addr := getenv(prefix+"ADDR", "127.0.0.1:9000")
		database := getenv(prefix+"DATABASE", "default")
		user, password, err := indirectCredentials(prefix)
		if err != nil {
			return "", err
		}
		u := url.URL{
			Scheme: "clickhouse",
			Host:   addr,
			Path:   "/" + database,
		}
		if user != "" {
			u.User = url.UserPassword(user, password)
		}
		return u.String(), nil
	}
	return "", fmt.Errorf("unsupported kind %q", kind)
}

// indirectCredentials resolves *_USER_ENV / *_PASSWORD_ENV references, falling
// back to <prefix>USER / <prefix>PASSWORD as the referenced variable names.
func indirectCredentials(prefix string) (user, password string, err error) {
	userEnv := getenv(prefix+"USER_ENV", prefix+"USER")
	passwordEnv := getenv(prefix+"PASSWORD_ENV", prefix+"PASSWORD")
	user = os.Getenv(userEnv)
	password = os.Getenv(passwordEnv)
	if os.Getenv(prefix+"USER_ENV") != "" && user == "" {
		return "", "", fmt.Errorf("credential variable %s is not set", userEnv)
	}
	if os.Getenv(prefix+"PASSWORD_ENV") != "" && password == "" {
		return "", "", fmt.Errorf("credential variable %s is not set", passwordEnv)
	}
	return user, password, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func secondsEnv(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallback) * time.Second
}

func millisEnv(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return time.Duration(fallback) * time.Millisecond
}
