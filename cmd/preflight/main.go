// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--template" {
		fmt.Print(envTemplate)
		return
	}

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	smtpUser := strings.TrimSpace(os.Getenv("SMTP_USER"))
	smtpPassword := strings.TrimSpace(os.Getenv("SMTP_PASSWORD"))
	defaultEmail := strings.TrimSpace(os.Getenv("DEFAULT_ALERT_EMAIL"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))

	if smtpUser == "" {
		fail("SMTP_USER is empty (alerts cannot be sent).")
	}
	if smtpPassword == "" {
		fail("SMTP_PASSWORD is empty (alerts cannot be sent).")
	}
	ok("SMTP credentials present")

	if defaultEmail == "" {
		warn("DEFAULT_ALERT_EMAIL empty — every check must set its own ALERT_EMAIL_ENV.")
	} else {
		ok("DEFAULT_ALERT_EMAIL=" + defaultEmail)
	}

	if apiAddr == "" {
		warn("API_ADDR empty; the monitor will bind its default.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	checks := 0
	for n := 1; ; n++ {
		prefix := fmt.Sprintf("DB_CHECK_%d_", n)
		name := os.Getenv(prefix + "NAME")
		if name == "" {
			break
		}
		checks++
		if os.Getenv(prefix+"TYPE") == "" {
			warn(prefix + "TYPE is empty; this check will be skipped at startup.")
		}
		if os.Getenv(prefix+"TABLE_NAME") == "" {
			warn(prefix + "TABLE_NAME is empty; this check will be skipped at startup.")
		}
		if ref := os.Getenv(prefix + "ALERT_EMAIL_ENV"); ref != "" && os.Getenv(ref) == "" {
			warn(prefix + "ALERT_EMAIL_ENV references " + ref + " which is not set.")
		}
	}
	if checks == 0 {
		fail("No DB_CHECK_1_NAME found — nothing to monitor. Run with --template for an example.")
	}
	ok(fmt.Sprintf("%d check(s) defined", checks))

	ok("preflight passed")
}

const envTemplate = `# tablewatch environment template
# Copy into your .env and fill in the values.

# SMTP (required)
SMTP_HOST=smtp.gmail.com
SMTP_PORT=587
SMTP_USER=your.email@example.com
SMTP_PASSWORD=your_app_password

# Optional secondary notifier
# SLACK_WEBHOOK=https://hooks.slack.com/services/...

# Fallback recipient when a check sets no ALERT_EMAIL_ENV
DEFAULT_ALERT_EMAIL=alerts@example.com

# Monitoring settings (seconds)
CHECK_INTERVAL=300
ALERT_COOLDOWN=3600

# Status API
API_ADDR=127.0.0.1:8080
LOG_DIR=logs

# Check 1 — SQLite
DB_CHECK_1_NAME=User Sessions
DB_CHECK_1_TYPE=sqlite
DB_CHECK_1_DB_PATH=/app/data/sessions.db
DB_CHECK_1_TABLE_NAME=user_sessions
DB_CHECK_1_ALERT_EMAIL_ENV=ALERT_EMAIL_ADMIN

# Check 2 — PostgreSQL (credentials referenced indirectly)
DB_CHECK_2_NAME=Orders
DB_CHECK_2_TYPE=postgres
DB_CHECK_2_HOST=localhost
DB_CHECK_2_PORT=5432
DB_CHECK_2_DATABASE=myapp
DB_CHECK_2_TABLE_NAME=orders
DB_CHECK_2_USER_ENV=POSTGRES_USER
DB_CHECK_2_PASSWORD_ENV=POSTGRES_PASSWORD

# Check 3 — ClickHouse
DB_CHECK_3_NAME=Events
DB_CHECK_3_TYPE=clickhouse
DB_CHECK_3_ADDR=127.0.0.1:9000
DB_CHECK_3_DATABASE=analytics
DB_CHECK_3_TABLE_NAME=events

# Alert recipients
ALERT_EMAIL_ADMIN=admin@example.com

# Database credentials
POSTGRES_USER=myuser
POSTGRES_PASSWORD=change_me
`
