package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/caarlos0/env/v11"

	emailPkg "felicity/internal/adapters/email"
	web "felicity/internal/adapters/http"
	"felicity/internal/adapters/storage"
	attendanceStore "felicity/internal/adapters/storage/attendance"
	eventStore "felicity/internal/adapters/storage/event"
	organizerStore "felicity/internal/adapters/storage/organizer"
	participantStore "felicity/internal/adapters/storage/participant"
	registrationStore "felicity/internal/adapters/storage/registration"
	teamStore "felicity/internal/adapters/storage/team"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// config is loaded from the environment at startup.
type config struct {
	Env            string   `env:"FELICITY_ENV" envDefault:"development"`
	Addr           string   `env:"FELICITY_ADDR" envDefault:":8080"`
	DBPath         string   `env:"FELICITY_DB_PATH" envDefault:"felicity.db"`
	BaseURL        string   `env:"FELICITY_BASE_URL" envDefault:"http://localhost:8080"`
	CSRFKeyHex     string   `env:"FELICITY_CSRF_KEY"`
	TrustedOrigins []string `env:"FELICITY_TRUSTED_ORIGINS" envDefault:"localhost:8080,127.0.0.1:8080"`
	RatePerSecond  int      `env:"FELICITY_RATE_LIMIT" envDefault:"10"`
	ResendKey      string   `env:"FELICITY_RESEND_KEY"`
	EmailFrom      string   `env:"FELICITY_RESEND_FROM" envDefault:"Felicity <noreply@felicity.iiit.ac.in>"`
}

// csrfKey decodes the configured key or generates a throwaway one outside
// production.
func (c config) csrfKey() []byte {
	if c.CSRFKeyHex != "" {
		key, err := hex.DecodeString(c.CSRFKeyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("FELICITY_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if c.Env == "production" {
		log.Fatal("FELICITY_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key. Set FELICITY_CSRF_KEY for production.")
	return key
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment: %v", err)
	}

	// WAL mode, foreign keys, and busy timeout for concurrent registrations
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	slog.Info("database_ready", "path", cfg.DBPath)

	stores := &web.Stores{
		EventStore:        eventStore.NewSQLiteStore(db),
		ParticipantStore:  participantStore.NewSQLiteStore(db),
		RegistrationStore: registrationStore.NewSQLiteStore(db),
		TeamStore:         teamStore.NewSQLiteStore(db),
		AttendanceStore:   attendanceStore.NewSQLiteStore(db),
		OrganizerStore:    organizerStore.NewSQLiteStore(db),
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Env == "production" {
			slog.Warn("email_delivery_disabled", "reason", "FELICITY_RESEND_KEY not set")
		} else {
			slog.Info("email_sender_configured", "provider", "noop")
		}
	}

	handler := web.NewMux(web.Config{
		BaseURL:            cfg.BaseURL,
		CSRFKey:            cfg.csrfKey(),
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RatePerSecond,
	}, stores, sender)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	slog.Info("server_starting", "addr", cfg.Addr, "version", version, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
