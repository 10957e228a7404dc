package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/Abichu1/gym-members/internal/adapters/assets"
	emailPkg "github.com/Abichu1/gym-members/internal/adapters/email"
	web "github.com/Abichu1/gym-members/internal/adapters/http"
	"github.com/Abichu1/gym-members/internal/adapters/http/perf"
	"github.com/Abichu1/gym-members/internal/adapters/storage"
	memberStore "github.com/Abichu1/gym-members/internal/adapters/storage/member"
	"github.com/Abichu1/gym-members/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	collector := perf.NewCollector(perf.DefaultRingSize)

	// MEMBERS_DB is a SQLite path by default, or a postgres:// DSN.
	dbTarget := envOrDefault("MEMBERS_DB", "members.db")
	store, closeDB := openMemberStore(dbTarget, collector)
	defer closeDB()

	uploadsRoot := envOrDefault("MEMBERS_UPLOADS", "uploads")
	assetStore := assets.NewDiskStore(uploadsRoot)

	stores := &web.Stores{
		MemberStore: store,
		AssetStore:  assetStore,
	}

	// Configure email sender for expiry reminders
	resendKey := os.Getenv("MEMBERS_RESEND_KEY")
	emailFrom := envOrDefault("MEMBERS_RESEND_FROM", "Gym Members <noreply@example.com>")
	emailReply := envOrDefault("MEMBERS_REPLY_TO", "info@example.com")
	var sender emailPkg.Sender
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("MEMBERS_ENV") == "production" {
			log.Println("WARNING: MEMBERS_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set MEMBERS_RESEND_KEY for real delivery)")
		}
	}

	// Start expiry reminder background worker
	remindEvery := durationOrDefault("MEMBERS_REMIND_EVERY", time.Hour)
	reminderStopCh := make(chan struct{})
	orchestrators.StartReminderWorker(orchestrators.RemindExpiringDeps{
		MemberStore: store,
		Sender:      sender,
		From:        emailFrom,
		ReplyTo:     emailReply,
	}, remindEvery, reminderStopCh)
	defer close(reminderStopCh)

	// Create HTTP handler with middleware (pass collector for timing + stats)
	mux := web.NewMux("static", uploadsRoot, stores, collector)

	// Start server
	addr := envOrDefault("MEMBERS_ADDR", ":8080")
	log.Printf("Gym members %s starting on %s (env=%s, db=%s)", version, addr, envOrDefault("MEMBERS_ENV", "development"), dbTarget)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// openMemberStore opens the configured database and returns a ready store.
// A postgres:// (or postgresql://) DSN selects the Postgres store; anything
// else is treated as a SQLite file path.
func openMemberStore(target string, collector *perf.Collector) (memberStore.Store, func()) {
	if strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://") {
		pool, err := pgxpool.New(context.Background(), target)
		if err != nil {
			log.Fatalf("failed to open postgres pool: %v", err)
		}
		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("database unreachable: %v", err)
		}
		store := memberStore.NewPostgresStore(pool)
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("failed to initialize schema: %v", err)
		}
		log.Println("Database initialized successfully (postgres)")
		return store, pool.Close
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := target + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}
	log.Println("Database initialized successfully (sqlite)")

	// Wrap with timing instrumentation for the stats endpoint
	timedDB := storage.NewTimedDB(db, collector)
	return memberStore.NewSQLiteStore(timedDB), func() { db.Close() }
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault parses a Go duration from the environment ("30m", "2h").
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s must be a duration like 30m or 2h: %v", key, err)
	}
	return d
}
