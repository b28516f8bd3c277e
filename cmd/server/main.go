package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"podcastauth/internal/auth"
	"podcastauth/internal/config"
	"podcastauth/internal/database"
	"podcastauth/internal/email"
	"podcastauth/internal/logging"
	"podcastauth/internal/oauth"
	"podcastauth/internal/server"
)

const tokenPruneInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogFile != "" {
		fw, err := logging.Open(cfg.LogFile)
		if err != nil {
			log.Fatalf("log setup error: %v", err)
		}
		defer fw.Close()
		logOutput = io.MultiWriter(os.Stdout, fw)
	}
	log.SetOutput(logOutput)
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("redis error: %v", err)
	}
	cancel()

	store := auth.NewRepository(db)
	policy := auth.NewSecurityPolicy()
	tokens := auth.NewTokenService(store, policy)
	sessions := &auth.SessionStore{Redis: redisClient}
	links := auth.LinkBuilder{BaseURL: cfg.BaseURL}

	var notifier auth.Notifier
	if cfg.Email.Enabled() {
		notifier = email.NewSender(cfg.Email)
	} else {
		log.Print("email not configured, logging outgoing mail instead")
		notifier = &email.LogNotifier{}
	}

	accounts := auth.NewAccountService(store, tokens, policy, notifier, links)

	var google *oauth.Client
	if cfg.OAuth.Google.Enabled() {
		google, err = oauth.NewGoogleClient(ctx, cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.OAuth.Google.RedirectURL)
		if err != nil {
			log.Fatalf("google oauth error: %v", err)
		}
	} else {
		log.Print("google oauth not configured, provider sign-in disabled")
	}

	go pruneExpiredTokens(ctx, store)

	api := server.NewServer(cfg, accounts, tokens, sessions, google, redisClient)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// pruneExpiredTokens clears expired verification and reset tokens on an
// hourly tick. The tokens are already unusable; this keeps the tables small.
func pruneExpiredTokens(ctx context.Context, store auth.CredentialStore) {
	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if err := store.DeleteExpiredTokens(pruneCtx, time.Now()); err != nil {
				log.Printf("token prune: %v", err)
			}
			cancel()
		}
	}
}
