package server

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"podcastauth/internal/auth"
	"podcastauth/internal/config"
	"podcastauth/internal/oauth"
)

// identityProvider is the slice of the OAuth client the handlers call.
type identityProvider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.IdentityClaims, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (*oauth.IdentityClaims, error)
}

type Server struct {
	Accounts       *auth.AccountService
	Tokens         *auth.TokenService
	Sessions       *auth.SessionStore
	Google         identityProvider
	States         oauthStateStore
	Config         config.Config
	trustedProxies []net.IPNet
}

func NewServer(cfg config.Config, accounts *auth.AccountService, tokens *auth.TokenService, sessions *auth.SessionStore, google *oauth.Client, redisClient *redis.Client) *Server {
	s := &Server{
		Accounts:       accounts,
		Tokens:         tokens,
		Sessions:       sessions,
		States:         &redisStateStore{client: redisClient},
		Config:         cfg,
		trustedProxies: parseProxyCIDRs(cfg.TrustedProxies),
	}
	// Assigned only when configured, so the nil check in the handlers holds.
	if google != nil {
		s.Google = google
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	formatter := &middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "", log.Flags()),
		NoColor: true,
	}
	r.Use(middleware.RequestLogger(formatter))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)

	r.Post("/api/signup", s.handleSignUp)
	r.Post("/api/verify-email", s.handleVerifyEmail)
	r.Post("/api/resend-verification", s.handleResendVerification)
	r.Post("/api/create-password", s.handleCreatePassword)
	r.Post("/api/forgot-password", s.handleForgotPassword)
	r.Post("/api/reset-password", s.handleResetPassword)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)

	r.Get("/api/oauth/google/start", s.handleOAuthStart)
	r.Get("/api/oauth/google/callback", s.handleOAuthCallback)
	r.Post("/api/oauth/verify-token", s.handleVerifyIdentityToken)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)
		pr.Get("/api/auth/me", s.handleMe)
	})

	return r
}
