package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"podcastauth/internal/auth"
	"podcastauth/internal/oauth"
)

const oauthExchangeTTL = 15 * time.Second

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		writeError(w, http.StatusNotFound, "Google sign-in is not configured")
		return
	}

	state := auth.NewSessionID()
	if err := s.States.Put(r.Context(), state); err != nil {
		log.Printf("oauth start: store state: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to start sign-in")
		return
	}

	http.Redirect(w, r, s.Google.AuthorizationURL(state), http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		writeError(w, http.StatusNotFound, "Google sign-in is not configured")
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Printf("oauth callback: provider returned %q", errParam)
		http.Redirect(w, r, s.Config.BaseURL+"?auth_error=oauth_denied", http.StatusFound)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "Missing state or code")
		return
	}

	// A store outage is not a client mistake; only an absent state is.
	known, err := s.States.Take(r.Context(), state)
	if err != nil {
		log.Printf("oauth callback: state lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to complete sign-in")
		return
	}
	if !known {
		log.Printf("oauth callback: unknown state")
		writeError(w, http.StatusBadRequest, "Invalid or expired state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oauthExchangeTTL)
	defer cancel()

	claims, err := s.Google.Exchange(ctx, code)
	if err != nil {
		var vErr *oauth.VerificationError
		if errors.As(err, &vErr) {
			log.Printf("oauth callback: token rejected: %v", err)
			writeError(w, http.StatusUnauthorized, "Identity token rejected")
			return
		}
		log.Printf("oauth callback: exchange: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to complete sign-in")
		return
	}

	account, err := s.Accounts.CreateOrMatchExternal(r.Context(), oauthIdentity(claims))
	if err != nil {
		log.Printf("oauth callback: account for sub %s: %v", claims.Subject, err)
		writeError(w, http.StatusInternalServerError, "Failed to complete sign-in")
		return
	}

	now := time.Now()
	sess := auth.Session{
		ID:        auth.NewSessionID(),
		AccountID: account.ID,
		IP:        clientIP(r, s.trustedProxies),
		UserAgent: r.UserAgent(),
		LoginTime: now,
		ExpiresAt: now.Add(s.Config.SessionTTL),
	}
	if err := s.Sessions.Create(r.Context(), sess); err != nil {
		log.Printf("oauth callback: session create: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to complete sign-in")
		return
	}
	auth.SetSessionCookie(w, sess.ID, sess.ExpiresAt)

	http.Redirect(w, r, s.Config.BaseURL, http.StatusFound)
}

type verifyIdentityTokenRequest struct {
	IDToken string `json:"idToken"`
}

// handleVerifyIdentityToken accepts an ID token obtained by a native client
// and signs the account in without the browser redirect dance.
func (s *Server) handleVerifyIdentityToken(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		writeError(w, http.StatusNotFound, "Google sign-in is not configured")
		return
	}

	var req verifyIdentityTokenRequest
	if err := decodeJSON(r, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oauthExchangeTTL)
	defer cancel()

	claims, err := s.Google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		log.Printf("verify identity token: %v", err)
		writeError(w, http.StatusUnauthorized, "Identity token rejected")
		return
	}

	account, err := s.Accounts.CreateOrMatchExternal(r.Context(), oauthIdentity(claims))
	if err != nil {
		log.Printf("verify identity token: account for sub %s: %v", claims.Subject, err)
		writeError(w, http.StatusInternalServerError, "Failed to complete sign-in")
		return
	}

	if err := s.startSession(w, r, account); err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_CREATE_FAILED")
	}
}

func oauthIdentity(claims *oauth.IdentityClaims) auth.ExternalIdentity {
	return auth.ExternalIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}
}
