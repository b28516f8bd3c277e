package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"podcastauth/internal/auth"
)

type signUpRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.Accounts.SignUp(r.Context(), req.Email)
	if err != nil {
		var vErr *auth.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Reason)
			return
		}
		log.Printf("signup: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	switch result.Outcome {
	case auth.SignUpAlreadyRegistered:
		writeError(w, http.StatusConflict, "An account with this email already exists. Please sign in.")
	case auth.SignUpNeedsPassword:
		writeJSON(w, http.StatusOK, map[string]string{
			"message":   "This email is already verified. Please create a password to finish setting up.",
			"next":      "create_password",
			"accountId": result.Account.ID,
		})
	case auth.SignUpVerificationResent:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "A new verification email has been sent. Please check your inbox.",
			"next":    "verify_email",
		})
	default:
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "Account created. Please check your email to verify your address.",
			"next":    "verify_email",
		})
	}
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := s.Accounts.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid or expired link.")
			return
		}
		log.Printf("verify email: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to verify email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Email successfully verified.",
		"next":      "create_password",
		"accountId": account.ID,
	})
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.Accounts.ResendVerification(r.Context(), req.Email); err != nil {
		var vErr *auth.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Reason)
			return
		}
		log.Printf("resend verification: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a verification email has been sent.",
	})
}

type createPasswordRequest struct {
	AccountID string `json:"accountId"`
	Password  string `json:"password"`
}

func (s *Server) handleCreatePassword(w http.ResponseWriter, r *http.Request) {
	var req createPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := s.Accounts.CreatePassword(r.Context(), req.AccountID, req.Password)
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Reason)
		case errors.Is(err, auth.ErrEmailNotVerified):
			writeError(w, http.StatusForbidden, "Please verify your email first.")
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, http.StatusBadRequest, "Account not found.")
		default:
			log.Printf("create password: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to set password")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password created. You can now sign in."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	account, err := s.Accounts.AuthenticatePassword(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS")
		case errors.Is(err, auth.ErrEmailNotVerified):
			writeError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED")
		default:
			log.Printf("login: %v", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	if err := s.startSession(w, r, account); err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_CREATE_FAILED")
		return
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = s.Sessions.Delete(r.Context(), cookie.Value)
	}
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED")
		return
	}

	account, err := s.Accounts.Store.AccountByID(r.Context(), sess.AccountID)
	if err != nil {
		log.Printf("me: load account: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            account.ID,
		"email":         account.Email,
		"emailVerified": account.EmailVerified,
		"hasPassword":   account.HasPassword(),
		"oauthLinked":   account.ExternalID != nil,
		"lastLoginAt":   account.LastLoginAt,
	})
}

// startSession creates the redis session, sets the cookie, and writes the
// login response body.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, account *auth.Account) error {
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
		log.Printf("session create for account %s: %v", account.ID, err)
		return err
	}
	auth.SetSessionCookie(w, sess.ID, sess.ExpiresAt)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"id":            account.ID,
			"email":         account.Email,
			"emailVerified": account.EmailVerified,
			"hasPassword":   account.HasPassword(),
			"oauthLinked":   account.ExternalID != nil,
		},
		"sessionId": sess.ID,
	})
	return nil
}
