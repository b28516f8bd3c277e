package server

import (
	"errors"
	"log"
	"net/http"

	"podcastauth/internal/auth"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// handleForgotPassword answers identically whether or not an account exists
// for the address, so the endpoint reveals nothing about registrations.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.Accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		var vErr *auth.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Reason)
			return
		}
		log.Printf("forgot password: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that address, a reset email has been sent.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := s.Accounts.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Reason)
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, http.StatusBadRequest, "Invalid or expired link.")
		default:
			log.Printf("reset password: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to reset password")
		}
		return
	}

	// A reset proves control of the mailbox, so any other sessions for the
	// account are revoked.
	if err := s.Sessions.DeleteByAccount(r.Context(), account.ID); err != nil {
		log.Printf("reset password: revoke sessions for account %s: %v", account.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated. You can now sign in.",
	})
}
