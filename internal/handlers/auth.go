package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"expenses/internal/auth"
	"expenses/internal/middleware"
	"expenses/internal/models"
	"expenses/internal/store"
	"expenses/internal/validator"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(w, r, "failed to secure password", err)
		return
	}
	var user models.User
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		created, err := h.users.Create(r.Context(), tx, req.Username, passwordHash)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "username already exists")
			return
		}
		h.internalError(w, r, "registration failed", err)
		return
	}
	h.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	respondJSON(w, http.StatusCreated, newUserResponse(user))
}

// readCredentials accepts either a JSON body or an OAuth2 password-style form.
func readCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return credentialsRequest{}, err
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return credentialsRequest{}, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(r)
	if err != nil || req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.internalError(w, r, "login failed", err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusUnauthorized, "inactive user")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, user.Username, h.cfg.TokenTTL)
	if err != nil {
		h.internalError(w, r, "failed to generate token", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.internalError(w, r, "unable to load user", err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}
