package handler

import (
	"net/http"

	"retail-pos/internal/auth"
	"retail-pos/internal/model"
	"retail-pos/internal/service"

	"github.com/rs/zerolog"
)

type registerResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data"`
}

type loginResponse struct {
	Success bool              `json:"success"`
	Token   string            `json:"token"`
	User    model.UserSummary `json:"user"`
}

type profileResponse struct {
	Success bool        `json:"success"`
	Data    *model.User `json:"data"`
}

// AuthHandler handles account registration, login and profile requests.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "registration successful",
		Data:    map[string]string{"email": user.Email},
	})
}

// Login handles POST /api/auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

// Profile handles GET /api/auth/profile requests. It must sit behind the
// bearer token middleware.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.NewAuthError("authentication required"), h.logger)
		return
	}

	user, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Success: true, Data: user})
}
