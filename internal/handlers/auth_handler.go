package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilimbagdar/internal/middleware"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
	"bilimbagdar/internal/service"
	"bilimbagdar/pkg/validator"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token and the resolved account
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// BootstrapRequest represents the first-teacher registration request
type BootstrapRequest struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
}

// BootstrapStatusResponse reports whether first-teacher registration is open
type BootstrapStatusResponse struct {
	BootstrapRequired bool `json:"bootstrap_required"`
}

// Login handles user login
// @Summary Log in
// @Description Resolve username and password to a JWT access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 409 {object} map[string]string "Bootstrap required"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapRequired):
			respondWithError(w, http.StatusConflict, "First teacher registration required")
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, repository.ErrUserNotFound):
			// one message for both, so usernames cannot be probed
			slog.Warn("Login failed", "username", req.Username, "remote_ip", getIP(r))
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		default:
			slog.Error("Login failed", "username", req.Username, "error", err)
			respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		}
		return
	}

	slog.Info("User logged in", "user_id", user.ID, "username", user.Username, "role", user.Role)

	respondWithJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  user,
	})
}

// BootstrapStatus reports whether the first-teacher registration is open
// @Summary Bootstrap status
// @Description Check whether the system still needs its first teacher account
// @Tags Authentication
// @Produce json
// @Success 200 {object} BootstrapStatusResponse
// @Router /auth/bootstrap [get]
func (h *AuthHandler) BootstrapStatus(w http.ResponseWriter, r *http.Request) {
	required, err := h.authService.BootstrapRequired(r.Context())
	if err != nil {
		slog.Error("Failed to check bootstrap status", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, BootstrapStatusResponse{BootstrapRequired: required})
}

// Bootstrap registers the first teacher account
// @Summary Register the first teacher
// @Description One-time registration of the initial teacher account. Refused once a teacher exists.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body BootstrapRequest true "First teacher details"
// @Success 201 {object} LoginResponse "Teacher registered"
// @Failure 409 {object} map[string]string "Bootstrap already completed"
// @Router /auth/bootstrap [post]
func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.RegisterFirstTeacher(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrBootstrapDone) {
			respondWithError(w, http.StatusConflict, "Bootstrap already completed")
			return
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			respondWithError(w, http.StatusConflict, "Username already taken")
			return
		}
		slog.Error("Bootstrap registration failed", "username", req.Username, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	// log the new teacher straight in
	_, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		slog.Error("Post-bootstrap login failed", "username", req.Username, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusCreated, LoginResponse{
		Token: token,
		User:  user,
	})
}

// Me returns the authenticated user's own account
// @Summary Current user
// @Description Return the account behind the presented token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUserIDNotFound)
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgUserNotFound)
			return
		}
		slog.Error("Failed to load current user", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}
