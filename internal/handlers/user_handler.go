package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilimbagdar/internal/service"
	"bilimbagdar/pkg/validator"
)

// UserHandler handles account administration
type UserHandler struct {
	adminService *service.AdminService
}

// NewUserHandler creates a new user handler
func NewUserHandler(adminService *service.AdminService) *UserHandler {
	return &UserHandler{
		adminService: adminService,
	}
}

// AddStudentRequest represents a new student account
type AddStudentRequest struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
	Class       string `json:"class" validate:"required"`
}

// AddStudent creates a student account
// @Summary Add a student
// @Description Create a student account. Usernames are unique case-insensitively. Teacher role required.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddStudentRequest true "Student details"
// @Success 201 {object} models.User
// @Failure 409 {object} map[string]string "Username taken"
// @Router /users [post]
func (h *UserHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	var req AddStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.adminService.AddStudent(r.Context(), service.StudentInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Class:       req.Class,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			respondWithError(w, http.StatusConflict, "Username already taken")
		case errors.Is(err, service.ErrValidation):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to add student", "username", req.Username, "error", err)
			respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		}
		return
	}

	slog.Info("Student account created", "user_id", user.ID, "username", user.Username, "class", user.Class)

	respondWithJSON(w, http.StatusCreated, user)
}

// List returns all accounts
// @Summary List users
// @Description Roster view of every account. Teacher role required.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}
