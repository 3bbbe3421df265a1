package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilimbagdar/internal/service"
	"bilimbagdar/pkg/validator"
)

// HomeworkHandler handles homework administration and listing
type HomeworkHandler struct {
	adminService *service.AdminService
}

// NewHomeworkHandler creates a new homework handler
func NewHomeworkHandler(adminService *service.AdminService) *HomeworkHandler {
	return &HomeworkHandler{
		adminService: adminService,
	}
}

// CreateHomeworkRequest represents a new assignment
type CreateHomeworkRequest struct {
	Class          string   `json:"class"`
	Date           string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Topic          string   `json:"topic" validate:"required"`
	TaskText       string   `json:"task_text" validate:"required"`
	ExpectedAnswer string   `json:"expected_answer"`
	StepHints      []string `json:"step_hints"`
}

// Create publishes a new homework assignment
// @Summary Publish homework
// @Description Create a new assignment. Teacher role required.
// @Tags Homework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateHomeworkRequest true "Assignment details"
// @Success 201 {object} models.Homework
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /homeworks [post]
func (h *HomeworkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateHomeworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	hw, err := h.adminService.CreateHomework(r.Context(), service.HomeworkInput{
		Class:          req.Class,
		Date:           req.Date,
		Topic:          req.Topic,
		TaskText:       req.TaskText,
		ExpectedAnswer: req.ExpectedAnswer,
		StepHints:      req.StepHints,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to create homework", "topic", req.Topic, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusCreated, hw)
}

// List returns assignments, optionally filtered by class and date
// @Summary List homework
// @Description List assignments. With class and date query parameters, returns only the matching ones.
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param class query string false "Class label"
// @Param date query string false "Calendar date (YYYY-MM-DD)"
// @Success 200 {array} models.Homework
// @Router /homeworks [get]
func (h *HomeworkHandler) List(w http.ResponseWriter, r *http.Request) {
	class := r.URL.Query().Get("class")
	date := r.URL.Query().Get("date")

	var (
		homeworks interface{}
		err       error
	)
	if class != "" || date != "" {
		homeworks, err = h.adminService.ListHomeworkForClassDate(r.Context(), class, date)
	} else {
		homeworks, err = h.adminService.ListHomework(r.Context())
	}
	if err != nil {
		slog.Error("Failed to list homework", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, homeworks)
}
