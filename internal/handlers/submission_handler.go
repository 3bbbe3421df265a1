package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bilimbagdar/internal/middleware"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
	"bilimbagdar/internal/service"
	"bilimbagdar/pkg/validator"
)

// maxUploadBytes caps the total size of a multipart submission.
const maxUploadBytes = 32 << 20

// SubmissionHandler handles submissions and coaching chat
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	authService       *service.AuthService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *service.SubmissionService, authService *service.AuthService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		authService:       authService,
	}
}

// SubmitRequest represents a JSON submission. Files arrive base64-encoded;
// multipart submissions carry them as form files instead.
type SubmitRequest struct {
	HomeworkID  string               `json:"hw_id" validate:"required"`
	WorkText    string               `json:"work_text" validate:"required"`
	FinalAnswer string               `json:"final_answer"`
	Transcript  []models.ChatMessage `json:"transcript"`
	Files       []SubmitFile         `json:"files"`
}

// SubmitFile is one base64-encoded upload inside a JSON submission
type SubmitFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	DataB64 string `json:"data_b64"`
}

// CoachRequest represents one turn of a coaching session. The transcript
// travels with every request; the server holds no chat state.
type CoachRequest struct {
	HomeworkID string               `json:"hw_id" validate:"required"`
	Transcript []models.ChatMessage `json:"transcript" validate:"required,min=1"`
}

// CoachResponse carries the assistant's next reply
type CoachResponse struct {
	Reply string `json:"reply"`
}

// Submit records a homework submission
// @Summary Submit homework
// @Description Hand in completed work. Accepts JSON or multipart/form-data with file uploads. Student role required.
// @Tags Submissions
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequest true "Submission"
// @Success 201 {object} models.Submission
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Homework not found"
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	student, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var in service.SubmitInput
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		in, err = parseMultipartSubmission(r)
	} else {
		in, err = parseJSONSubmission(r)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.submissionService.Submit(r.Context(), student, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrHomeworkRequired):
			respondWithError(w, http.StatusNotFound, ErrMsgHomeworkNotFound)
		default:
			slog.Error("Failed to record submission", "student", student.Username, "error", err)
			respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, sub)
}

// Coach produces the next coaching reply for a chat transcript
// @Summary Coaching chat turn
// @Description Generate the assistant's next reply for a homework coaching session. Student role required.
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CoachRequest true "Transcript so far"
// @Success 200 {object} CoachResponse
// @Failure 404 {object} map[string]string "Homework not found"
// @Router /coach [post]
func (h *SubmissionHandler) Coach(w http.ResponseWriter, r *http.Request) {
	var req CoachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.submissionService.Coach(r.Context(), req.HomeworkID, req.Transcript)
	if err != nil {
		if errors.Is(err, service.ErrHomeworkRequired) {
			respondWithError(w, http.StatusNotFound, ErrMsgHomeworkNotFound)
			return
		}
		slog.Error("Coach reply failed", "hw_id", req.HomeworkID, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, CoachResponse{Reply: reply})
}

// ListMine returns the authenticated student's own submissions
// @Summary My submissions
// @Description List the caller's own submissions, newest last.
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Submission
// @Router /submissions/mine [get]
func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsername(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	subs, err := h.submissionService.ListForStudent(r.Context(), username)
	if err != nil {
		slog.Error("Failed to list submissions", "student", username, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

// ListAll returns every submission, optionally filtered by homework
// @Summary Review queue
// @Description List all submissions. With the hw_id query parameter, only those for one assignment. Teacher role required.
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param hw_id query string false "Homework ID"
// @Success 200 {array} models.Submission
// @Router /submissions [get]
func (h *SubmissionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	hwID := r.URL.Query().Get("hw_id")

	var (
		subs []models.Submission
		err  error
	)
	if hwID != "" {
		subs, err = h.submissionService.ListForHomework(r.Context(), hwID)
	} else {
		subs, err = h.submissionService.ListAll(r.Context())
	}
	if err != nil {
		slog.Error("Failed to list submissions", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUserIDNotFound)
		return nil, false
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondWithError(w, http.StatusUnauthorized, ErrMsgUserNotFound)
			return nil, false
		}
		slog.Error("Failed to load user", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return nil, false
	}
	return user, true
}

func parseJSONSubmission(r *http.Request) (service.SubmitInput, error) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return service.SubmitInput{}, errors.New(ErrMsgInvalidRequestBody)
	}
	if err := validator.ValidateStruct(&req); err != nil {
		return service.SubmitInput{}, err
	}

	files := make([]service.FileUpload, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.DataB64)
		if err != nil {
			return service.SubmitInput{}, errors.New("invalid base64 file data: " + f.Name)
		}
		files = append(files, service.FileUpload{
			Name:        f.Name,
			ContentType: f.Type,
			Data:        data,
		})
	}

	return service.SubmitInput{
		HomeworkID:  req.HomeworkID,
		WorkText:    req.WorkText,
		FinalAnswer: req.FinalAnswer,
		Transcript:  req.Transcript,
		Files:       files,
	}, nil
}

func parseMultipartSubmission(r *http.Request) (service.SubmitInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return service.SubmitInput{}, errors.New("invalid multipart form")
	}

	in := service.SubmitInput{
		HomeworkID:  r.FormValue("hw_id"),
		WorkText:    r.FormValue("work_text"),
		FinalAnswer: r.FormValue("final_answer"),
	}
	if in.HomeworkID == "" {
		return service.SubmitInput{}, errors.New("hw_id is required")
	}

	if transcript := r.FormValue("transcript"); transcript != "" {
		if err := json.Unmarshal([]byte(transcript), &in.Transcript); err != nil {
			return service.SubmitInput{}, errors.New("invalid transcript JSON")
		}
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return service.SubmitInput{}, errors.New("failed to read upload: " + fh.Filename)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return service.SubmitInput{}, errors.New("failed to read upload: " + fh.Filename)
			}
			in.Files = append(in.Files, service.FileUpload{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	return in, nil
}
