package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bilimbagdar/internal/auth"
	"bilimbagdar/internal/config"
	"bilimbagdar/internal/handlers"
	"bilimbagdar/internal/middleware"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/service"
	"bilimbagdar/internal/testutil"
)

// newTestServer wires the full router over a throwaway file store, the same
// shape as cmd/api.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	repos := testutil.SetupRepos(t)

	authService := auth.NewService(&config.JWTConfig{Expiration: time.Hour})
	reflectionService := service.NewReflectionService(nil)
	authSvc := service.NewAuthService(repos.Users, authService)
	adminService := service.NewAdminService(repos.Users, repos.Homeworks, authService)
	submissionService := service.NewSubmissionService(repos.Submissions, repos.Homeworks, reflectionService, nil)
	analyticsService := service.NewAnalyticsService(repos.Users, repos.Homeworks, repos.Submissions)

	authMw := middleware.NewAuthMiddleware(authService)
	rbacMw := middleware.NewRBACMiddleware()
	teacherOnly := rbacMw.RequireRole(models.RoleTeacher)
	studentOnly := rbacMw.RequireRole(models.RoleStudent)

	authHandler := handlers.NewAuthHandler(authSvc)
	homeworkHandler := handlers.NewHomeworkHandler(adminService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, authSvc)
	userHandler := handlers.NewUserHandler(adminService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/auth/bootstrap", authHandler.BootstrapStatus)
	mux.HandleFunc("POST /api/v1/auth/bootstrap", authHandler.Bootstrap)
	mux.Handle("GET /api/v1/auth/me", authMw.Authenticate(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /api/v1/homeworks", authMw.Authenticate(http.HandlerFunc(homeworkHandler.List)))
	mux.Handle("POST /api/v1/homeworks",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(homeworkHandler.Create))))
	mux.Handle("POST /api/v1/submissions",
		authMw.Authenticate(studentOnly(http.HandlerFunc(submissionHandler.Submit))))
	mux.Handle("GET /api/v1/submissions/mine",
		authMw.Authenticate(studentOnly(http.HandlerFunc(submissionHandler.ListMine))))
	mux.Handle("POST /api/v1/coach",
		authMw.Authenticate(studentOnly(http.HandlerFunc(submissionHandler.Coach))))
	mux.Handle("GET /api/v1/submissions",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(submissionHandler.ListAll))))
	mux.Handle("POST /api/v1/users",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(userHandler.AddStudent))))
	mux.Handle("GET /api/v1/users",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(userHandler.List))))
	mux.Handle("GET /api/v1/analytics/overview",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(analyticsHandler.Overview))))

	return mux
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// bootstrapTeacher runs the first-teacher registration and returns its token
func bootstrapTeacher(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := doJSON(t, h, "POST", "/api/v1/auth/bootstrap", "", map[string]string{
		"username":     "mugalim",
		"password":     "password123",
		"display_name": "Айгүл Мұғалім",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Bootstrap failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp handlers.LoginResponse
	decode(t, rec, &resp)
	return resp.Token
}

func TestBootstrapLifecycle(t *testing.T) {
	h := newTestServer(t)

	var status handlers.BootstrapStatusResponse
	rec := doJSON(t, h, "GET", "/api/v1/auth/bootstrap", "", nil)
	decode(t, rec, &status)
	if !status.BootstrapRequired {
		t.Fatal("Fresh system should require bootstrap")
	}

	// login is refused until the first teacher exists
	rec = doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "anyone", "password": "whatever",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 before bootstrap, got %d", rec.Code)
	}

	bootstrapTeacher(t, h)

	rec = doJSON(t, h, "GET", "/api/v1/auth/bootstrap", "", nil)
	decode(t, rec, &status)
	if status.BootstrapRequired {
		t.Error("Bootstrap should be closed")
	}

	// the path is closed for good
	rec = doJSON(t, h, "POST", "/api/v1/auth/bootstrap", "", map[string]string{
		"username": "second", "password": "password123", "display_name": "Басқа",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for second bootstrap, got %d", rec.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	h := newTestServer(t)
	teacherToken := bootstrapTeacher(t, h)

	// teacher creates a student
	rec := doJSON(t, h, "POST", "/api/v1/users", teacherToken, map[string]string{
		"username": "aruzhan", "password": "password123", "display_name": "Аружан", "class": "7",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to add student: %d %s", rec.Code, rec.Body.String())
	}

	var login handlers.LoginResponse
	rec = doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "aruzhan", "password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Student login failed: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &login)
	studentToken := login.Token

	// students cannot reach teacher routes
	rec = doJSON(t, h, "GET", "/api/v1/users", studentToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Student on teacher route: expected 403, got %d", rec.Code)
	}

	// teachers cannot submit homework
	rec = doJSON(t, h, "POST", "/api/v1/submissions", teacherToken, map[string]string{
		"hw_id": "x", "work_text": "y",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Teacher on student route: expected 403, got %d", rec.Code)
	}

	// no token at all
	rec = doJSON(t, h, "GET", "/api/v1/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Missing token: expected 401, got %d", rec.Code)
	}
}

func TestHomeworkSubmissionFlow(t *testing.T) {
	h := newTestServer(t)
	teacherToken := bootstrapTeacher(t, h)

	// publish an assignment
	rec := doJSON(t, h, "POST", "/api/v1/homeworks", teacherToken, map[string]interface{}{
		"class":      "7",
		"date":       "2026-01-15",
		"topic":      "Linear equations",
		"task_text":  "2x + 3 = 11 теңдеуін шеш",
		"step_hints": []string{"Екі жағынан 3-ті азайт"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to create homework: %d %s", rec.Code, rec.Body.String())
	}
	var hw models.Homework
	decode(t, rec, &hw)

	// enroll and log in a student
	rec = doJSON(t, h, "POST", "/api/v1/users", teacherToken, map[string]string{
		"username": "aruzhan", "password": "password123", "display_name": "Аружан", "class": "7",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to add student: %d", rec.Code)
	}
	var login handlers.LoginResponse
	rec = doJSON(t, h, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "aruzhan", "password": "password123",
	})
	decode(t, rec, &login)
	studentToken := login.Token

	// the student sees the assignment for their class and date
	rec = doJSON(t, h, "GET", "/api/v1/homeworks?class=7&date=2026-01-15", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Failed to list homework: %d", rec.Code)
	}
	var listed []models.Homework
	decode(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != hw.ID {
		t.Fatalf("Expected the published homework, got %v", listed)
	}

	// a coaching turn works without any model configured
	rec = doJSON(t, h, "POST", "/api/v1/coach", studentToken, map[string]interface{}{
		"hw_id": hw.ID,
		"transcript": []models.ChatMessage{
			{Role: "user", Content: "Қалай бастаймын?"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Coach turn failed: %d %s", rec.Code, rec.Body.String())
	}
	var coach handlers.CoachResponse
	decode(t, rec, &coach)
	if coach.Reply == "" {
		t.Error("Coach reply should not be empty")
	}

	// submit the finished work
	rec = doJSON(t, h, "POST", "/api/v1/submissions", studentToken, map[string]interface{}{
		"hw_id":        hw.ID,
		"work_text":    "2x = 8, x = 4",
		"final_answer": "4",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Submission failed: %d %s", rec.Code, rec.Body.String())
	}
	var sub models.Submission
	decode(t, rec, &sub)
	if sub.Correct != models.CorrectnessUnknown {
		t.Errorf("No expected answer was set, correctness should be unknown, got %q", sub.Correct)
	}
	if sub.Attachments == nil {
		t.Error("Attachments should encode as [], not null")
	}

	// the teacher's review queue has it
	rec = doJSON(t, h, "GET", "/api/v1/submissions", teacherToken, nil)
	var queue []models.Submission
	decode(t, rec, &queue)
	if len(queue) != 1 || queue[0].StudentUsername != "aruzhan" {
		t.Errorf("Review queue wrong: %v", queue)
	}

	// and the dashboard counts it
	rec = doJSON(t, h, "GET", "/api/v1/analytics/overview", teacherToken, nil)
	var overview service.ClassOverview
	decode(t, rec, &overview)
	if overview.Submissions != 1 || overview.Students != 1 {
		t.Errorf("Overview wrong: %+v", overview)
	}
}

func TestDuplicateStudentUsername(t *testing.T) {
	h := newTestServer(t)
	teacherToken := bootstrapTeacher(t, h)

	body := map[string]string{
		"username": "aruzhan", "password": "password123", "display_name": "Аружан", "class": "7",
	}
	if rec := doJSON(t, h, "POST", "/api/v1/users", teacherToken, body); rec.Code != http.StatusCreated {
		t.Fatalf("First create failed: %d", rec.Code)
	}

	body["username"] = "ARUZHAN"
	rec := doJSON(t, h, "POST", "/api/v1/users", teacherToken, body)
	if rec.Code != http.StatusConflict {
		t.Errorf("Case-insensitive duplicate: expected 409, got %d", rec.Code)
	}
}
