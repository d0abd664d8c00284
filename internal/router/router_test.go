package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/handler"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/realtime"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/store/memory"
	"github.com/stemsi/examportal-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t        *testing.T
	server   *httptest.Server
	idp      *identity.Local
	sessions *service.ExamSessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	validator.Setup()
	log := zerolog.Nop()
	cfg := &config.Config{GinMode: "test", StudentEmailDomain: "examportal.com"}

	feed := realtime.NewLocalFeed()
	s := realtime.Observe(memory.New().Store(), feed, log)
	idp := identity.NewLocal(identity.NewMemoryAccounts(), identity.NewTokenIssuer("secret", time.Hour),
		identity.NewMemorySessions(), bcrypt.MinCost, log)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	resolver := service.NewSessionResolver(idp, s.Users, cfg.StudentEmailDomain, log)
	exams := service.NewExamService(s, nil, time.Minute, log)
	students := service.NewStudentService(idp, s, cfg.StudentEmailDomain, log)
	sessions := service.NewExamSessionService(exams, s.Results, nil, m, log, service.WithTickInterval(time.Hour))
	t.Cleanup(sessions.Shutdown)

	h := &Handlers{
		Auth:          handler.NewAuthHandler(resolver),
		Admin:         handler.NewAdminHandler(service.NewTeacherService(idp, s.Users, log)),
		Catalog:       handler.NewCatalogHandler(service.NewCatalogService(s.Branches, s.Subjects, log)),
		StudentMgmt:   handler.NewStudentManagementHandler(students),
		Exam:          handler.NewExamHandler(exams),
		Dashboard:     handler.NewDashboardHandler(service.NewDashboardService(s, exams)),
		StudentPortal: handler.NewStudentPortalHandler(sessions, exams, students),
		WS:            handler.NewWSHandler(sessions, log, nil),
		Stream:        handler.NewStreamHandler(feed, log),
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	r := SetupRouter(resolver, h, m, middleware.NewRateLimiter(100, time.Minute), cfg)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	_, err := idp.CreateAccount(context.Background(), "admin@examportal.com", "admin-pass", true)
	require.NoError(t, err)
	return &harness{t: t, server: srv, idp: idp, sessions: sessions}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func (h *harness) do(method, path, token string, body interface{}) (int, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (h *harness) decode(env envelope, v interface{}) {
	h.t.Helper()
	require.NoError(h.t, json.Unmarshal(env.Data, v))
}

func (h *harness) login(path string, body interface{}) string {
	h.t.Helper()
	status, env := h.do(http.MethodPost, path, "", body)
	require.Equal(h.t, http.StatusOK, status)
	var res model.LoginResponse
	h.decode(env, &res)
	return res.Token
}

// provision creates a subject, a teacher, a student and an open exam, and
// returns the teacher token, student token and exam id.
func (h *harness) provision() (string, string, string) {
	h.t.Helper()
	admin := h.login("/api/v1/auth/login", obj{"email": "admin@examportal.com", "password": "admin-pass"})

	status, env := h.do(http.MethodPost, "/api/v1/admin/subjects", admin, obj{"name": "Physics"})
	require.Equal(h.t, http.StatusCreated, status)
	var sub struct{ Subject model.Subject }
	h.decode(env, &sub)

	status, _ = h.do(http.MethodPost, "/api/v1/admin/teachers", admin, obj{"name": "Ms. Rao", "email": "rao@examportal.com", "password": "teach-pass"})
	require.Equal(h.t, http.StatusCreated, status)
	teacher := h.login("/api/v1/auth/login", obj{"email": "rao@examportal.com", "password": "teach-pass"})

	status, _ = h.do(http.MethodPost, "/api/v1/teacher/students", teacher, obj{"name": "Asha", "registration_number": "21BCE1001", "password": "stud-pass"})
	require.Equal(h.t, http.StatusCreated, status)
	student := h.login("/api/v1/auth/student/login", obj{"registration_number": "21BCE1001", "password": "stud-pass"})

	now := time.Now().UTC()
	status, env = h.do(http.MethodPost, "/api/v1/teacher/exams", teacher, obj{
		"title":            "Mechanics",
		"subject_id":       sub.Subject.ID,
		"duration_minutes": 30,
		"start_time":       now.Add(-time.Hour),
		"end_time":         now.Add(time.Hour),
		"questions": []obj{
			{"text": "Unit of force?", "options": obj{"A": "N", "B": "J", "C": "W", "D": "Pa"}, "correct_answer": "A"},
			{"text": "Unit of power?", "options": obj{"A": "N", "B": "J", "C": "W", "D": "Pa"}, "correct_answer": "C"},
		},
	})
	require.Equal(h.t, http.StatusCreated, status)
	var created struct{ Exam model.Exam }
	h.decode(env, &created)
	return teacher, student, created.Exam.ID
}

type obj = map[string]interface{}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	status, env := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	_, student, _ := h.provision()

	status, env := h.do(http.MethodGet, "/api/v1/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_REQUIRED", env.Error.Code)

	status, env = h.do(http.MethodGet, "/api/v1/admin/dashboard", student, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	// A valid credential with no role record is not let in anywhere.
	_, err := h.idp.CreateAccount(context.Background(), "ghost@examportal.com", "ghost-pass", false)
	require.NoError(t, err)
	ghost := h.login("/api/v1/auth/login", obj{"email": "ghost@examportal.com", "password": "ghost-pass"})
	status, env = h.do(http.MethodGet, "/api/v1/student/dashboard", ghost, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE_UNRECOGNIZED", env.Error.Code)

	status, env = h.do(http.MethodPost, "/api/v1/auth/login", "", obj{"email": "nobody@examportal.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestExamLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	teacher, student, examID := h.provision()
	base := "/api/v1/student/exams/" + examID

	status, env := h.do(http.MethodGet, "/api/v1/student/dashboard", student, nil)
	require.Equal(t, http.StatusOK, status)
	var dash model.StudentDashboard
	h.decode(env, &dash)
	require.Len(t, dash.Exams, 1)
	assert.Equal(t, model.StudentExamAvailable, dash.Exams[0].Status)

	status, env = h.do(http.MethodPost, base+"/start", student, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_ACTIVE_ATTEMPT", env.Error.Code)

	status, env = h.do(http.MethodPost, base+"/enter", student, nil)
	require.Equal(t, http.StatusOK, status)
	var view service.AttemptView
	h.decode(env, &view)
	assert.Equal(t, "terms_gate", string(view.State))
	require.NotNil(t, view.Paper)
	assert.NotContains(t, string(env.Data), "correct_answer")

	status, _ = h.do(http.MethodPost, base+"/start", student, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(http.MethodPut, base+"/answers/1", student, obj{"answer": "A"})
	require.Equal(t, http.StatusOK, status)
	status, env = h.do(http.MethodPut, base+"/answers/2", student, obj{"answer": "E"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OPTION", env.Error.Code)
	status, env = h.do(http.MethodPut, base+"/answers/9", student, obj{"answer": "B"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_QUESTION", env.Error.Code)

	status, _ = h.do(http.MethodPost, base+"/navigate", student, obj{"index": 1})
	require.Equal(t, http.StatusOK, status)

	status, env = h.do(http.MethodPost, base+"/submit", student, nil)
	require.Equal(t, http.StatusOK, status)
	h.decode(env, &view)
	assert.Equal(t, "completed", string(view.State))
	require.NotNil(t, view.Result)
	assert.Equal(t, 50, view.Result.Score)
	assert.Len(t, view.Review, 2)

	// Entering again shows the stored result instead of a new attempt.
	status, env = h.do(http.MethodPost, base+"/enter", student, nil)
	require.Equal(t, http.StatusOK, status)
	h.decode(env, &view)
	assert.Equal(t, "completed", string(view.State))
	assert.Equal(t, "already_completed", string(view.Reason))

	status, env = h.do(http.MethodGet, "/api/v1/teacher/exams/"+examID+"/results", teacher, nil)
	require.Equal(t, http.StatusOK, status)
	var results struct{ Results []model.StudentResult }
	h.decode(env, &results)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "Asha", results.Results[0].StudentName)
	assert.Equal(t, 50, results.Results[0].Score)
}

func TestCreateExamValidation(t *testing.T) {
	h := newHarness(t)
	teacher, _, _ := h.provision()
	start := time.Now().UTC()

	status, env := h.do(http.MethodPost, "/api/v1/teacher/exams", teacher, obj{
		"title": "Broken", "subject_id": "nope", "duration_minutes": 10,
		"start_time": start, "end_time": start,
		"questions": []obj{{"text": "q", "options": obj{"A": "a", "B": "b", "C": "c", "D": "d"}}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "end_time")

	status, env = h.do(http.MethodPost, "/api/v1/teacher/exams", teacher, obj{
		"title": "Orphan", "subject_id": "nope", "duration_minutes": 10,
		"start_time": start, "end_time": start.Add(time.Hour),
		"questions": []obj{{"text": "q", "options": obj{"A": "a", "B": "b", "C": "c", "D": "d"}}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SUBJECT_NOT_FOUND", env.Error.Code)

	status, env = h.do(http.MethodGet, "/api/v1/teacher/exams", teacher, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct{ Exams []model.ExamSummary }
	h.decode(env, &list)
	assert.Len(t, list.Exams, 1)
}

func TestExamWebSocket(t *testing.T) {
	h := newHarness(t)
	_, student, examID := h.provision()

	status, _ := h.do(http.MethodPost, "/api/v1/student/exams/"+examID+"/enter", student, nil)
	require.Equal(t, http.StatusOK, status)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/v1/student/exams/" + examID + "/stream?token=" + student
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]interface{} {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev map[string]interface{}
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}
	send := func(v interface{}) {
		t.Helper()
		require.NoError(t, conn.WriteJSON(v))
	}

	assert.Equal(t, "state", read()["event"])

	send(obj{"action": "ping"})
	assert.Equal(t, "pong", read()["event"])

	send(obj{"action": "start"})
	assert.Equal(t, "state", read()["event"])

	send(obj{"action": "answer", "q_id": "2", "ans": "C"})
	assert.Equal(t, "state", read()["event"])

	send(obj{"action": "answer", "q_id": "2", "ans": "Z"})
	ev := read()
	assert.Equal(t, "error", ev["event"])
	assert.Equal(t, "INVALID_OPTION", ev["code"])

	send(obj{"action": "submit"})
	ev = read()
	require.Equal(t, "completed", ev["event"])
	assert.Equal(t, "manual", ev["trigger"])
	assert.EqualValues(t, 50, ev["result"].(map[string]interface{})["score"])
}

func TestChangeStream(t *testing.T) {
	h := newHarness(t)
	admin := h.login("/api/v1/auth/login", obj{"email": "admin@examportal.com", "password": "admin-pass"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.server.URL+"/api/v1/stream?path=branches", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		t.Helper()
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data:"); ok {
				return strings.TrimSpace(data)
			}
		}
		t.Fatal("stream ended")
		return ""
	}

	assert.Contains(t, next(), `"ready"`)

	status, env := h.do(http.MethodPost, "/api/v1/admin/branches", admin, obj{"name": "Mechanical"})
	require.Equal(t, http.StatusCreated, status)
	var created struct{ Branch model.Branch }
	h.decode(env, &created)

	var change struct {
		Type string `json:"type"`
		Path string `json:"path"`
		Op   string `json:"op"`
	}
	require.NoError(t, json.Unmarshal([]byte(next()), &change))
	assert.Equal(t, "change", change.Type)
	assert.Equal(t, "branches/"+created.Branch.ID, change.Path)
	assert.Equal(t, "put", change.Op)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/health", "", nil)

	resp, err := http.Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `examportal_http_requests_total{method="GET",route="/health",status="200"}`)
}
