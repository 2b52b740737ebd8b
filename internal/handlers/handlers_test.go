package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

const resume = `Jane Doe
Email: jane@example.com
WORK EXPERIENCE
Frontend developer using JavaScript, React and Node.js`

type recordingRunner struct {
	got *models.AnalysisRequest
	id  string
}

func (r *recordingRunner) Analyze(_ context.Context, id string, req *models.AnalysisRequest) *models.AnalysisResult {
	r.got, r.id = req, id
	return services.AnalyzeHeuristic(req.ResumeText, req.RequiredSkills)
}

type fakeML struct {
	healthy  bool
	roles    map[string][]string
	rolesErr error
	cfg      services.ServiceConfig
}

func (f *fakeML) ProbeHealth(context.Context) bool { return f.healthy }

func (f *fakeML) Roles(context.Context) (map[string][]string, error) { return f.roles, f.rolesErr }

func (f *fakeML) Config() services.ServiceConfig { return f.cfg }

func (f *fakeML) Configure(u services.ServiceConfigUpdate) services.ServiceConfig {
	if u.APIURL != nil {
		f.cfg.APIURL = *u.APIURL
	}
	if u.TimeoutMillis != nil {
		f.cfg.TimeoutMillis = *u.TimeoutMillis
	}
	if u.Enabled != nil {
		f.cfg.Enabled = *u.Enabled
	}
	return f.cfg
}

func newTestApp(runner AnalysisRunner, ml *fakeML) *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	roleRepo := repositories.NewMemoryRoleRepository(models.DefaultRoles()...)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(app.Group("/api/v1"), Handlers{
		Analyze: NewAnalyzeHandler(runner, roleRepo, logger),
		Roles:   NewRoleHandler(roleRepo, ml, logger),
		System:  NewSystemHandler(func() bool { return true }, ml, ml),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestAnalyzeHandler_FillsRoleFromCatalog(t *testing.T) {
	runner := &recordingRunner{}
	app := newTestApp(runner, &fakeML{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analyze", map[string]any{
		"resumeText": resume,
		"roleId":     "webdev",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, runner.got)
	assert.Equal(t, "Web Developer", runner.got.RoleName)
	assert.Equal(t, models.SkillsForRole("webdev"), runner.got.RequiredSkills)
	assert.Equal(t, runner.id, body["id"])

	result := body["result"].(map[string]any)
	assert.Equal(t, "heuristic", result["sourceBackend"])
	assert.Equal(t, false, result["isAIPowered"])
	assert.Contains(t, body, "durationMs")
}

func TestAnalyzeHandler_CustomSkillsForUnknownRole(t *testing.T) {
	runner := &recordingRunner{}
	app := newTestApp(runner, &fakeML{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/analyze", map[string]any{
		"resumeText":     resume,
		"roleId":         "frontend",
		"requiredSkills": []string{"React", "Vue"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "frontend", runner.got.RoleName)
	assert.Equal(t, []string{"React", "Vue"}, runner.got.RequiredSkills)
}

func TestAnalyzeHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		wantErr string
	}{
		{name: "missing resume", body: map[string]any{"roleId": "webdev"}, wantErr: "resumeText is required"},
		{name: "blank resume", body: map[string]any{"resumeText": "   \n\t ", "roleId": "webdev"}, wantErr: "resumeText must not be blank"},
		{name: "missing role", body: map[string]any{"resumeText": resume}, wantErr: "roleId is required"},
		{name: "unknown role", body: map[string]any{"resumeText": resume, "roleId": "astronaut"}, wantErr: "Unknown role: astronaut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{}
			app := newTestApp(runner, &fakeML{})

			resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantErr, body["error"])
			assert.EqualValues(t, http.StatusBadRequest, body["code"])
			assert.Nil(t, runner.got)
		})
	}
}

func TestAnalyzeHandler_Heuristic(t *testing.T) {
	runner := &recordingRunner{}
	app := newTestApp(runner, &fakeML{healthy: true})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analyze/heuristic", map[string]any{
		"resumeText":     resume,
		"roleId":         "webdev",
		"requiredSkills": []string{"JavaScript", "Go"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, runner.got)

	result := body["result"].(map[string]any)
	assert.EqualValues(t, 50, result["matchPercentage"])
	assert.Equal(t, "heuristic", result["sourceBackend"])
}

func TestRoleHandler(t *testing.T) {
	ml := &fakeML{roles: map[string][]string{"frontend": {"React"}}}
	app := newTestApp(&recordingRunner{}, ml)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/roles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["roles"], len(models.DefaultRoles()))

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/roles?source=ml", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"frontend": []any{"React"}}, body["roles"])

	ml.rolesErr = errors.New("connection refused")
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/roles?source=ml", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to fetch roles from ML service", body["error"])
}

func TestSystemHandler_Health(t *testing.T) {
	app := newTestApp(&recordingRunner{}, &fakeML{healthy: false})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["aiConfigured"])
	assert.Equal(t, false, body["mlServiceHealthy"])
}

func TestSystemHandler_MLConfig(t *testing.T) {
	ml := &fakeML{cfg: services.ServiceConfig{APIURL: "http://localhost:5000", TimeoutMillis: 30000, Enabled: true}}
	app := newTestApp(&recordingRunner{}, ml)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/config/ml", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:5000", body["apiUrl"])

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/config/ml", map[string]any{"enabled": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["enabled"])
	assert.EqualValues(t, 30000, body["timeoutMillis"])

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/config/ml", map[string]any{"apiUrl": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "apiUrl must be a valid URL", body["error"])

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/config/ml", map[string]any{"timeoutMillis": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "timeoutMillis must be at least 1", body["error"])
}

func TestAnalyzeHandler_HeuristicUnknownRole(t *testing.T) {
	app := newTestApp(&recordingRunner{}, &fakeML{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analyze/heuristic", map[string]any{
		"resumeText": resume,
		"roleId":     "astronaut",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := body["result"].(map[string]any)
	assert.EqualValues(t, 0, result["matchPercentage"])
	assert.Equal(t, []any{}, result["matchedSkills"])
	assert.Equal(t, []any{}, result["missingSkills"])
	assert.Equal(t, "heuristic", result["sourceBackend"])
}
