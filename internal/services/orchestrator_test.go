package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"alfredoptarigan/resume-analyzer/internal/models"
)

type fakeML struct {
	healthy bool
	panics  bool
	result  *models.AnalysisResult
	err     error

	probes   int
	analyzes int
}

func (f *fakeML) ProbeHealth(ctx context.Context) bool {
	f.probes++
	return f.healthy
}

func (f *fakeML) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	f.analyzes++
	if f.panics {
		panic("ml client bug")
	}
	return f.result, f.err
}

type fakeLLM struct {
	panics bool
	result *models.AnalysisResult
	err    error
	calls  int
}

func (f *fakeLLM) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	f.calls++
	if f.panics {
		panic("runtime error: invalid memory address or nil pointer dereference")
	}
	return f.result, f.err
}

func remoteResult(backend models.Backend) *models.AnalysisResult {
	return &models.AnalysisResult{
		MatchPercentage: 90,
		ATSScore:        88,
		MatchedSkills:   []string{"React"},
		MissingSkills:   []string{},
		Suggestions:     []string{},
		SourceBackend:   backend,
		IsAIPowered:     true,
	}
}

func always(v bool) func() bool {
	return func() bool { return v }
}

func TestOrchestrator_PrefersHealthyMLService(t *testing.T) {
	ml := &fakeML{healthy: true, result: remoteResult(models.BackendMLService)}
	llm := &fakeLLM{result: remoteResult(models.BackendLLM)}

	got := NewOrchestrator(ml, llm, always(true), discardLogger()).Analyze(context.Background(), "a-1", testRequest())

	assert.Equal(t, models.BackendMLService, got.SourceBackend)
	assert.Equal(t, 1, ml.analyzes)
	assert.Zero(t, llm.calls)
}

func TestOrchestrator_FallsBackToLLM(t *testing.T) {
	tests := []struct {
		name string
		ml   *fakeML
	}{
		{name: "unhealthy probe", ml: &fakeML{healthy: false}},
		{name: "analysis failure", ml: &fakeML{
			healthy: true,
			err:     mlError(KindServiceUnavailable, msgMLNoModels, nil),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{result: remoteResult(models.BackendLLM)}

			got := NewOrchestrator(tt.ml, llm, always(true), discardLogger()).Analyze(context.Background(), "a-2", testRequest())

			assert.Equal(t, models.BackendLLM, got.SourceBackend)
			assert.Equal(t, 1, llm.calls)
		})
	}
}

func TestOrchestrator_SkipsUnconfiguredLLM(t *testing.T) {
	llm := &fakeLLM{result: remoteResult(models.BackendLLM)}

	got := NewOrchestrator(&fakeML{}, llm, always(false), discardLogger()).Analyze(context.Background(), "a-3", testRequest())

	assert.Equal(t, models.BackendHeuristic, got.SourceBackend)
	assert.False(t, got.IsAIPowered)
	assert.Zero(t, llm.calls)
}

func TestOrchestrator_NilBackendsUseHeuristic(t *testing.T) {
	req := testRequest()

	got := NewOrchestrator(nil, nil, nil, discardLogger()).Analyze(context.Background(), "a-4", req)

	assert.Equal(t, AnalyzeHeuristic(req.ResumeText, req.RequiredSkills), got)
}

func TestOrchestrator_HeuristicAfterExhaustedRetries(t *testing.T) {
	gemini := &scriptedGemini{replies: []scriptedReply{
		{err: genai.APIError{Code: 503, Message: "The model is overloaded", Status: "UNAVAILABLE"}},
	}}
	rec := &sleepRecorder{}
	llm := newTestLLMAnalyzer(gemini, rec)

	var logs strings.Builder
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	req := testRequest()
	got := NewOrchestrator(&fakeML{healthy: false}, llm, always(true), logger).Analyze(context.Background(), "a-5", req)

	require.NotNil(t, got)
	assert.Equal(t, models.BackendHeuristic, got.SourceBackend)
	assert.False(t, got.IsAIPowered)
	assert.Equal(t, []string{"JavaScript", "React"}, got.MatchedSkills)
	assert.Equal(t, 3, gemini.calls)

	out := logs.String()
	assert.Contains(t, out, "backend=ml_service")
	assert.Contains(t, out, "backend=llm")
	assert.Contains(t, out, "backend=heuristic")
	assert.Contains(t, out, "analysis_id=a-5")
	assert.Contains(t, out, "role_id=webdev")
}

func TestOrchestrator_PlainErrorFromLLM(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}

	got := NewOrchestrator(&fakeML{}, llm, always(true), discardLogger()).Analyze(context.Background(), "a-6", testRequest())

	assert.Equal(t, models.BackendHeuristic, got.SourceBackend)
}

func TestOrchestrator_RecoversFromBackendPanics(t *testing.T) {
	tests := []struct {
		name string
		ml   *fakeML
		llm  *fakeLLM
		want models.Backend
	}{
		{name: "llm panics", ml: &fakeML{}, llm: &fakeLLM{panics: true}, want: models.BackendHeuristic},
		{name: "ml panics, llm answers", ml: &fakeML{healthy: true, panics: true}, llm: &fakeLLM{result: remoteResult(models.BackendLLM)}, want: models.BackendLLM},
		{name: "both panic", ml: &fakeML{healthy: true, panics: true}, llm: &fakeLLM{panics: true}, want: models.BackendHeuristic},
		{name: "nil result without error", ml: &fakeML{healthy: true}, llm: &fakeLLM{}, want: models.BackendHeuristic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(tt.ml, tt.llm, always(true), discardLogger())

			var got *models.AnalysisResult
			require.NotPanics(t, func() {
				got = o.Analyze(context.Background(), "a-7", testRequest())
			})
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.SourceBackend)
		})
	}
}

func TestOrchestrator_NonGoogleErrorBodyFallsBack(t *testing.T) {
	srv := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream connect error"}`))
	})

	gemini := newTestGemini(srv.URL, &staticKey{key: "AIza" + strings.Repeat("x", 35)}, time.Second)
	llm := newTestLLMAnalyzer(gemini, &sleepRecorder{})

	var got *models.AnalysisResult
	require.NotPanics(t, func() {
		got = NewOrchestrator(&fakeML{}, llm, always(true), discardLogger()).Analyze(context.Background(), "a-8", testRequest())
	})
	require.NotNil(t, got)
	assert.Equal(t, models.BackendHeuristic, got.SourceBackend)
	assert.False(t, got.IsAIPowered)
}
