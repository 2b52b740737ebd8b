package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"alfredoptarigan/resume-analyzer/internal/models"
)

const validLLMResponse = `{
  "matchPercentage": 82.4,
  "atsScore": 77,
  "matchedSkills": ["JavaScript", "React"],
  "missingSkills": ["Kubernetes"],
  "suggestions": ["a", "b", "c", "d", "e", "f"],
  "detailedFeedback": "Strong frontend profile."
}`

type scriptedGemini struct {
	replies []scriptedReply
	calls   int
	prompts []string
}

type scriptedReply struct {
	text string
	err  error
}

func (s *scriptedGemini) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	reply := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	return reply.text, reply.err
}

func testRequest() *models.AnalysisRequest {
	return &models.AnalysisRequest{
		ResumeText:     sampleResume,
		RoleID:         "webdev",
		RoleName:       "Web Developer",
		RequiredSkills: []string{"JavaScript", "React", "Kubernetes"},
	}
}

func newTestLLMAnalyzer(g GeminiService, rec *sleepRecorder) *LLMAnalyzer {
	p := DefaultRetryPolicy
	p.Sleep = rec.Sleep
	return NewLLMAnalyzer(g, p, 0.7, discardLogger())
}

func TestLLMAnalyzer_Success(t *testing.T) {
	g := &scriptedGemini{replies: []scriptedReply{{text: "```json\n" + validLLMResponse + "\n```"}}}
	a := newTestLLMAnalyzer(g, &sleepRecorder{})

	got, err := a.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 82, got.MatchPercentage)
	assert.Equal(t, 77, got.ATSScore)
	assert.Equal(t, []string{"JavaScript", "React"}, got.MatchedSkills)
	assert.Equal(t, []string{"Kubernetes"}, got.MissingSkills)
	assert.Len(t, got.Suggestions, models.MaxSuggestions)
	assert.Equal(t, "Strong frontend profile.", got.DetailedFeedback)
	assert.Equal(t, models.BackendLLM, got.SourceBackend)
	assert.True(t, got.IsAIPowered)

	require.Len(t, g.prompts, 1)
	assert.Contains(t, g.prompts[0], "Web Developer")
	assert.Contains(t, g.prompts[0], "JavaScript, React, Kubernetes")
	assert.Contains(t, g.prompts[0], "Jane Doe")
}

func TestLLMAnalyzer_RetriesTransientThenSucceeds(t *testing.T) {
	unavailable := genai.APIError{Code: 503, Message: "The model is overloaded.", Status: "UNAVAILABLE"}
	g := &scriptedGemini{replies: []scriptedReply{
		{err: unavailable},
		{err: unavailable},
		{text: validLLMResponse},
	}}
	rec := &sleepRecorder{}
	a := newTestLLMAnalyzer(g, rec)

	got, err := a.Analyze(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, models.BackendLLM, got.SourceBackend)
	assert.Equal(t, 3, g.calls)
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, rec.waits)
}

func TestLLMAnalyzer_ExhaustsRetries(t *testing.T) {
	g := &scriptedGemini{replies: []scriptedReply{
		{err: genai.APIError{Code: 429, Message: "Too many requests", Status: "TOO_MANY_REQUESTS"}},
	}}
	a := newTestLLMAnalyzer(g, &sleepRecorder{})

	_, err := a.Analyze(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 3, g.calls)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.Equal(t, msgGeminiOverloaded, err.Error())
}

func TestLLMAnalyzer_RetriesRateLimit(t *testing.T) {
	rateLimited := genai.APIError{
		Code:    429,
		Message: "You exceeded your current quota, please check your plan and billing details.",
		Status:  "RESOURCE_EXHAUSTED",
		Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "23s"},
		},
	}
	g := &scriptedGemini{replies: []scriptedReply{{err: rateLimited}, {text: validLLMResponse}}}
	rec := &sleepRecorder{}
	a := newTestLLMAnalyzer(g, rec)

	got, err := a.Analyze(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, g.calls)
	assert.Equal(t, []time.Duration{4 * time.Second}, rec.waits)
	assert.Equal(t, models.BackendLLM, got.SourceBackend)
}

func TestLLMAnalyzer_NonRetryableShortCircuits(t *testing.T) {
	tests := []struct {
		name     string
		reply    scriptedReply
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name: "invalid api key",
			reply: scriptedReply{err: genai.APIError{
				Code:    400,
				Message: "API key not valid. Please pass a valid API key.",
				Status:  "INVALID_ARGUMENT",
				Details: []map[string]any{{"reason": "API_KEY_INVALID"}},
			}},
			wantKind: KindAuthentication,
			wantMsg:  msgGeminiAuth,
		},
		{
			name:     "quota exhausted",
			reply:    scriptedReply{err: genai.APIError{Code: 429, Message: "You exceeded your current quota", Status: "RESOURCE_EXHAUSTED"}},
			wantKind: KindQuota,
			wantMsg:  msgGeminiQuota,
		},
		{
			name:     "unparseable response",
			reply:    scriptedReply{text: "Sure! Here is your analysis: it looks great."},
			wantKind: KindResponseFormat,
			wantMsg:  msgGeminiParse,
		},
		{
			name:     "schema violation",
			reply:    scriptedReply{text: `{"matchPercentage": "high"}`},
			wantKind: KindResponseFormat,
			wantMsg:  msgGeminiParse,
		},
		{
			name:     "configuration",
			reply:    scriptedReply{err: llmError(KindConfiguration, "Gemini API key is not set", nil)},
			wantKind: KindConfiguration,
			wantMsg:  "Gemini API key is not set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &scriptedGemini{replies: []scriptedReply{tt.reply, {text: validLLMResponse}}}
			rec := &sleepRecorder{}
			a := newTestLLMAnalyzer(g, rec)

			_, err := a.Analyze(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, 1, g.calls)
			assert.Empty(t, rec.waits)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())

			var ae *AnalysisError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, models.BackendLLM, ae.Backend)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `  {"a":1}  `, `{"a":1}`},
		{"fence without trailing newline", "```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.input))
		})
	}
}

func TestParseLLMResponse_OptionalFeedback(t *testing.T) {
	got, err := parseLLMResponse(`{"matchPercentage": 50, "atsScore": 60, "matchedSkills": [], "missingSkills": ["Go"], "suggestions": []}`)
	require.NoError(t, err)
	assert.Equal(t, 50, got.MatchPercentage)
	assert.Empty(t, got.DetailedFeedback)
	assert.NotNil(t, got.Suggestions)
}
