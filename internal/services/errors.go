package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// ErrorKind classifies a backend failure. Retry and fallback decisions
// dispatch on the kind, never on message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindTransient
	KindAuthentication
	KindQuota
	KindResponseFormat
	KindServiceUnavailable
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindAuthentication:
		return "authentication"
	case KindQuota:
		return "quota_exceeded"
	case KindResponseFormat:
		return "response_format"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// AnalysisError is the single error type surfaced by remote analyzers.
// Error returns the user-facing message; the cause is kept for logs.
type AnalysisError struct {
	Kind    ErrorKind
	Backend models.Backend
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func (e *AnalysisError) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindTimeout
}

// KindOf extracts the kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	return false
}

const (
	msgGeminiAuth       = "Invalid Gemini API key. Please verify your key at https://makersuite.google.com/app/apikey"
	msgGeminiQuota      = "Gemini API quota exceeded. Please check your usage at https://makersuite.google.com/"
	msgGeminiOverloaded = "Gemini servers are temporarily overloaded. Please try again in a few minutes."
	msgGeminiNetwork    = "Network error connecting to Gemini. Please check your internet connection"
	msgGeminiTimeout    = "Gemini API request timed out. Please try again"
	msgGeminiParse      = "Failed to parse AI response. Please try again."
	msgGeminiUnknown    = "Failed to analyze resume with AI. Please try again."
)

var errNoResponse = errors.New("no text content in response")

func llmError(kind ErrorKind, msg string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Backend: models.BackendLLM, Message: msg, Err: err}
}

// classifyGeminiError maps a raw failure from the Gemini client to a typed error.
// Already classified errors pass through unchanged.
func classifyGeminiError(err error) *AnalysisError {
	if err == nil {
		return nil
	}

	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llmError(KindTimeout, msgGeminiTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return llmError(KindUnknown, msgGeminiUnknown, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyGeminiAPIError(apiErr, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return llmError(KindTransient, msgGeminiNetwork, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return llmError(KindTransient, msgGeminiNetwork, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return llmError(KindTimeout, msgGeminiTimeout, err)
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "overloaded"):
		return llmError(KindTransient, msgGeminiOverloaded, err)
	case strings.Contains(lower, "timeout"):
		return llmError(KindTimeout, msgGeminiTimeout, err)
	}

	return llmError(KindUnknown, msgGeminiUnknown, err)
}

func classifyGeminiAPIError(apiErr genai.APIError, err error) *AnalysisError {
	status := strings.ToUpper(apiErr.Status)
	msg := strings.ToLower(apiErr.Message)
	details := strings.ToLower(fmt.Sprint(apiErr.Details))

	switch {
	case strings.Contains(details, "api_key_invalid") ||
		strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "invalid api key") ||
		apiErr.Code == http.StatusUnauthorized ||
		apiErr.Code == http.StatusForbidden:
		return llmError(KindAuthentication, msgGeminiAuth, err)
	case apiErr.Code == http.StatusTooManyRequests && hasRetryInfo(apiErr.Details):
		return llmError(KindTransient, msgGeminiOverloaded, err)
	case strings.Contains(status, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota"):
		return llmError(KindQuota, msgGeminiQuota, err)
	case apiErr.Code == http.StatusServiceUnavailable || strings.Contains(msg, "overloaded"):
		return llmError(KindTransient, msgGeminiOverloaded, err)
	case apiErr.Code == http.StatusTooManyRequests:
		return llmError(KindTransient, msgGeminiOverloaded, err)
	case apiErr.Code == http.StatusGatewayTimeout || strings.Contains(msg, "timeout"):
		return llmError(KindTimeout, msgGeminiTimeout, err)
	}

	return llmError(KindUnknown, msgGeminiUnknown, err)
}

// hasRetryInfo reports whether the error carries a google.rpc.RetryInfo
// detail. Gemini attaches one to per-minute rate limits, which clear on
// their own, but not to exhausted daily or billing quotas.
func hasRetryInfo(details []map[string]any) bool {
	for _, d := range details {
		if t, ok := d["@type"].(string); ok && strings.HasSuffix(t, "google.rpc.RetryInfo") {
			return true
		}
	}
	return false
}
