package models

type AnalyzeResponse struct {
	ID         string          `json:"id"`
	Result     *AnalysisResult `json:"result"`
	DurationMs int64           `json:"durationMs"`
}

type RolesResponse struct {
	Roles []Role `json:"roles"`
}

type MLRolesResponse struct {
	Roles map[string][]string `json:"roles"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	AIConfigured     bool   `json:"aiConfigured"`
	MLServiceHealthy bool   `json:"mlServiceHealthy"`
}

// MLConfigUpdateRequest is a partial update; nil fields are left unchanged.
type MLConfigUpdateRequest struct {
	APIURL        *string `json:"apiUrl" validate:"omitempty,url"`
	TimeoutMillis *int    `json:"timeoutMillis" validate:"omitempty,min=1"`
	Enabled       *bool   `json:"enabled"`
}
