package models

// Backend identifies which analysis strategy produced a result.
type Backend string

const (
	BackendHeuristic Backend = "heuristic"
	BackendLLM       Backend = "llm"
	BackendMLService Backend = "ml_service"
)

// MaxSuggestions caps the suggestion list of every result.
const MaxSuggestions = 5

// AnalysisRequest is the immutable input shared by every analyzer.
type AnalysisRequest struct {
	ResumeText     string   `json:"resumeText" validate:"required,notblank"`
	RoleID         string   `json:"roleId" validate:"required"`
	RoleName       string   `json:"roleName"`
	RequiredSkills []string `json:"requiredSkills"`
}

type AnalysisResult struct {
	MatchPercentage  int      `json:"matchPercentage"`
	ATSScore         int      `json:"atsScore"`
	MatchedSkills    []string `json:"matchedSkills"`
	MissingSkills    []string `json:"missingSkills"`
	Suggestions      []string `json:"suggestions"`
	DetailedFeedback string   `json:"detailedFeedback,omitempty"`
	ModelType        string   `json:"modelType,omitempty"`
	SourceBackend    Backend  `json:"sourceBackend"`
	IsAIPowered      bool     `json:"isAIPowered"`
}

// ValidationResult describes the outcome of validating a configuration value.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
