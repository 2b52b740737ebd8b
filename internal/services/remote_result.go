package services

import (
	"math"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// remoteAnalysis is the wire shape shared by the LLM JSON contract and the ML
// service. Optional lists decode to nil and are normalised to empty slices.
type remoteAnalysis struct {
	MatchPercentage  float64  `json:"matchPercentage"`
	ATSScore         float64  `json:"atsScore"`
	MatchedSkills    []string `json:"matchedSkills"`
	MissingSkills    []string `json:"missingSkills"`
	Suggestions      []string `json:"suggestions"`
	DetailedFeedback string   `json:"detailedFeedback"`
	ModelType        string   `json:"modelType"`
}

// toResult converts without re-checking remote values against the skill lists.
func (r remoteAnalysis) toResult(backend models.Backend) *models.AnalysisResult {
	suggestions := orEmpty(r.Suggestions)
	if len(suggestions) > models.MaxSuggestions {
		suggestions = suggestions[:models.MaxSuggestions]
	}

	return &models.AnalysisResult{
		MatchPercentage:  int(math.Round(r.MatchPercentage)),
		ATSScore:         int(math.Round(r.ATSScore)),
		MatchedSkills:    orEmpty(r.MatchedSkills),
		MissingSkills:    orEmpty(r.MissingSkills),
		Suggestions:      suggestions,
		DetailedFeedback: r.DetailedFeedback,
		ModelType:        r.ModelType,
		SourceBackend:    backend,
		IsAIPowered:      true,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
