package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// ATS signal weights. They sum to 100.
const (
	atsContactPoints    = 15
	atsExperiencePoints = 20
	atsEducationPoints  = 15
	atsSkillsHeadPoints = 15
	atsCoverageMax      = 35
)

var (
	contactPattern    = regexp.MustCompile(`(?i)email|phone|linkedin`)
	experiencePattern = regexp.MustCompile(`(?i)experience|work`)
	educationPattern  = regexp.MustCompile(`(?i)education|degree|bachelor|master`)
	skillsHeadPattern = regexp.MustCompile(`(?i)skills|technical`)
)

const (
	suggestContact        = "Include complete contact information (email, phone, LinkedIn)"
	suggestCertifications = "Consider taking courses or certifications in the missing skill areas"
	suggestProjects       = "Highlight projects that demonstrate your skills with specific metrics"
	suggestQuantify       = "Your skills match well! Focus on quantifying your achievements"
	suggestActionVerbs    = "Use action verbs and include measurable results in your experience section"
)

// AnalyzeHeuristicForRole scores a resume against a built-in role. Unknown
// roles have no required skills and score 0 on matching.
func AnalyzeHeuristicForRole(resumeText, roleID string) *models.AnalysisResult {
	return AnalyzeHeuristic(resumeText, models.SkillsForRole(roleID))
}

// AnalyzeHeuristic is the keyword-matching fallback. It never fails.
func AnalyzeHeuristic(resumeText string, requiredSkills []string) *models.AnalysisResult {
	resumeLower := strings.ToLower(resumeText)

	matched := make([]string, 0, len(requiredSkills))
	missing := make([]string, 0, len(requiredSkills))
	for _, skill := range requiredSkills {
		if strings.Contains(resumeLower, strings.ToLower(skill)) {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	ratio := 0.0
	if len(requiredSkills) > 0 {
		ratio = float64(len(matched)) / float64(len(requiredSkills))
	}
	matchPercentage := int(math.Round(ratio * 100))

	hasContact := contactPattern.MatchString(resumeText)

	ats := 0
	if hasContact {
		ats += atsContactPoints
	}
	if experiencePattern.MatchString(resumeText) {
		ats += atsExperiencePoints
	}
	if educationPattern.MatchString(resumeText) {
		ats += atsEducationPoints
	}
	if skillsHeadPattern.MatchString(resumeText) {
		ats += atsSkillsHeadPoints
	}
	ats += min(atsCoverageMax, int(math.Round(ratio*atsCoverageMax)))
	ats = min(ats, 100)

	return &models.AnalysisResult{
		MatchPercentage: matchPercentage,
		ATSScore:        ats,
		MatchedSkills:   matched,
		MissingSkills:   missing,
		Suggestions:     heuristicSuggestions(missing, hasContact, matchPercentage),
		SourceBackend:   models.BackendHeuristic,
		IsAIPowered:     false,
	}
}

func heuristicSuggestions(missing []string, hasContact bool, matchPercentage int) []string {
	suggestions := make([]string, 0, models.MaxSuggestions+1)

	if len(missing) > 0 {
		top := missing[:min(3, len(missing))]
		suggestions = append(suggestions, fmt.Sprintf("Add these key skills to your resume: %s", strings.Join(top, ", ")))
	}
	if !hasContact {
		suggestions = append(suggestions, suggestContact)
	}

	switch {
	case matchPercentage < 50:
		suggestions = append(suggestions, suggestCertifications)
	case matchPercentage < 75:
		suggestions = append(suggestions, suggestProjects)
	default:
		suggestions = append(suggestions, suggestQuantify)
	}

	suggestions = append(suggestions, suggestActionVerbs)

	if len(suggestions) > models.MaxSuggestions {
		suggestions = suggestions[:models.MaxSuggestions]
	}
	return suggestions
}
