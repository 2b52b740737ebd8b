package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeAnalysisPrompt creates the prompt for a single resume/role analysis.
func (pb *PromptBuilder) BuildResumeAnalysisPrompt(resumeText, roleName string, requiredSkills []string) string {
	return fmt.Sprintf(`You are an expert resume analyzer and career coach. Analyze the following resume for a %s position.

Resume:
%s

Required Skills for %s:
%s

Please provide a detailed analysis in the following JSON format (respond with ONLY valid JSON, no markdown or additional text):
{
  "matchPercentage": <number 0-100>,
  "atsScore": <number 0-100>,
  "matchedSkills": [<array of skills found in resume from the required list>],
  "missingSkills": [<array of skills not found in resume from the required list>],
  "suggestions": [<array of 5 specific, actionable suggestions to improve the resume>],
  "detailedFeedback": "<2-3 paragraph detailed analysis of strengths and areas for improvement>"
}

Important:
- Be thorough in identifying skills, including variations and related technologies
- Consider context and experience level when matching skills
- Provide specific, actionable suggestions
- ATS score should consider formatting, keywords, and structure
- Match percentage should reflect how well the candidate fits the role
- Respond with ONLY the JSON object, no markdown formatting`,
		roleName, resumeText, roleName, strings.Join(requiredSkills, ", "))
}
