package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

var (
	analyzeRole      string
	analyzeFile      string
	analyzeSkills    []string
	analyzeHeuristic bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a plain-text resume and print the result as JSON",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeRole, "role", "r", "", "Target role ID (see `roles`)")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "-", "Resume text file, or - for stdin")
	analyzeCmd.Flags().StringSliceVar(&analyzeSkills, "skills", nil, "Required skills, overriding the role catalog")
	analyzeCmd.Flags().BoolVar(&analyzeHeuristic, "heuristic", false, "Only run the local keyword heuristic")
	_ = analyzeCmd.MarkFlagRequired("role")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	text, err := readResume(cmd.InOrStdin(), analyzeFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("resume text is empty")
	}

	d, err := buildDeps(cmd.Context())
	if err != nil {
		return err
	}

	req := &models.AnalysisRequest{
		ResumeText:     text,
		RoleID:         analyzeRole,
		RoleName:       analyzeRole,
		RequiredSkills: analyzeSkills,
	}

	role, err := d.roleRepo.FindByID(cmd.Context(), analyzeRole)
	switch {
	case err == nil:
		req.RoleName = role.Name
		if len(req.RequiredSkills) == 0 {
			req.RequiredSkills = role.Skills
		}
	case errors.Is(err, repositories.ErrRoleNotFound) && (analyzeHeuristic || len(req.RequiredSkills) > 0):
	default:
		return err
	}

	id := uuid.New().String()
	var result *models.AnalysisResult
	switch {
	case analyzeHeuristic && len(req.RequiredSkills) == 0:
		result = services.AnalyzeHeuristicForRole(req.ResumeText, req.RoleID)
	case analyzeHeuristic:
		result = services.AnalyzeHeuristic(req.ResumeText, req.RequiredSkills)
	default:
		result = d.orchestrator.Analyze(cmd.Context(), id, req)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(models.AnalyzeResponse{ID: id, Result: result})
}

func readResume(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume file: %w", err)
	}
	return string(data), nil
}
