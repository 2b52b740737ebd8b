package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "resume-analyzer",
	Short:        "Resume Analyzer API",
	Long:         "Scores a resume against a target role using the ML service, Gemini, or a local keyword heuristic, whichever is available.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
