// Command evals checks and scores Bento tool selection suites.
//
// Usage:
//
//	go run ./cmd/evals check
//	go run ./cmd/evals score --responses answers.json --min-accuracy 0.9
//
// check verifies that every tool a suite names is registered by the server.
// score replays recorded LLM selections (a JSON object of input -> {tool, args})
// against the suite and prints accuracy by category.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/bento-mcp-server/evals"
	"github.com/olgasafonova/bento-mcp-server/tools"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var suitePath string

	cmd := &cobra.Command{
		Use:          "evals",
		Short:        "Tool selection evaluations for the Bento MCP server.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&suitePath, "suite", "", "suite JSON file (defaults to the built-in suite)")

	cmd.AddCommand(checkCmd(&suitePath), scoreCmd(&suitePath))
	return cmd
}

func loadSuite(path string) (*evals.Suite, error) {
	if path == "" {
		return evals.Default()
	}
	return evals.Load(path)
}

func checkCmd(suitePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the suite only names registered tools.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			suite, err := loadSuite(*suitePath)
			if err != nil {
				return err
			}

			known := make([]string, 0, len(tools.AllTools))
			for _, spec := range tools.AllTools {
				known = append(known, spec.Name)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d cases, %d confusion pairs, %d tools referenced\n",
				suite.Name, len(suite.Cases), len(suite.Pairs), len(suite.ToolNames()))

			if unknown := suite.UnknownTools(known); len(unknown) > 0 {
				return fmt.Errorf("suite references unregistered tools: %v", unknown)
			}
			fmt.Fprintln(out, "all referenced tools are registered")
			return nil
		},
	}
}

func scoreCmd(suitePath *string) *cobra.Command {
	var (
		responses   string
		minAccuracy float64
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score recorded tool selections against the suite.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			suite, err := loadSuite(*suitePath)
			if err != nil {
				return err
			}
			recorded, err := evals.LoadRecorded(responses)
			if err != nil {
				return err
			}

			report := evals.Evaluate(suite, recorded)
			fmt.Fprint(cmd.OutOrStdout(), report.String())

			if report.Accuracy() < minAccuracy {
				return fmt.Errorf("accuracy %.2f below threshold %.2f", report.Accuracy(), minAccuracy)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&responses, "responses", "", "recorded selections JSON file")
	cmd.Flags().Float64Var(&minAccuracy, "min-accuracy", 0, "fail when accuracy is below this fraction")
	_ = cmd.MarkFlagRequired("responses")
	return cmd
}
