package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sherine-k/actuator/pkg/config"
	"github.com/sherine-k/actuator/pkg/scenario"
)

var (
	scenarioFile string
	outputFile   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a command log from a cron scenario",
	Long: `Expand the recurring commands of a scenario file into a "<time>\t<signal>"
command log that can be replayed with the root command.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&scenarioFile, "scenario", "f", "", "Path to scenario file")
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the log to a file instead of standard output")
	_ = generateCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	scn, err := config.LoadScenario(scenarioFile)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	records, err := scenario.Expand(scn)
	if err != nil {
		return fmt.Errorf("failed to expand scenario: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := scenario.Write(out, records); err != nil {
		return err
	}

	logger.Info().
		Int("records", len(records)).
		Str("scenario", scenarioFile).
		Msg("command log generated")
	return nil
}
