package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/ingest"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

var validateExtensions string

func getValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an invoice file and print the report",
		Long: `Decode a JSON or CSV invoice file, run the compliance battery, and
print the report as JSON. A file that cannot be decoded still yields a
report (RED, score 0, a single PARSER finding).`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runValidate,
	}
	cmd.Flags().StringVar(&validateExtensions, "rules", "", "Path to a YAML file of CEL extension rules")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := domain.DefaultConfig()
	cfg.Rules.ExtensionsPath = validateExtensions
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	var report *domain.Report
	if rec, err := ingest.Decode(path, data); err != nil {
		report = ingest.FailureReport(err.Error())
	} else {
		report = scoring.Compose(rec, engine.Evaluate(rec))
	}

	return printJSON(cmd, report)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
