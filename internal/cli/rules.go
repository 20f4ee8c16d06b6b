package cli

import (
	"github.com/spf13/cobra"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var rulesExtensions string

func getRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rules",
		Short:        "List the compliance checks in evaluation order",
		SilenceUsage: true,
		RunE:         runRules,
	}
	cmd.Flags().StringVar(&rulesExtensions, "rules", "", "Path to a YAML file of CEL extension rules")
	return cmd
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg := domain.DefaultConfig()
	cfg.Rules.ExtensionsPath = rulesExtensions
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	return printJSON(cmd, engine.Checks())
}
