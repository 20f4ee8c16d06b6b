package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/kestrel/internal/ingest"
)

var sampleCSV bool

func getSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sample",
		Short:        "Print the canonical sample invoice",
		SilenceUsage: true,
		RunE:         runSample,
	}
	cmd.Flags().BoolVar(&sampleCSV, "csv", false, "Print the sample in CSV form")
	return cmd
}

func runSample(cmd *cobra.Command, args []string) error {
	if sampleCSV {
		fmt.Fprint(cmd.OutOrStdout(), ingest.SampleCSV)
		return nil
	}
	return printJSON(cmd, ingest.SampleRecord())
}
