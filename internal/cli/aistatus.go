package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"facturaia/internal/llm/providers"
	"facturaia/internal/port"
)

var aiStatusCmd = &cobra.Command{
	Use:   "ai-status",
	Short: "Show configured LLM providers and whether they answer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		chain, err := providers.NewChain(loaded.LLM)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), chain.Status(cmd.Context(), nil))
	},
}

func printStatus(out io.Writer, statuses []port.ProviderStatus) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tCONFIGURED\tAVAILABLE\tERROR")
	for _, s := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.Model, yesNo(s.Configured), yesNo(s.Available), s.Error)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
