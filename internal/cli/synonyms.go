package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewise/internal/normalize"
	"github.com/ppiankov/casewise/internal/synonym"
)

var enrichOut string

// synonymsCmd represents the synonyms command
var synonymsCmd = &cobra.Command{
	Use:   "synonyms",
	Short: "Inspect and extend the synonym tables",
}

var synonymsResolveCmd = &cobra.Command{
	Use:   "resolve <fragment...>",
	Short: "Show how fragments resolve to canonical symptoms",
	Long: `Resolve normalizes the arguments like a query and prints, for each
fragment, the canonical symptom it maps to and which tier matched.

Example:
  casewise synonyms resolve "no puedo dormir, me siento triste"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		fragments := normalize.New(a.cfg.Normalize.Stopphrases).Normalize(strings.Join(args, " "))
		if len(fragments) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No symptoms could be extracted.")
			return nil
		}

		_, resolutions := a.reasoner.Resolver().ResolveAll(cmd.Context(), fragments, a.library.KnownSymptoms())

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FRAGMENT\tCANONICAL\tTIER\tKEY\tSCORE")
		for _, r := range resolutions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n", r.Input, r.Canonical, r.Tier, r.Key, r.Score)
		}
		return tw.Flush()
	},
}

var synonymsEnrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Derive everyday phrasings for known symptoms",
	Long: `Enrich generates colloquial variants ("tengo insomnio", "sin apetito")
for every symptom in the case library and in the loaded tables, then writes
the merged table. Existing keys are never overwritten.

Example:
  casewise synonyms enrich --out ~/.casewise/synonyms.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		base := a.tables.Load()
		symptoms := append(a.library.KnownSymptoms(), base.Canonicals()...)
		enriched, added := synonym.Enrich(base, symptoms)

		if err := synonym.Write(enrichOut, enriched); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %d phrasings (%d entries) to %s\n", added, enriched.Len(), enrichOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(synonymsCmd)
	synonymsCmd.AddCommand(synonymsResolveCmd, synonymsEnrichCmd)

	synonymsEnrichCmd.Flags().StringVar(&enrichOut, "out", "synonyms.yaml", "output table (.yaml, .yml or .json)")
}
