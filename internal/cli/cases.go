package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/store"
)

var (
	casesJSON bool

	addSymptoms       []string
	addCause          string
	addStrategies     []string
	addOutcome        string
	addRisk           string
	addReferrals      []string
	addSelfAssessment []string
	addRecommendation string
)

// casesCmd represents the cases command
var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Inspect and extend the case library",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every case",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		cases := a.library.Cases()
		if casesJSON {
			return encodeJSON(cmd, cases)
		}
		if len(cases) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No cases in %s\n", a.store.Path())
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRISK\tSYMPTOMS\tCAUSE")
		for _, c := range cases {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Risk, strings.Join(c.Symptoms, ", "), c.PossibleCause)
		}
		return tw.Flush()
	},
}

var casesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid case id %q", args[0])
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		c, ok := a.library.Get(id)
		if !ok {
			return fmt.Errorf("case #%d not found", id)
		}
		if casesJSON {
			return encodeJSON(cmd, c)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Case #%d\n\n", c.ID)
		fmt.Fprintf(w, "  Symptoms:        %s\n", strings.Join(c.Symptoms, ", "))
		fmt.Fprintf(w, "  Possible cause:  %s\n", c.PossibleCause)
		fmt.Fprintf(w, "  Risk:            %s\n", c.Risk)
		fmt.Fprintf(w, "  Outcome:         %s\n", c.Outcome)
		fmt.Fprintf(w, "  Recommendation:  %s\n", c.GeneralRecommendation)
		printList(cmd, "Strategies", c.Strategies)
		printList(cmd, "Self-assessments", c.SelfAssessments)
		printList(cmd, "Referrals", c.Referrals)
		return nil
	},
}

var casesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a case to the library",
	Long: `Add appends a case. Symptoms are normalized to their canonical form
before they are stored, and the next free ID is assigned.

Example:
  casewise cases add --symptoms insomnio,ansiedad --cause "estres laboral" \
    --strategy "pausas activas" --risk moderate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		risk, err := model.ParseRisk(addRisk)
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		stored, err := a.store.Feedback(a.library, store.Feedback{
			Symptoms:       addSymptoms,
			Cause:          addCause,
			Strategies:     addStrategies,
			Outcome:        addOutcome,
			Risk:           risk,
			Referrals:      addReferrals,
			Assessments:    addSelfAssessment,
			Recommendation: addRecommendation,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added case #%d (%s)\n", stored.ID, stored.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.AddCommand(casesListCmd, casesShowCmd, casesAddCmd)

	casesCmd.PersistentFlags().BoolVar(&casesJSON, "json", false, "print JSON")

	f := casesAddCmd.Flags()
	f.StringSliceVar(&addSymptoms, "symptoms", nil, "symptoms (comma separated or repeated)")
	f.StringVar(&addCause, "cause", "", "possible cause")
	f.StringSliceVar(&addStrategies, "strategy", nil, "intervention strategy (repeatable)")
	f.StringVar(&addOutcome, "outcome", "", "observed outcome")
	f.StringVar(&addRisk, "risk", "", "risk level (low, moderate, high)")
	f.StringSliceVar(&addReferrals, "referral", nil, "referral (repeatable)")
	f.StringSliceVar(&addSelfAssessment, "self-assessment", nil, "suggested self-assessment (repeatable)")
	f.StringVar(&addRecommendation, "recommendation", "", "general recommendation")
	_ = casesAddCmd.MarkFlagRequired("symptoms")
	_ = casesAddCmd.MarkFlagRequired("cause")
}

func printList(cmd *cobra.Command, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s:\n", label)
	for _, it := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "    - %s\n", it)
	}
}

func encodeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
