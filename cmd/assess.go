package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/bipkit/internal/assessment"
	"github.com/abhisek/bipkit/internal/rubric"
)

var assessCmd = &cobra.Command{
	Use:   "assess <plan-id>",
	Short: "Record assessment responses and submit for scoring",
	Long: `Record functional assessment responses for a plan.

Each --set answers one rubric item: --set 7=often. Accepted values are
never, rarely, sometimes, often, and not_applicable. With no flags the
rubric is printed with any recorded answers. --submit scores the
responses and runs the function determination.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		submit, _ := cmd.Flags().GetBool("submit")

		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		planID := args[0]

		if len(sets) > 0 {
			responses := assessment.ResponseSet{}
			for _, raw := range sets {
				id, value, err := parseSet(raw)
				if err != nil {
					return err
				}
				responses[id] = value
			}
			if _, err := svc.SaveResponses(ctx, planID, responses); err != nil {
				return err
			}
			fmt.Printf("Recorded %d response(s).\n", len(responses))
		}

		if submit {
			p, err := svc.SubmitAssessment(ctx, planID)
			if err != nil {
				return err
			}
			printPlan(p)
			if p.Calculated != nil && p.Calculated.Ambiguous && !p.Calculated.NoEvidence() {
				fmt.Println("\nPick one function or accept the tie:")
				fmt.Printf("  bipkit assess %s --function <category|multiple>\n", planID)
			}
			return nil
		}

		if function, _ := cmd.Flags().GetString("function"); function != "" {
			p, err := svc.SetDeterminedFunction(ctx, planID, function)
			if err != nil {
				return err
			}
			fmt.Printf("Accepted function: %s\n", p.Determined)
			return nil
		}

		if len(sets) == 0 {
			p, err := svc.GetPlan(ctx, planID)
			if err != nil {
				return err
			}
			printRubric(svc.Rubric(), p.StudentName, p.Responses)
		}
		return nil
	},
}

func parseSet(raw string) (int, rubric.ResponseValue, error) {
	idStr, valStr, ok := strings.Cut(raw, "=")
	if !ok {
		return 0, "", fmt.Errorf("invalid --set %q, expected <item>=<value>", raw)
	}
	id, err := strconv.Atoi(strings.TrimSpace(idStr))
	if err != nil {
		return 0, "", fmt.Errorf("invalid item id %q", idStr)
	}
	value, err := rubric.ParseResponseValue(strings.TrimSpace(valStr))
	if err != nil {
		return 0, "", err
	}
	return id, value, nil
}

func printRubric(r *rubric.Rubric, studentName string, responses assessment.ResponseSet) {
	fmt.Println("Functional Assessment")
	fmt.Println(strings.Repeat("─", 72))
	for _, item := range r.Items() {
		answer := "-"
		if v, ok := responses[item.ID]; ok {
			answer = string(v)
		}
		fmt.Printf("%3d. [%-14s] %s\n", item.ID, answer, item.PromptFor(studentName))
	}
	fmt.Printf("\nAnswered %d of %d items.\n", len(responses), r.Len())
}

func init() {
	assessCmd.Flags().StringArray("set", nil, "Record one response as <item>=<value> (repeatable)")
	assessCmd.Flags().Bool("submit", false, "Score the responses and determine the function")
	assessCmd.Flags().String("function", "", "Override the accepted function (category name or 'multiple')")
}
