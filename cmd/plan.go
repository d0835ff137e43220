package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/bipkit/internal/plan"
	"github.com/abhisek/bipkit/internal/rubric"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new behavior intervention plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		student, _ := cmd.Flags().GetString("student")
		behavior, _ := cmd.Flags().GetString("behavior")

		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := svc.CreatePlan(context.Background(), student, behavior)
		if err != nil {
			return err
		}

		fmt.Printf("Created plan %s for %s.\n", p.ID, p.StudentName)
		fmt.Printf("Next: bipkit assess %s --set <item>=<value>\n", p.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		plans, err := svc.ListPlans(context.Background())
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			fmt.Println("No plans yet. Start one with: bipkit new --student <name> --behavior <description>")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-20s  %-10s  %s\n", "ID", "Student", "Status", "Function", "Behavior")
		fmt.Println(strings.Repeat("─", 110))
		for _, p := range plans {
			fmt.Printf("%-36s  %-20s  %-20s  %-10s  %s\n",
				p.ID, truncate(p.StudentName, 20), p.Status, p.Determined, truncate(p.Behavior, 40))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan with scores and sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := svc.GetPlan(context.Background(), args[0])
		if err != nil {
			return err
		}

		printPlan(p)
		return nil
	},
}

func printPlan(p *plan.Plan) {
	sep := strings.Repeat("─", 72)

	fmt.Printf("Plan:     %s\n", p.ID)
	fmt.Printf("Student:  %s\n", p.StudentName)
	fmt.Printf("Behavior: %s\n", p.Behavior)
	fmt.Printf("Status:   %s\n", p.Status)

	if p.Calculated != nil {
		fmt.Println()
		fmt.Println("Assessment Scores")
		fmt.Println(sep)
		for _, cat := range rubric.AllCategories() {
			score, ok := p.Calculated.Scores[cat]
			if !ok || !score.Valid {
				fmt.Printf("  %-28s  no evidence\n", rubric.CategoryDisplayName(cat))
				continue
			}
			fmt.Printf("  %-28s  %.2f  (%d items)\n", rubric.CategoryDisplayName(cat), score.Average, score.Count)
		}
		switch {
		case p.Calculated.NoEvidence():
			fmt.Println("\nDetermination: insufficient data")
		case p.Calculated.Ambiguous:
			names := make([]string, len(p.Calculated.Tied))
			for i, cat := range p.Calculated.Tied {
				names[i] = rubric.CategoryDisplayName(cat)
			}
			fmt.Printf("\nDetermination: ambiguous (%s)\n", strings.Join(names, ", "))
		default:
			fmt.Printf("\nDetermination: %s\n", rubric.CategoryDisplayName(p.Calculated.Primary))
		}
		if p.Determined != "" {
			fmt.Printf("Accepted function: %s\n", p.Determined)
		}
	}

	if !p.Generated() {
		return
	}

	fmt.Printf("\nGeneration %d\n", p.GenerationVersion)
	for _, kind := range plan.AllSections() {
		sec, ok := p.Sections[kind]
		if !ok {
			continue
		}
		marker := ""
		if kind.Editable() {
			if sec.Reviewed {
				marker = " [reviewed]"
			} else if kind == p.ActiveSection {
				marker = " [active]"
			}
		}
		fmt.Println()
		fmt.Println(sep)
		fmt.Printf("%s%s\n", kind.DisplayName(), marker)
		fmt.Println(sep)
		fmt.Println(sec.Working.Render())
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate <plan-id>",
	Short: "Generate the plan draft from the completed assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, s, err := openService(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := svc.Generate(ctx, args[0])
		if err != nil {
			return err
		}

		printPlan(p)
		return nil
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <plan-id>",
	Short: "Regenerate the entire plan from scratch",
	Long:  "Regenerate all sections under a new generation version. Review state resets; earlier revision history is preserved.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, s, err := openService(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := svc.Rebuild(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Rebuilt plan (generation %d).\n\n", p.GenerationVersion)
		printPlan(p)
		return nil
	},
}

func init() {
	newCmd.Flags().String("student", "", "Student name")
	newCmd.Flags().String("behavior", "", "Target behavior description")
	newCmd.MarkFlagRequired("student")
	newCmd.MarkFlagRequired("behavior")
}
