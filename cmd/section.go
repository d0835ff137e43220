package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/bipkit/internal/plan"
)

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Review and revise plan sections",
}

var sectionReviseCmd = &cobra.Command{
	Use:   "revise <plan-id> <section> <feedback>",
	Short: "Ask the model to rework a section per your feedback",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plan.ParseSectionKind(args[1])
		if err != nil {
			return err
		}

		ctx := context.Background()
		svc, s, err := openService(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, report, err := svc.ReviseSection(ctx, args[0], kind, args[2])
		if err != nil {
			return err
		}

		sec := p.Sections[kind]
		fmt.Printf("%s (revised)\n\n%s\n", kind.DisplayName(), sec.Working.Render())
		if sec.Rationale != "" {
			fmt.Printf("Rationale: %s\n", sec.Rationale)
		}
		printCoherence(report)
		printNextSection(p)
		return nil
	},
}

var sectionEditCmd = &cobra.Command{
	Use:   "edit <plan-id> <section> <content>",
	Short: "Replace a section with your own text",
	Long: `Replace a section's content directly.

For the prevention strategies section, pass exactly three strategies
separated by ||, for example:
  bipkit section edit <plan-id> prevention_strategies "Offer choices||Shorten tasks||Schedule breaks"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plan.ParseSectionKind(args[1])
		if err != nil {
			return err
		}

		var content plan.SectionContent
		if kind == plan.SectionPreventionStrategies {
			content = plan.StrategiesContent(strings.Split(args[2], "||"))
		} else {
			content = plan.TextContent(args[2])
		}

		ctx := context.Background()
		svc, s, err := openService(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, report, err := svc.ManualEdit(ctx, args[0], kind, content)
		if err != nil {
			return err
		}

		fmt.Printf("%s (edited)\n\n%s\n", kind.DisplayName(), p.Sections[kind].Working.Render())
		printCoherence(report)
		return nil
	},
}

var sectionKeepCmd = &cobra.Command{
	Use:   "keep <plan-id> <section>",
	Short: "Approve a section as-is",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plan.ParseSectionKind(args[1])
		if err != nil {
			return err
		}

		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := svc.KeepAsIs(context.Background(), args[0], kind)
		if err != nil {
			return err
		}

		fmt.Printf("Kept %s as-is.\n", kind.DisplayName())
		printNextSection(p)
		return nil
	},
}

var sectionResetCmd = &cobra.Command{
	Use:   "reset <plan-id> <section>",
	Short: "Restore a section to its original generated draft",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plan.ParseSectionKind(args[1])
		if err != nil {
			return err
		}

		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := svc.ResetToOriginal(context.Background(), args[0], kind)
		if err != nil {
			return err
		}

		fmt.Printf("%s reset to the original draft.\n\n%s\n",
			kind.DisplayName(), p.Sections[kind].Working.Render())
		return nil
	},
}

var sectionRestoreCmd = &cobra.Command{
	Use:   "restore <plan-id> <revision-id>",
	Short: "Bring back the content of an earlier revision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		rev, err := svc.GetRevision(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		p, err := svc.RestoreRevision(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("%s restored to revision %d.\n\n%s\n",
			rev.Kind.DisplayName(), rev.RevisionNumber, p.Sections[rev.Kind].Working.Render())
		return nil
	},
}

var sectionHistoryCmd = &cobra.Command{
	Use:   "history <plan-id> <section>",
	Short: "Show the full revision history of a section",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plan.ParseSectionKind(args[1])
		if err != nil {
			return err
		}

		svc, s, err := openOfflineService(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		history, err := svc.SectionHistory(context.Background(), args[0], kind)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("No history yet; the plan has not been generated.")
			return nil
		}

		sep := strings.Repeat("─", 72)
		for _, rev := range history {
			origin := "model revision"
			switch {
			case rev.RevisionNumber == 1:
				origin = "generated draft"
			case rev.ManualEdit:
				origin = "manual edit"
			}
			fmt.Println(sep)
			fmt.Printf("Revision %d (generation %d) — %s\n", rev.RevisionNumber, rev.GenerationVersion, origin)
			fmt.Printf("ID:   %s\n", rev.ID)
			fmt.Printf("Time: %s\n", rev.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if rev.Feedback != "" {
				fmt.Printf("Feedback: %s\n", rev.Feedback)
			}
			fmt.Println()
			fmt.Println(rev.Content.Render())
		}
		return nil
	},
}

func printCoherence(report plan.CoherenceReport) {
	if report.AllCoherent() {
		return
	}
	fmt.Println("\nCoherence notes (advisory):")
	for _, kind := range plan.EditableSections() {
		v, ok := report[kind]
		if !ok || v.Coherent {
			continue
		}
		fmt.Printf("  %s: %s\n", kind.DisplayName(), v.Issue)
		if v.Suggestion != "" {
			fmt.Printf("    Suggestion: %s\n", v.Suggestion)
		}
	}
}

func printNextSection(p *plan.Plan) {
	if p.ActiveSection != "" {
		fmt.Printf("Next up: %s\n", p.ActiveSection.DisplayName())
		return
	}
	fmt.Println("All sections reviewed.")
}

func init() {
	sectionCmd.AddCommand(sectionReviseCmd)
	sectionCmd.AddCommand(sectionEditCmd)
	sectionCmd.AddCommand(sectionKeepCmd)
	sectionCmd.AddCommand(sectionResetCmd)
	sectionCmd.AddCommand(sectionRestoreCmd)
	sectionCmd.AddCommand(sectionHistoryCmd)
}
