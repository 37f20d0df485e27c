package cli

import (
	"fmt"
	"os"

	"github.com/gogotex/pdfstore/internal/pdf"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <file.pdf>",
	Short: "Show how a PDF would be segmented",
	Long: `Estimates the average page size of a local PDF and prints the page ranges
the service would cut it into. With --build the segments are materialized in
memory and their real sizes are printed too.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

var (
	planBudget   int64
	planMargin   float64
	planBuild    bool
	planAdaptive bool
)

func init() {
	planCmd.Flags().Int64Var(&planBudget, "budget", pdf.DefaultBudgetBytes, "Segment size budget in bytes")
	planCmd.Flags().Float64Var(&planMargin, "margin", pdf.DefaultSafetyMargin, "Safety margin applied to the budget when planning")
	planCmd.Flags().BoolVar(&planBuild, "build", false, "Build the segments and report their sizes")
	planCmd.Flags().BoolVar(&planAdaptive, "adaptive", true, "Shrink segments that come out over budget (with --build)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := pdf.Load(f)
	if err != nil {
		return err
	}
	avg, err := pdf.EstimatePageSize(doc)
	if err != nil {
		return err
	}
	budget := pdf.Budget{Bytes: planBudget, Margin: planMargin}
	plan, err := pdf.PlanSegments(doc.PageCount(), avg, budget)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pages:             %d\n", plan.TotalPages)
	fmt.Fprintf(out, "avg page size:     %.0f bytes\n", plan.AvgPageSize)
	fmt.Fprintf(out, "pages per segment: %d\n", plan.PagesPerSegment)

	if !planBuild {
		fmt.Fprintf(out, "segments:          %d\n", len(plan.Ranges))
		for i, r := range plan.Ranges {
			fmt.Fprintf(out, "  %3d  pages %s\n", i+1, r)
		}
		return nil
	}

	b := &pdf.Builder{Limit: budget.Bytes, Adaptive: planAdaptive}
	segments, err := b.Build(cmd.Context(), doc, plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "segments:          %d\n", len(segments))
	for i, s := range segments {
		flag := ""
		if s.OverBudget(budget.Bytes) {
			flag = "  over budget"
		}
		fmt.Fprintf(out, "  %3d  pages %-9s %10d bytes%s\n", i+1, s.Range, s.Size(), flag)
	}
	return nil
}
