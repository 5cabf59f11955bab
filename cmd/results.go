package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/report"
	"github.com/datasightlabs/datasight-cli/internal/tui"
)

var resultsInteractive bool

var resultsCmd = &cobra.Command{
	Use:   "results [ID]",
	Short: "List stored analysis results, or show one in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := requireSession()
		if err != nil {
			return err
		}
		client := newClient()

		if len(args) == 1 {
			stored, err := client.GetResult(context.Background(), sess.Token, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch result details: %w", err)
			}
			d, err := report.Normalize(&stored.Result)
			if err != nil {
				return err
			}
			fmt.Printf("File: %s | Date: %s\n\n", stored.Filename, stored.Timestamp)
			fmt.Println(report.Render(d))
			return nil
		}

		if resultsInteractive {
			b, err := tui.NewBrowser(client, sess)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(b).Run()
			return err
		}

		items, err := client.ListResults(context.Background(), sess.Token)
		if err != nil {
			return fmt.Errorf("failed to fetch results: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("(no results yet — run `datasight analyze` first)")
			return nil
		}
		for _, item := range items {
			fmt.Printf("- %s  %s  %s\n", item.ID, item.Filename, item.Timestamp)
			fmt.Printf("  target=%s  features=%d  model=%s  %s\n",
				item.Result.TargetColumn,
				len(item.Result.FeatureColumns),
				report.HumanizeModel(item.Result.ModelType),
				metricsSnippet(&item))
		}
		return nil
	},
}

func metricsSnippet(item *api.StoredResult) string {
	switch item.Result.Metrics.Kind() {
	case report.Classification:
		m := item.Result.Metrics.Classification
		return fmt.Sprintf("accuracy=%.1f%%", m.Accuracy*100)
	default:
		m := item.Result.Metrics.Regression
		return fmt.Sprintf("r2=%.1f%% rmse=%.2f", m.R2Score*100, m.RMSE)
	}
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().BoolVarP(&resultsInteractive, "interactive", "i", false, "browse results in an interactive view")
}
