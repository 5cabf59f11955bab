package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/report"
	"github.com/datasightlabs/datasight-cli/internal/tui"
	"github.com/datasightlabs/datasight-cli/internal/workflow"
)

var (
	anaTarget string
	anaModel  string
	anaSave   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv>",
	Short: "Upload a CSV and run an ML analysis over it",
	Long: `Uploads the file and submits a prediction request. With --target the whole
pipeline runs non-interactively; without it an interactive wizard walks
through target-column and model selection.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		sess, err := requireSession()
		if err != nil {
			return err
		}
		client := newClient()
		up := workflow.NewUploader(client, sess)
		an := workflow.NewAnalyzer(client, sess)

		save := anaSave
		if !cmd.Flags().Changed("save") && cfg != nil {
			save = cfg.SaveToDB
		}

		if anaTarget == "" {
			w, err := tui.NewWizard(up, an, path, save)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(w).Run()
			return err
		}

		if !api.ValidModelType(anaModel) {
			return fmt.Errorf("unknown model type %q (one of: linear_regression, logistic_regression, naive_bayes)", anaModel)
		}
		if err := up.Choose(path); err != nil {
			return err
		}
		ds, err := up.Start(context.Background(), path, save)
		if err != nil {
			msg, hint := up.Failure()
			fmt.Fprintln(os.Stderr, "✗", msg)
			if hint.Title != "" {
				fmt.Fprintf(os.Stderr, "💡 %s: %s\n", hint.Title, hint.Advice)
			}
			return err
		}
		if err := an.Submit(context.Background(), ds, anaTarget, anaModel); err != nil {
			msg, hint := an.Failure()
			fmt.Fprintln(os.Stderr, "✗", msg)
			if hint.Title != "" {
				fmt.Fprintf(os.Stderr, "💡 %s: %s\n", hint.Title, hint.Advice)
			}
			return err
		}
		fmt.Printf("Analysis completed successfully with %s! Run `datasight results` to view details.\n",
			report.HumanizeModel(anaModel))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaTarget, "target", "t", "", "target column to predict (omit for interactive mode)")
	analyzeCmd.Flags().StringVarP(&anaModel, "model", "m", api.ModelLinearRegression, "model type")
	analyzeCmd.Flags().BoolVar(&anaSave, "save", false, "save the raw records to the server database")
}
