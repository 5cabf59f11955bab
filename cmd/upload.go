package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datasightlabs/datasight-cli/internal/dataset"
	"github.com/datasightlabs/datasight-cli/internal/workflow"
)

var uploadSave bool

var uploadCmd = &cobra.Command{
	Use:   "upload <file.csv>",
	Short: "Upload a CSV dataset to your account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		sess, err := requireSession()
		if err != nil {
			return err
		}

		up := workflow.NewUploader(newClient(), sess)
		if err := up.Choose(path); err != nil {
			return err
		}

		// Preview is independent of the upload and purely cosmetic.
		if b, err := os.ReadFile(path); err == nil {
			printPreview(dataset.Preview(string(b)))
		}

		save := uploadSave
		if !cmd.Flags().Changed("save") && cfg != nil {
			save = cfg.SaveToDB
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

		fmt.Printf("File uploaded successfully! %s\n", ds.Message)
		fmt.Printf("- filename: %s\n", ds.Filename)
		fmt.Printf("- rows: %d, columns: %d\n", ds.RowCount, ds.ColumnCount)
		fmt.Printf("- columns: %s\n", strings.Join(ds.Columns, ", "))
		printNullCounts(ds.NullCounts)
		if ds.DBMessage != "" {
			fmt.Println("-", ds.DBMessage)
		}
		return nil
	},
}

func printPreview(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	fmt.Println("Preview (first 5 rows):")
	for _, row := range rows {
		fmt.Println("  " + strings.Join(row, " | "))
	}
	fmt.Println()
}

func printNullCounts(counts map[string]int) {
	cols := make([]string, 0, len(counts))
	for col, n := range counts {
		if n > 0 {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		fmt.Println("- no null values found")
		return
	}
	sort.Strings(cols)
	for _, col := range cols {
		fmt.Printf("- %s: %d null values\n", col, counts[col])
	}
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVar(&uploadSave, "save", false, "save the raw records to the server database")
}
