package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the datasets stored for your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := requireSession()
		if err != nil {
			return err
		}
		files, err := newClient().ListFiles(context.Background(), sess.Token)
		if err != nil {
			return fmt.Errorf("failed to fetch files: %w", err)
		}
		if len(files) == 0 {
			fmt.Println("(no files yet — upload a CSV to start analyzing)")
			return nil
		}
		for _, f := range files {
			fmt.Printf("- %s  %s  %d rows × %d columns\n",
				f.Filename, f.UploadedAt, f.FileData.RowCount, f.FileData.ColumnCount)
			fmt.Printf("  columns: %s\n", strings.Join(f.FileData.Columns, ", "))
			nulls := 0
			for _, n := range f.FileData.NullCounts {
				nulls += n
			}
			if nulls > 0 {
				fmt.Printf("  null values: %d\n", nulls)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
