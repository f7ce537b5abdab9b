package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var catSource sourceFlags

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the distinct categories in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		src, _, err := catSource.open(ctx)
		if err != nil {
			return err
		}
		defer src.Close()
		cats, err := src.Categories(ctx)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No categories found.")
			return nil
		}
		for _, c := range cats {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	catSource.register(categoriesCmd)
}
