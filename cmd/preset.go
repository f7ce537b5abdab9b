package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/npsmentor-cli/internal/utils"
)

var (
	presetFilter filterFlags
	presetDesc   string
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved report filters",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a filter under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := presetFilter.resolve(cmd)
		if err != nil {
			return err
		}
		p, err := presetStore().Save(args[0], presetDesc, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved preset %s (%s)\n", p.Name, p.Filter)
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := presetStore().List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No presets found.")
			return nil
		}
		for _, p := range list {
			line := fmt.Sprintf("%s\t%s", p.Name, p.Filter)
			if p.Description != "" {
				line += "\t" + p.Description
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(line))
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a preset as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := presetStore().Load(args[0])
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(p)
		if err != nil {
			return err
		}
		_, _ = cmd.OutOrStdout().Write(b)
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := presetStore().Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted preset %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetDeleteCmd)
	presetFilter.register(presetSaveCmd, false)
	presetSaveCmd.Flags().StringVarP(&presetDesc, "description", "d", "", "preset description")
}
