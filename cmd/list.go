package cmd

import (
	"github.com/spf13/cobra"

	"gooze.dev/pkg/mutants/internal/controller"
	"gooze.dev/pkg/mutants/internal/domain"
)

const (
	formatFlagName = "format"
	diffFlagName   = "diff"
)

// listCmd represents the list command.
var listCmd = newListCmd()

// listFilesCmd represents the list-files command.
var listFilesCmd = newListFilesCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [packages...]",
		Short: "List the mutants that would be tested",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := listArgs(cmd, args)
			if err != nil {
				return err
			}

			return workflow.List(cmd.Context(), opts)
		},
	}

	configureFilterFlags(cmd)
	cmd.Flags().String(formatFlagName, string(controller.FormatText), "output format: text, json or yaml")
	cmd.Flags().Bool(diffFlagName, false, "show the diff of each mutant")

	return cmd
}

func newListFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-files [packages...]",
		Short: "List the source files that would be mutated",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := listArgs(cmd, args)
			if err != nil {
				return err
			}

			return workflow.ListFiles(cmd.Context(), opts)
		},
	}

	configureFilterFlags(cmd)
	cmd.Flags().String(formatFlagName, string(controller.FormatText), "output format: text, json or yaml")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(listFilesCmd)
}

func listArgs(cmd *cobra.Command, patterns []string) (domain.ListArgs, error) {
	value, _ := cmd.Flags().GetString(formatFlagName)

	format, err := controller.ParseOutputFormat(value)
	if err != nil {
		return domain.ListArgs{}, &domain.UsageError{Err: err}
	}

	diff, _ := cmd.Flags().GetBool(diffFlagName)

	return domain.ListArgs{
		EstimateArgs: estimateArgs(cmd, patterns),
		Format:       format,
		Diff:         diff,
	}, nil
}
