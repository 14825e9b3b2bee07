package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tmmtools/modgrab/internal/output"
	"github.com/tmmtools/modgrab/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Clean up temporary files",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			if err := utils.Clean(path); err != nil {
				output.PrintError("Error cleaning up temporary files")
				return
			}
			output.PrintSuccess("Temporary files cleaned up")
		},
	}
}
