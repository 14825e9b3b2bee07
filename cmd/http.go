package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tmmtools/modgrab/internal/scheduler"
	"github.com/tmmtools/modgrab/internal/utils"
)

func newHTTPCmd() *cobra.Command {
	var outputPath string
	var noResume bool

	cmd := &cobra.Command{
		Use:   "http [URL] [--output OUTPUT_PATH]",
		Short: "Download file via HTTP/HTTPS",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			job := utils.Job{
				JobType:          "http",
				URL:              args[0],
				OutputPath:       outputPath,
				Connections:      connections,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			}
			if noResume {
				job.Metadata["noResume"] = true
			}
			scheduler.Run([]utils.Job{job}, workers)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore partial files and start over")
	return cmd
}
