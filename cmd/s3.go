package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tmmtools/modgrab/internal/scheduler"
	"github.com/tmmtools/modgrab/internal/utils"
)

func newS3Cmd() *cobra.Command {
	var outputPath string
	var profile string

	cmd := &cobra.Command{
		Use:   "s3 [s3://BUCKET/KEY]",
		Short: "Download files from AWS S3",
		Long: `Download files or folders from AWS S3.

Examples:
  modgrab s3 s3://mybucket/path/to/file.zip
  modgrab s3 s3://mybucket/path/to/folder/
  modgrab s3 s3://mybucket/file.zip --profile myprofile`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			job := utils.Job{
				JobType:          "s3",
				URL:              args[0],
				OutputPath:       outputPath,
				Connections:      connections,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			}
			job.Metadata["profile"] = profile
			scheduler.Run([]utils.Job{job}, workers)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile to use")
	return cmd
}
