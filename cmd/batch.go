package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tmmtools/modgrab/internal/output"
	"github.com/tmmtools/modgrab/internal/scheduler"
	"github.com/tmmtools/modgrab/internal/utils"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [OPTIONS]",
		Short: "Process multiple downloads from a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := utils.ReadDownloadList(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			jobs := buildJobsFromEntries(entries)
			if len(jobs) == 0 {
				output.PrintError("No valid jobs found in the batch file")
				os.Exit(1)
			}
			// Keep the aggregate connection count sane when many links
			// download at once.
			connectionsPerLink := connections
			maxConnections := 64
			if workers*connectionsPerLink > maxConnections {
				connectionsPerLink = max(maxConnections/workers, 1)
			}
			for i := range jobs {
				jobs[i].Connections = connectionsPerLink
			}
			scheduler.Run(jobs, workers)
		},
	}
	return cmd
}

func buildJobsFromEntries(entries []utils.DownloadEntry) []utils.Job {
	var jobs []utils.Job
	for _, entry := range entries {
		jobType := entry.Type
		if jobType == "" {
			jobType = utils.DetermineDownloadType(entry.URL)
		}
		job := utils.Job{
			JobType:          jobType,
			URL:              entry.URL,
			OutputPath:       entry.OutputPath,
			HTTPClientConfig: globalHTTPConfig,
			Metadata:         make(map[string]any),
		}
		if jobType == "s3" {
			job.Metadata["profile"] = ""
		}
		jobs = append(jobs, job)
	}
	return jobs
}
