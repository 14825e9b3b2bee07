package scheduler

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tmmtools/modgrab/internal/downloaders/gitclone"
	grabhttp "github.com/tmmtools/modgrab/internal/downloaders/http"
	"github.com/tmmtools/modgrab/internal/downloaders/s3"
	"github.com/tmmtools/modgrab/internal/output"
	"github.com/tmmtools/modgrab/internal/utils"
)

// downloaderRegistry maps job types to their downloader implementations.
var downloaderRegistry = map[string]utils.Downloader{
	"http":     &grabhttp.HTTPDownloader{},
	"s3":       &s3.S3Downloader{},
	"gitclone": &gitclone.GitCloneDownloader{},
}

// Run fans the jobs out over numWorkers workers and blocks until every
// job has either completed or failed.
func Run(jobs []utils.Job, numWorkers int) error {
	log := utils.GetLogger("scheduler")
	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	jobCh := make(chan utils.Job, len(jobs))
	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.New().String()
		}
		if job.Metadata == nil {
			job.Metadata = make(map[string]any)
		}
		jobCh <- job
	}
	close(jobCh)

	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	log.Debug().Int("workers", numWorkers).Int("jobs", len(jobs)).Msg("starting scheduler")

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processJobs(jobCh, outputMgr)
		}()
	}
	wg.Wait()
	return nil
}

func processJobs(jobCh <-chan utils.Job, outputMgr *output.Manager) {
	log := utils.GetLogger("scheduler")
	for job := range jobCh {
		funcID := outputMgr.Register(job.URL)

		downloader, exists := downloaderRegistry[job.JobType]
		if !exists {
			outputMgr.ReportError(funcID, fmt.Errorf("unknown job type: %s", job.JobType))
			outputMgr.SetMessage(funcID, fmt.Sprintf("Error: Unknown job type %s", job.JobType))
			continue
		}
		log.Debug().Str("jobID", job.ID).Str("type", job.JobType).Str("url", job.URL).Msg("processing job")

		outputMgr.SetStatus(funcID, "pending")
		outputMgr.SetMessage(funcID, fmt.Sprintf("Validating %s job", job.JobType))
		if err := downloader.ValidateJob(&job); err != nil {
			outputMgr.ReportError(funcID, fmt.Errorf("validation failed: %v", err))
			outputMgr.SetMessage(funcID, fmt.Sprintf("Validation failed for %s", job.URL))
			continue
		}

		outputMgr.SetMessage(funcID, fmt.Sprintf("Building %s job", job.JobType))
		if err := downloader.BuildJob(&job); err != nil {
			outputMgr.ReportError(funcID, fmt.Errorf("build failed: %v", err))
			outputMgr.SetMessage(funcID, fmt.Sprintf("Build failed for %s", job.URL))
			continue
		}

		job.ProgressFunc = func(downloaded, total int64) {
			outputMgr.AddProgressBarToStream(funcID, downloaded, total,
				fmt.Sprintf("%s / %s", utils.FormatBytes(uint64(downloaded)), utils.FormatBytes(uint64(max(total, 0)))))
		}
		job.StreamFunc = func(line string) {
			outputMgr.AddStreamLine(funcID, line)
		}

		outputMgr.SetMessage(funcID, fmt.Sprintf("Downloading %s", job.OutputPath))
		if err := downloader.Download(&job); err != nil {
			outputMgr.ReportError(funcID, fmt.Errorf("download failed: %v", err))
			outputMgr.SetMessage(funcID, fmt.Sprintf("Download failed for %s", job.OutputPath))
			continue
		}
		outputMgr.Complete(funcID, fmt.Sprintf("Completed %s", job.OutputPath))
	}
}
