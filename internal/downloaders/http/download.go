package grabhttp

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tmmtools/modgrab/internal/fetch"
	"github.com/tmmtools/modgrab/internal/utils"
)

func (d *HTTPDownloader) Download(job *utils.Job) error {
	log := utils.GetLogger("http")
	fileSize, _ := job.Metadata["fileSize"].(int64)
	rangeSupported, _ := job.Metadata["rangeSupported"].(bool)
	bytesOnDisk, _ := job.Metadata["bytesOnDisk"].(int64)

	headers := make(http.Header)
	for key, value := range job.HTTPClientConfig.Headers {
		headers.Set(key, value)
	}
	conf := fetch.Config{
		UserAgent:  job.HTTPClientConfig.UserAgent,
		Headers:    headers,
		File:       filepath.Base(job.OutputPath),
		SavePath:   filepath.Dir(job.OutputPath),
		Timeout:    job.HTTPClientConfig.Timeout,
		Concurrent: rangeSupported && job.Connections > 1,
		NumWorkers: job.Connections,
		ChunkSize:  utils.DefaultChunkSize,
	}
	if bytesOnDisk > 0 {
		conf.Resume = true
		conf.BytesOnDisk = bytesOnDisk
		if conf.Concurrent {
			// Absolute offsets for the unfetched tail; the probe stays
			// range-free so its content length matches these coordinates
			conf.ChunkOffsets = remainingChunks(bytesOnDisk, fileSize, conf.ChunkSize)
		} else {
			conf.Headers.Set("Range", fmt.Sprintf("bytes=%d-", bytesOnDisk))
		}
		log.Debug().Str("file", filepath.Base(job.OutputPath)).Int64("size", bytesOnDisk).Msg("Resuming incomplete download")
	}

	tempPath := job.OutputPath + ".part"
	writer, err := newFileWriter(tempPath, bytesOnDisk)
	if err != nil {
		return err
	}
	progress := &progressHook{total: fileSize, report: job.ProgressFunc}

	dl := fetch.New(job.URL, conf).SetClient(utils.NewHTTPClient(job.HTTPClientConfig))
	dl.EventsHook(writer).EventsHook(progress)
	if err := dl.Download(); err != nil {
		writer.Close()
		return fmt.Errorf("error downloading %s: %v", job.URL, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("error closing output file: %v", err)
	}
	if err := os.Rename(tempPath, job.OutputPath); err != nil {
		return fmt.Errorf("error renaming (finalizing) output file: %v", err)
	}
	return nil
}

// remainingChunks trims the full partition down to the ranges not yet on
// disk. The first surviving chunk may shrink when the saved prefix ends
// mid-chunk.
func remainingChunks(bytesOnDisk, fileSize, chunkSize int64) []fetch.Chunk {
	var remaining []fetch.Chunk
	for _, chunk := range fetch.ChunkOffsets(fileSize, chunkSize) {
		if chunk.End < bytesOnDisk {
			continue
		}
		if chunk.Start < bytesOnDisk {
			chunk.Start = bytesOnDisk
		}
		remaining = append(remaining, chunk)
	}
	return remaining
}
