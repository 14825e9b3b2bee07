package fetch

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/tmmtools/modgrab/internal/utils"
)

// Download drives one archive transfer: it probes the server for range
// support, picks the concurrent or single-stream strategy, and delivers
// every byte past BytesOnDisk to the registered hooks exactly once.
type Download struct {
	url     string
	conf    Config
	hooks   []EventsHandler
	retries int
	client  *http.Client
}

func New(url string, conf Config) *Download {
	conf = conf.withDefaults()
	return &Download{
		url:    url,
		conf:   conf,
		client: &http.Client{Timeout: conf.Timeout},
	}
}

// SetClient replaces the default HTTP client, for proxies or custom
// transports built via utils.NewHTTPClient.
func (d *Download) SetClient(client *http.Client) *Download {
	d.client = client
	return d
}

// EventsHook registers a hook. Hooks fire in registration order.
func (d *Download) EventsHook(hook EventsHandler) *Download {
	d.hooks = append(d.hooks, hook)
	return d
}

// Download performs the transfer. The probe is a plain GET rather than a
// HEAD because many servers answer HEAD inconsistently for dynamically
// sized resources; its body goes unused when the concurrent path wins.
func (d *Download) Download() error {
	log := utils.GetLogger("fetch")
	if d.conf.BytesOnDisk > 0 {
		for _, hook := range d.hooks {
			hook.OnResume(d.conf.BytesOnDisk)
		}
	}
	probe, err := d.buildRequest()
	if err != nil {
		return err
	}
	resp, err := d.client.Do(probe)
	if err != nil {
		return fmt.Errorf("error probing server: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		for _, hook := range d.hooks {
			hook.OnFailureStatus(resp.StatusCode)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	serverSupportsBytes := resp.Header.Get("Accept-Ranges") == "bytes"
	if serverSupportsBytes && d.conf.Headers.Get("Range") != "" {
		if d.conf.Concurrent {
			// chunk workers synthesize their own ranges
			d.conf.Headers.Del("Range")
		}
		for _, hook := range d.hooks {
			hook.OnServerSupportsResume()
		}
	}
	req, err := d.buildRequest()
	if err != nil {
		return err
	}
	for _, hook := range d.hooks {
		hook.OnHeaders(resp.Header)
	}

	status := resp.StatusCode
	if serverSupportsBytes && d.conf.Concurrent && resp.Header.Get("Content-Length") != "" {
		contentLength, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
		if err != nil {
			return fmt.Errorf("error parsing Content-Length header: %v", err)
		}
		log.Debug().Str("url", d.url).Int64("contentLength", contentLength).Int("workers", d.conf.NumWorkers).Msg("Using concurrent download")
		if err := d.concurrentDownload(req, contentLength); err != nil {
			return err
		}
	} else {
		log.Debug().Str("url", d.url).Bool("rangeSupport", serverSupportsBytes).Msg("Using single-stream download")
		if err := d.singleStreamDownload(req); err != nil {
			return err
		}
	}
	for _, hook := range d.hooks {
		hook.OnSuccessStatus(status)
	}
	for _, hook := range d.hooks {
		hook.OnFinish()
	}
	return nil
}

func (d *Download) buildRequest() (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request: %v", err)
	}
	for key, values := range d.conf.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("User-Agent", d.conf.UserAgent)
	return req, nil
}

// concurrentDownload fans the chunk list out over the worker pool and
// aggregates results on the calling goroutine. Terminates only when the
// running byte count balances against the content length.
func (d *Download) concurrentDownload(req *http.Request, contentLength int64) error {
	log := utils.GetLogger("fetch")
	for _, hook := range d.hooks {
		hook.OnContentLength(contentLength)
	}
	offsets := d.conf.ChunkOffsets
	if len(offsets) == 0 {
		offsets = ChunkOffsets(contentLength, d.conf.ChunkSize)
	}
	dataCh := make(chan chunkData, d.conf.NumWorkers)
	errCh := make(chan Chunk, d.conf.NumWorkers)
	done := make(chan struct{})
	defer close(done)
	pool := newWorkerPool(d.conf.NumWorkers)
	defer pool.Stop()
	for _, chunk := range offsets {
		chunk := chunk
		pool.Submit(func() { d.fetchChunk(req, chunk, dataCh, errCh, done) })
	}

	count := d.conf.BytesOnDisk
	for count < contentLength {
		select {
		case msg := <-dataCh:
			count += msg.count
			for _, hook := range d.hooks {
				if err := hook.OnConcurrentContent(msg.count, msg.offset, msg.data); err != nil {
					return err
				}
			}
		case chunk := <-errCh:
			// The retry cap only signals; failed ranges are always requeued
			// so a transfer never stalls on a transient error.
			if d.retries > d.conf.MaxRetries {
				for _, hook := range d.hooks {
					hook.OnMaxRetries()
				}
			}
			d.retries++
			log.Debug().Int64("start", chunk.Start).Int64("end", chunk.End).Int("retries", d.retries).Msg("Requeueing failed chunk")
			pool.Submit(func() { d.fetchChunk(req, chunk, dataCh, errCh, done) })
		}
	}
	return nil
}

// singleStreamDownload reads the whole body over one connection. There is
// no retry on this path; any read error fails the download.
func (d *Download) singleStreamDownload(req *http.Request) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing GET request: %v", err)
	}
	defer resp.Body.Close()
	var contentLength int64 = -1
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if parsed, err := strconv.ParseInt(cl, 10, 64); err == nil {
			contentLength = parsed
			for _, hook := range d.hooks {
				hook.OnContentLength(parsed)
			}
		}
	}
	buf := make([]byte, d.conf.BufferSize)
	var count int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, hook := range d.hooks {
				if err := hook.OnContent(buf[:n]); err != nil {
					return err
				}
			}
			count += int64(n)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %v", readErr)
		}
		if count == contentLength {
			break
		}
	}
	return nil
}
