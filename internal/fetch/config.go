package fetch

import (
	"net/http"
	"time"

	"github.com/tmmtools/modgrab/internal/utils"
)

// Config is the immutable parameter set for one download. To resume a
// prior transfer, thread BytesOnDisk (and optionally the remaining
// ChunkOffsets) back in through a fresh Config; the engine trusts resume
// state and does not re-validate it.
type Config struct {
	UserAgent    string
	Resume       bool
	Headers      http.Header
	File         string
	SavePath     string
	Timeout      time.Duration
	Concurrent   bool
	MaxRetries   int
	NumWorkers   int
	BytesOnDisk  int64
	ChunkOffsets []Chunk
	ChunkSize    int64
	BufferSize   int
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "modgrab"
	}
	if c.Headers == nil {
		c.Headers = make(http.Header)
	}
	if c.Timeout == 0 {
		c.Timeout = 3 * time.Minute
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.NumWorkers < 1 {
		c.NumWorkers = 8
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = utils.DefaultChunkSize
	}
	if c.BufferSize <= 0 {
		c.BufferSize = utils.DefaultBufferSize
	}
	return c
}
