package fetch

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects every event for assertions. Hooks run on the
// orchestrating goroutine only, so no locking is needed.
type recorder struct {
	NoopEvents
	events        []string
	resumeBytes   int64
	contentLength int64
	total         int64
	assembled     []byte
	single        []byte
	maxRetries    int
}

func newRecorder(size int) *recorder {
	return &recorder{assembled: make([]byte, size)}
}

func (r *recorder) OnResume(bytesOnDisk int64) {
	r.events = append(r.events, "resume")
	r.resumeBytes = bytesOnDisk
}

func (r *recorder) OnServerSupportsResume() {
	r.events = append(r.events, "server-resume")
}

func (r *recorder) OnHeaders(headers http.Header) {
	r.events = append(r.events, "headers")
}

func (r *recorder) OnContentLength(length int64) {
	r.events = append(r.events, "content-length")
	r.contentLength = length
}

func (r *recorder) OnContent(data []byte) error {
	r.single = append(r.single, data...)
	r.total += int64(len(data))
	return nil
}

func (r *recorder) OnConcurrentContent(count, offset int64, data []byte) error {
	copy(r.assembled[offset:], data)
	r.total += count
	return nil
}

func (r *recorder) OnSuccessStatus(code int) {
	r.events = append(r.events, fmt.Sprintf("success:%d", code))
}

func (r *recorder) OnFailureStatus(code int) {
	r.events = append(r.events, fmt.Sprintf("failure:%d", code))
}

func (r *recorder) OnMaxRetries() { r.maxRetries++ }

func (r *recorder) OnFinish() { r.events = append(r.events, "finish") }

func randomContent(n int) []byte {
	content := make([]byte, n)
	rng := rand.New(rand.NewSource(42))
	rng.Read(content)
	return content
}

// serveRange implements enough of RFC 7233 for the engine: full body on a
// plain GET, 206 with the requested slice when a Range header is present.
func serveRange(w http.ResponseWriter, r *http.Request, content []byte) {
	w.Header().Set("Accept-Ranges", "bytes")
	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
		return
	}
	spec := strings.TrimPrefix(rangeHeader, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	start, _ := strconv.ParseInt(parts[0], 10, 64)
	end := int64(len(content)) - 1
	if len(parts) == 2 && parts[1] != "" {
		if parsed, err := strconv.ParseInt(parts[1], 10, 64); err == nil && parsed < end {
			end = parsed
		}
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(content)))
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.WriteHeader(http.StatusPartialContent)
	w.Write(content[start : end+1])
}

func TestConcurrentDownloadConservation(t *testing.T) {
	content := randomContent(100_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveRange(w, r, content)
	}))
	defer server.Close()

	rec := newRecorder(len(content))
	d := New(server.URL, Config{
		Concurrent: true,
		NumWorkers: 4,
		ChunkSize:  10_000,
		BufferSize: 1024,
	})
	d.EventsHook(rec)
	require.NoError(t, d.Download())

	assert.Equal(t, int64(len(content)), rec.total)
	assert.Equal(t, int64(len(content)), rec.contentLength)
	assert.Equal(t, content, rec.assembled)
	assert.Empty(t, rec.single, "concurrent path must not fire plain content events")
	assert.Equal(t, "headers", rec.events[0])
	assert.Equal(t, "content-length", rec.events[1])
	assert.Equal(t, "success:200", rec.events[len(rec.events)-2])
	assert.Equal(t, "finish", rec.events[len(rec.events)-1])
	assert.Zero(t, rec.maxRetries)
}

func TestSingleStreamWhenRangesUnsupported(t *testing.T) {
	content := randomContent(30_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	rec := newRecorder(0)
	d := New(server.URL, Config{Concurrent: true, NumWorkers: 4, BufferSize: 1024})
	d.EventsHook(rec)
	require.NoError(t, d.Download())

	assert.Equal(t, content, rec.single)
	assert.Equal(t, int64(len(content)), rec.total)
}

func TestSingleStreamWhenContentLengthUnknown(t *testing.T) {
	content := randomContent(20_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing forces chunked transfer encoding, so no Content-Length
		// reaches the client even though ranges are advertised.
		w.Header().Set("Accept-Ranges", "bytes")
		w.Write(content[:1])
		w.(http.Flusher).Flush()
		w.Write(content[1:])
	}))
	defer server.Close()

	rec := newRecorder(0)
	d := New(server.URL, Config{Concurrent: true, NumWorkers: 4, BufferSize: 1024})
	d.EventsHook(rec)
	require.NoError(t, d.Download())

	assert.Equal(t, content, rec.single, "must fall back to single stream without a content length")
	assert.NotContains(t, rec.events, "content-length")
}

func TestResumeDetectionDropsRangeHeader(t *testing.T) {
	content := randomContent(1000)
	var requests atomic.Int32
	var sawRangeAfterProbe atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Request 1 is the probe (caller's Range applies); request 2 is the
		// informational request, whose Range must have been dropped.
		if requests.Add(1) == 2 && r.Header.Get("Range") != "" {
			sawRangeAfterProbe.Store(true)
		}
		serveRange(w, r, content)
	}))
	defer server.Close()

	headers := make(http.Header)
	headers.Set("Range", "bytes=100-")
	rec := newRecorder(len(content))
	d := New(server.URL, Config{
		Resume:       true,
		Headers:      headers,
		Concurrent:   true,
		NumWorkers:   2,
		BytesOnDisk: 100,
		// probe carries Range: bytes=100-, so the reported content length is
		// the remaining 900 bytes; the chunk list covers [100, 900)
		ChunkOffsets: []Chunk{{Start: 100, End: 899}},
		BufferSize:   256,
	})
	d.EventsHook(rec)
	require.NoError(t, d.Download())

	assert.False(t, sawRangeAfterProbe.Load(), "caller Range header must be dropped for the informational request")
	assert.Equal(t, "resume", rec.events[0])
	assert.Equal(t, int64(100), rec.resumeBytes)
	assert.Contains(t, rec.events, "server-resume")
	assert.Equal(t, int64(800), rec.total, "bytes on disk plus delivered bytes must balance the content length")
	assert.Equal(t, content[100:900], rec.assembled[100:900])
}

func TestRetryRedeliversFailedChunkOnce(t *testing.T) {
	content := randomContent(40_000)
	var failed atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First ranged request for the opening chunk fails; its retry and
		// everything else succeeds.
		if strings.HasPrefix(r.Header.Get("Range"), "bytes=0-") && failed.CompareAndSwap(false, true) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		serveRange(w, r, content)
	}))
	defer server.Close()

	rec := newRecorder(len(content))
	d := New(server.URL, Config{
		Concurrent: true,
		NumWorkers: 2,
		ChunkSize:  10_000,
		BufferSize: 1024,
	})
	d.EventsHook(rec)
	require.NoError(t, d.Download())

	assert.Equal(t, int64(len(content)), rec.total, "failed chunk must be delivered exactly once")
	assert.Equal(t, content, rec.assembled)
	assert.Equal(t, 1, d.retries)
	assert.Zero(t, rec.maxRetries)
}

func TestRetryBudgetSignalsWithoutAborting(t *testing.T) {
	content := randomContent(5000)
	var failures atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Range"), "bytes=0-") && failures.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		serveRange(w, r, content)
	}))
	defer server.Close()

	rec := newRecorder(len(content))
	d := New(server.URL, Config{
		Concurrent: true,
		NumWorkers: 1,
		ChunkSize:  5000,
		MaxRetries: 1,
		BufferSize: 512,
	})
	d.EventsHook(rec)
	require.NoError(t, d.Download(), "budget excess must not fail the download")

	assert.Equal(t, content, rec.assembled)
	assert.Equal(t, 3, d.retries)
	// Signals fire on the third failure only (retries already past the cap)
	assert.Equal(t, 1, rec.maxRetries)
}

func TestProbeFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	rec := newRecorder(0)
	d := New(server.URL, Config{})
	d.EventsHook(rec)
	err := d.Download()
	require.Error(t, err)
	assert.Contains(t, rec.events, "failure:404")
	assert.NotContains(t, rec.events, "finish")
}

func TestHooksFireInRegistrationOrder(t *testing.T) {
	content := randomContent(100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	var order []string
	first := &orderHook{name: "first", order: &order}
	second := &orderHook{name: "second", order: &order}
	d := New(server.URL, Config{})
	d.EventsHook(first).EventsHook(second)
	require.NoError(t, d.Download())

	require.GreaterOrEqual(t, len(order), 2)
	for i := 0; i+1 < len(order); i += 2 {
		assert.Equal(t, "first", order[i])
		assert.Equal(t, "second", order[i+1])
	}
}

type orderHook struct {
	NoopEvents
	name  string
	order *[]string
}

func (h *orderHook) OnHeaders(headers http.Header) { *h.order = append(*h.order, h.name) }

func (h *orderHook) OnFinish() { *h.order = append(*h.order, h.name) }
