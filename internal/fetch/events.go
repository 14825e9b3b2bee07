package fetch

import "net/http"

// EventsHandler observes the lifecycle of one download. Any number of
// handlers may be registered; each event is delivered to every handler
// synchronously, in registration order, so implementations must not block.
//
// Concurrent-path content arrives tagged with its absolute offset and may
// be delivered out of transmission order; consumers reassemble by offset.
type EventsHandler interface {
	// OnResume fires when the transfer starts past previously saved bytes.
	OnResume(bytesOnDisk int64)
	// OnServerSupportsResume fires when the server advertises byte-range
	// support and the caller asked to continue a prior transfer.
	OnServerSupportsResume()
	OnHeaders(headers http.Header)
	OnContentLength(length int64)
	// OnContent receives body bytes on the single-stream path. Returning an
	// error aborts the download.
	OnContent(data []byte) error
	// OnConcurrentContent receives one chunk read: count bytes belonging at
	// the given absolute offset. Returning an error aborts the download.
	OnConcurrentContent(count, offset int64, data []byte) error
	OnSuccessStatus(code int)
	OnFailureStatus(code int)
	// OnMaxRetries fires for every chunk failure past the retry budget.
	OnMaxRetries()
	OnFinish()
}

// NoopEvents is a no-op EventsHandler; embed it and override only the
// events of interest.
type NoopEvents struct{}

func (NoopEvents) OnResume(bytesOnDisk int64) {}

func (NoopEvents) OnServerSupportsResume() {}

func (NoopEvents) OnHeaders(headers http.Header) {}

func (NoopEvents) OnContentLength(length int64) {}

func (NoopEvents) OnContent(data []byte) error { return nil }

func (NoopEvents) OnConcurrentContent(count, offset int64, data []byte) error { return nil }

func (NoopEvents) OnSuccessStatus(code int) {}

func (NoopEvents) OnFailureStatus(code int) {}

func (NoopEvents) OnMaxRetries() {}

func (NoopEvents) OnFinish() {}
