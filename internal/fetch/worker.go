package fetch

import (
	"fmt"
	"io"
	"net/http"

	"github.com/tmmtools/modgrab/internal/utils"
)

// chunkData is one read delivered by a worker: count bytes belonging at
// the absolute offset.
type chunkData struct {
	count  int64
	offset int64
	data   []byte
}

// fetchChunk retrieves one byte range and streams its reads onto dataCh.
// On failure it reports the unfetched remainder of the range on errCh:
// bytes already delivered were counted by the aggregator, so requeueing
// them would double-deliver and the transfer would never balance.
func (d *Download) fetchChunk(tmpl *http.Request, chunk Chunk, dataCh chan<- chunkData, errCh chan<- Chunk, done <-chan struct{}) {
	cursor := chunk.Start
	if err := d.streamChunk(tmpl, chunk, dataCh, done, &cursor); err != nil {
		log := utils.GetLogger("chunk")
		log.Debug().Err(err).Int64("start", chunk.Start).Int64("end", chunk.End).Int64("cursor", cursor).Msg("Chunk fetch failed")
		select {
		case errCh <- Chunk{Start: cursor, End: chunk.End}:
		case <-done:
		}
	}
}

func (d *Download) streamChunk(tmpl *http.Request, chunk Chunk, dataCh chan<- chunkData, done <-chan struct{}, cursor *int64) error {
	req := tmpl.Clone(tmpl.Context())
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", chunk.Start, chunk.End))
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		// A 200 here would be the whole resource, not our range
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	size := chunk.End - chunk.Start
	buf := make([]byte, d.conf.BufferSize)
	var cnt int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case dataCh <- chunkData{count: int64(n), offset: *cursor, data: data}:
				*cursor += int64(n)
				cnt += int64(n)
			case <-done:
				return nil
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return readErr
		}
		if cnt >= size+1 {
			break
		}
	}
	return nil
}
