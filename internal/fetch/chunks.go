package fetch

// Chunk is one byte range of the target resource, fetched independently.
// Start and End are absolute offsets; End is inclusive except on the final
// chunk, which closes at the content length itself (servers clamp the
// trailing range, so the last ranged request simply reads until EOF).
type Chunk struct {
	Start int64
	End   int64
}

// ChunkOffsets partitions contentLength bytes into ascending, contiguous,
// non-overlapping ranges of chunkSize bytes, the final range ending exactly
// at contentLength. Content smaller than one chunk yields a single range.
func ChunkOffsets(contentLength, chunkSize int64) []Chunk {
	n := contentLength / chunkSize
	if contentLength%chunkSize != 0 {
		n++
	}
	offsets := make([]Chunk, 0, n)
	for i := int64(0); i < n; i++ {
		end := (i+1)*chunkSize - 1
		if i == n-1 {
			end = contentLength
		}
		offsets = append(offsets, Chunk{Start: i * chunkSize, End: end})
	}
	if len(offsets) == 0 {
		offsets = append(offsets, Chunk{Start: 0, End: contentLength})
	}
	return offsets
}
