package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkOffsets(t *testing.T) {
	assert.Equal(t, []Chunk{
		{Start: 0, End: 999},
		{Start: 1000, End: 1999},
		{Start: 2000, End: 2500},
	}, ChunkOffsets(2500, 1000))

	assert.Equal(t, []Chunk{{Start: 0, End: 500}}, ChunkOffsets(500, 1000))
}

func TestChunkOffsetsDivisible(t *testing.T) {
	assert.Equal(t, []Chunk{
		{Start: 0, End: 999},
		{Start: 1000, End: 2000},
	}, ChunkOffsets(2000, 1000))
}

func TestChunkOffsetsCoverage(t *testing.T) {
	cases := []struct{ contentLength, chunkSize int64 }{
		{1, 1},
		{1, 1024},
		{1023, 1024},
		{1024, 1024},
		{1025, 1024},
		{10_000_000, 65536},
		{2500, 1000},
		{999_999, 12345},
	}
	for _, tc := range cases {
		offsets := ChunkOffsets(tc.contentLength, tc.chunkSize)
		require.NotEmpty(t, offsets)
		assert.Equal(t, int64(0), offsets[0].Start)
		assert.Equal(t, tc.contentLength, offsets[len(offsets)-1].End)
		for i := 1; i < len(offsets); i++ {
			assert.Equal(t, offsets[i-1].End+1, offsets[i].Start,
				"ranges must be contiguous for length=%d size=%d", tc.contentLength, tc.chunkSize)
		}
	}
}
