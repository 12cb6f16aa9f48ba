package chunking

import "github.com/poiesic/docpipe/core"

// Stats summarizes a chunking run.
type Stats struct {
	TotalChunks     int     `json:"total_chunks"`
	AvgChunkSize    float64 `json:"avg_chunk_size"`
	MinChunkSize    int     `json:"min_chunk_size"`
	MaxChunkSize    int     `json:"max_chunk_size"`
	TotalTextLength int     `json:"total_text_length"`
}

// ComputeStats returns size statistics for a set of chunks.
// Sizes are rune counts.
func ComputeStats(chunks []core.Chunk) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}

	s := Stats{
		TotalChunks:  len(chunks),
		MinChunkSize: chunks[0].Len(),
	}
	for _, ch := range chunks {
		size := ch.Len()
		s.TotalTextLength += size
		if size < s.MinChunkSize {
			s.MinChunkSize = size
		}
		if size > s.MaxChunkSize {
			s.MaxChunkSize = size
		}
	}
	s.AvgChunkSize = float64(s.TotalTextLength) / float64(len(chunks))

	return s
}
