package core

import (
	"testing"
)

func TestHashContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same hash",
			content: "test content",
		},
		{
			name:    "empty content",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := HashContent([]byte(tt.content))
			h2 := HashContent([]byte(tt.content))

			if h1 != h2 {
				t.Errorf("HashContent() produced different hashes for same content: %s vs %s", h1, h2)
			}
			if len(h1) != 64 {
				t.Errorf("HashContent() length = %d, want 64 hex characters", len(h1))
			}
		})
	}
}

func TestHashContent_Different(t *testing.T) {
	h1 := HashContent([]byte("content1"))
	h2 := HashContent([]byte("content2"))

	if h1 == h2 {
		t.Errorf("HashContent() produced same hash for different content")
	}
}

func TestChunkConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ChunkConfig
		wantErr error
	}{
		{
			name:    "default config is valid",
			config:  DefaultChunkConfig(),
			wantErr: nil,
		},
		{
			name: "zero target size",
			config: ChunkConfig{
				TargetSize: 0,
				Overlap:    0,
				Strategy:   StrategyFixedSize,
			},
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name: "overlap equal to target size",
			config: ChunkConfig{
				TargetSize: 100,
				Overlap:    100,
				Strategy:   StrategyFixedSize,
			},
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name: "negative overlap",
			config: ChunkConfig{
				TargetSize: 100,
				Overlap:    -1,
				Strategy:   StrategyFixedSize,
			},
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name: "min size above target size",
			config: ChunkConfig{
				TargetSize: 100,
				Overlap:    10,
				MinSize:    200,
				Strategy:   StrategyFixedSize,
			},
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name: "unknown strategy",
			config: ChunkConfig{
				TargetSize: 100,
				Overlap:    10,
				Strategy:   Strategy("semantic"),
			},
			wantErr: ErrUnknownStrategy,
		},
		{
			name: "paragraph strategy",
			config: ChunkConfig{
				TargetSize: 500,
				Overlap:    50,
				MinSize:    50,
				Strategy:   StrategyByParagraph,
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunk_Len(t *testing.T) {
	c := Chunk{Text: "héllo"}
	if got := c.Len(); got != 5 {
		t.Errorf("Len() = %d, want rune count 5", got)
	}
}
