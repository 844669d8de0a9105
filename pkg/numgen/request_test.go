package numgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationRequestValidate(t *testing.T) {
	t.Parallel()

	valid := GenerationRequest{
		Amount:      100,
		MinNumber:   0,
		MaxNumber:   255,
		ChunkSize:   10,
		ThreadCount: 2,
		Engine:      EngineMathRandom,
		Format:      FormatU8,
	}

	tests := []struct {
		name    string
		mutate  func(*GenerationRequest)
		wantErr bool
	}{
		{"valid", func(*GenerationRequest) {}, false},
		{"largest amount", func(r *GenerationRequest) { r.Amount = MaxSafeInteger }, false},
		{"zero amount", func(r *GenerationRequest) { r.Amount = 0 }, true},
		{"amount beyond safe integer", func(r *GenerationRequest) { r.Amount = MaxSafeInteger + 1 }, true},
		{"zero chunk size", func(r *GenerationRequest) { r.ChunkSize = 0 }, true},
		{"chunk size beyond safe integer", func(r *GenerationRequest) { r.ChunkSize = 1 << 62 }, true},
		{"zero threads", func(r *GenerationRequest) { r.ThreadCount = 0 }, true},
		{"max below min", func(r *GenerationRequest) { r.MinNumber = 10; r.MaxNumber = 9 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}
