package numgen

// Validate checks the structural invariants of a request. Engine, format and
// bounds compatibility are checked by the backend factory.
func (r GenerationRequest) Validate() error {
	switch {
	case r.Amount < 1 || r.Amount > MaxSafeInteger:
		return ConfigError(ErrInvalidRequest, "amount must be between 1 and %d, got %d", MaxSafeInteger, r.Amount)
	case r.ChunkSize < 1 || r.ChunkSize > MaxSafeInteger:
		return ConfigError(ErrInvalidRequest, "chunk size must be between 1 and %d, got %d", MaxSafeInteger, r.ChunkSize)
	case r.ThreadCount < 1:
		return ConfigError(ErrInvalidRequest, "thread count must be positive, got %d", r.ThreadCount)
	case r.MaxNumber < r.MinNumber:
		return ConfigError(ErrInvalidRequest, "max number %d is lower than min number %d", r.MaxNumber, r.MinNumber)
	}
	return nil
}
