package imagestore

import (
	"context"

	"github.com/rs/zerolog"
)

// FallbackStore writes to the primary store and falls back to the secondary
// when the primary fails. Deletes go to whichever store owns the reference.
type FallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries primary first. A nil primary
// means only secondary is used.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-image-store").Logger(),
	}
}

// Save stores the upload in the primary store, or the secondary on failure.
func (s *FallbackStore) Save(ctx context.Context, upload *Upload) (string, error) {
	if s.primary != nil {
		ref, err := s.primary.Save(ctx, upload)
		if err == nil {
			return ref, nil
		}

		s.logger.Warn().
			Err(err).
			Str("name", upload.Name).
			Msg("primary image store failed, falling back")
	}

	return s.secondary.Save(ctx, upload)
}

// Delete removes ref from the store that produced it.
func (s *FallbackStore) Delete(ctx context.Context, ref string) error {
	if s.primary != nil && s.primary.Owns(ref) {
		return s.primary.Delete(ctx, ref)
	}
	return s.secondary.Delete(ctx, ref)
}

// Owns reports whether either store produced ref.
func (s *FallbackStore) Owns(ref string) bool {
	return (s.primary != nil && s.primary.Owns(ref)) || s.secondary.Owns(ref)
}
