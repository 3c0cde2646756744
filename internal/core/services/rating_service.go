package services

import (
	"context"
	"fmt"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

type RatingService struct {
	backend ports.RatingBackend
	session ports.CurrentUser
}

func NewRatingService(backend ports.RatingBackend, session ports.CurrentUser) *RatingService {
	return &RatingService{backend: backend, session: session}
}

// Rate reviews a post. The backend rejects a second rating by the same user.
func (s *RatingService) Rate(ctx context.Context, draft domain.RatingDraft) (*domain.Rating, error) {
	if s.session.CurrentUser() == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	r, err := s.backend.CreateRating(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("rate %s: %w", draft.PostID, err)
	}
	return r, nil
}

func (s *RatingService) ForPost(ctx context.Context, postID string) ([]domain.Rating, domain.RatingSummary, error) {
	ratings, err := s.backend.ListRatings(ctx, postID)
	if err != nil {
		return nil, domain.RatingSummary{}, err
	}
	return ratings, domain.Summarize(ratings), nil
}

func (s *RatingService) Mine(ctx context.Context) ([]domain.Rating, error) {
	if s.session.CurrentUser() == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.backend.ListMyRatings(ctx)
}

func (s *RatingService) Update(ctx context.Context, id string, draft domain.RatingDraft) (*domain.Rating, error) {
	if s.session.CurrentUser() == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	r, err := s.backend.UpdateRating(ctx, id, draft)
	if err != nil {
		return nil, fmt.Errorf("update rating %s: %w", id, err)
	}
	return r, nil
}

func (s *RatingService) Delete(ctx context.Context, id string) error {
	if s.session.CurrentUser() == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.backend.DeleteRating(ctx, id); err != nil {
		return fmt.Errorf("delete rating %s: %w", id, err)
	}
	return nil
}

var _ ports.RatingService = (*RatingService)(nil)
