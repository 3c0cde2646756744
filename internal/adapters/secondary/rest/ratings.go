package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

type ratingDTO struct {
	ident
	PostID       string   `json:"postId"`
	ReviewerID   string   `json:"reviewerId"`
	ReviewerName string   `json:"reviewerName"`
	Rating       int      `json:"rating"`
	Review       string   `json:"review"`
	CreatedAt    flexTime `json:"createdAt"`
	UpdatedAt    flexTime `json:"updatedAt"`
}

func (d ratingDTO) toDomain() domain.Rating {
	return domain.Rating{
		ID:           d.value(),
		PostID:       d.PostID,
		ReviewerID:   d.ReviewerID,
		ReviewerName: d.ReviewerName,
		Rating:       d.Rating,
		Review:       d.Review,
		CreatedAt:    d.CreatedAt.Time,
		UpdatedAt:    d.UpdatedAt.Time,
	}
}

type ratingDraftDTO struct {
	PostID string `json:"postId"`
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// RatingAPI covers /ratings and /my-ratings.
type RatingAPI struct {
	client *Client
}

func NewRatingAPI(client *Client) *RatingAPI {
	return &RatingAPI{client: client}
}

func ratingPath(id string) string {
	return "/ratings/" + url.PathEscape(id)
}

func (a *RatingAPI) CreateRating(ctx context.Context, draft domain.RatingDraft) (*domain.Rating, error) {
	var dto ratingDTO
	body := ratingDraftDTO(draft)
	if err := a.client.Do(ctx, http.MethodPost, "/ratings", nil, body, &dto); err != nil {
		return nil, err
	}
	r := dto.toDomain()
	return &r, nil
}

func (a *RatingAPI) ListRatings(ctx context.Context, postID string) ([]domain.Rating, error) {
	return a.list(ctx, "/ratings", url.Values{"postId": {postID}})
}

func (a *RatingAPI) ListMyRatings(ctx context.Context) ([]domain.Rating, error) {
	return a.list(ctx, "/my-ratings", nil)
}

func (a *RatingAPI) list(ctx context.Context, path string, q url.Values) ([]domain.Rating, error) {
	var dtos []ratingDTO
	err := a.client.Do(ctx, http.MethodGet, path, q, nil, &dtos)
	if IsNotFound(err) {
		return []domain.Rating{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Rating, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (a *RatingAPI) UpdateRating(ctx context.Context, id string, draft domain.RatingDraft) (*domain.Rating, error) {
	var dto ratingDTO
	if err := a.client.Do(ctx, http.MethodPut, ratingPath(id), nil, ratingDraftDTO(draft), &dto); err != nil {
		return nil, err
	}
	r := dto.toDomain()
	if r.ID == "" {
		r.ID = id
	}
	return &r, nil
}

func (a *RatingAPI) DeleteRating(ctx context.Context, id string) error {
	return a.client.Do(ctx, http.MethodDelete, ratingPath(id), nil, nil, nil)
}

var _ ports.RatingBackend = (*RatingAPI)(nil)
