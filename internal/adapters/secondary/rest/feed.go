package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

// --- WIRE ---

type authorDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}

type feedPostDTO struct {
	ident
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	Images        []string  `json:"images"`
	CreatedBy     authorDTO `json:"createdBy"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	SharesCount   int       `json:"sharesCount"`
	IsLiked       bool      `json:"isLiked"`
	CreatedAt     flexTime  `json:"createdAt"`
	UpdatedAt     flexTime  `json:"updatedAt"`
}

func (d feedPostDTO) toDomain() domain.FeedPost {
	return domain.FeedPost{
		ID:        d.value(),
		Title:     d.Title,
		Content:   d.Content,
		Category:  d.Category,
		Images:    d.Images,
		CreatedBy: domain.Author(d.CreatedBy),
		Counts: domain.Counts{
			Likes:    d.LikesCount,
			Comments: d.CommentsCount,
			Shares:   d.SharesCount,
		},
		IsLiked:   d.IsLiked,
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.UpdatedAt.Time,
	}
}

type paginationDTO struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

type feedListDTO struct {
	Posts []feedPostDTO `json:"posts"`
	paginationDTO
	Pagination *paginationDTO `json:"pagination"`
}

type feedDraftDTO struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Images   []string `json:"images"`
}

func newFeedDraftDTO(d domain.FeedPostDraft) feedDraftDTO {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return feedDraftDTO{Title: d.Title, Content: d.Content, Category: d.Category, Images: images}
}

type likeDTO struct {
	IsLiked    bool `json:"isLiked"`
	LikesCount int  `json:"likesCount"`
}

type commentDTO struct {
	ident
	PostID    string    `json:"postId"`
	Author    authorDTO `json:"author"`
	Content   string    `json:"content"`
	CreatedAt flexTime  `json:"createdAt"`
}

func (d commentDTO) toDomain(postID string) domain.Comment {
	c := domain.Comment{
		ID:        d.value(),
		PostID:    d.PostID,
		Author:    domain.Author(d.Author),
		Content:   d.Content,
		CreatedAt: d.CreatedAt.Time,
	}
	if c.PostID == "" {
		c.PostID = postID
	}
	return c
}

// --- RESOURCE ---

// FeedAPI is the /impact-feed resource.
type FeedAPI struct {
	client *Client
}

func NewFeedAPI(client *Client) *FeedAPI {
	return &FeedAPI{client: client}
}

func feedPath(parts ...string) string {
	p := "/impact-feed"
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (a *FeedAPI) ListFeed(ctx context.Context, filter domain.FeedFilter) (*domain.FeedPage, error) {
	filter = filter.Normalize()
	var raw json.RawMessage
	err := a.client.Do(ctx, http.MethodGet, feedPath(), filter.Values(), nil, &raw)
	if IsNotFound(err) {
		return &domain.FeedPage{Page: filter.Page, Posts: []domain.FeedPost{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var dto feedListDTO
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &dto.Posts)
	} else if len(trimmed) > 0 {
		err = json.Unmarshal(trimmed, &dto)
	}
	if err != nil {
		return nil, fmt.Errorf("decode feed page: %w", err)
	}

	pg := dto.paginationDTO
	if dto.Pagination != nil {
		pg = *dto.Pagination
	}
	page := &domain.FeedPage{
		Posts:      make([]domain.FeedPost, 0, len(dto.Posts)),
		Page:       pg.Page,
		TotalPages: pg.TotalPages,
		Total:      pg.Total,
	}
	if page.Page == 0 {
		page.Page = filter.Page
	}
	for _, p := range dto.Posts {
		page.Posts = append(page.Posts, p.toDomain())
	}
	return page, nil
}

func (a *FeedAPI) GetFeedPost(ctx context.Context, id string) (*domain.FeedPost, error) {
	var dto feedPostDTO
	if err := a.client.Do(ctx, http.MethodGet, feedPath(id), nil, nil, &dto); err != nil {
		return nil, err
	}
	p := dto.toDomain()
	return &p, nil
}

func (a *FeedAPI) CreateFeedPost(ctx context.Context, draft domain.FeedPostDraft) (*domain.FeedPost, error) {
	var dto feedPostDTO
	if err := a.client.Do(ctx, http.MethodPost, feedPath(), nil, newFeedDraftDTO(draft), &dto); err != nil {
		return nil, err
	}
	p := dto.toDomain()
	return &p, nil
}

func (a *FeedAPI) UpdateFeedPost(ctx context.Context, id string, draft domain.FeedPostDraft) (*domain.FeedPost, error) {
	var dto feedPostDTO
	if err := a.client.Do(ctx, http.MethodPut, feedPath(id), nil, newFeedDraftDTO(draft), &dto); err != nil {
		return nil, err
	}
	p := dto.toDomain()
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

func (a *FeedAPI) DeleteFeedPost(ctx context.Context, id string) error {
	return a.client.Do(ctx, http.MethodDelete, feedPath(id), nil, nil, nil)
}

func (a *FeedAPI) ToggleLike(ctx context.Context, id string) (*domain.LikeState, error) {
	var dto likeDTO
	if err := a.client.Do(ctx, http.MethodPost, feedPath(id, "like"), nil, nil, &dto); err != nil {
		return nil, err
	}
	return &domain.LikeState{IsLiked: dto.IsLiked, Likes: dto.LikesCount}, nil
}

func (a *FeedAPI) SharePost(ctx context.Context, id, platform string) (int, error) {
	var dto struct {
		SharesCount int `json:"sharesCount"`
	}
	body := map[string]string{"platform": platform}
	if err := a.client.Do(ctx, http.MethodPost, feedPath(id, "share"), nil, body, &dto); err != nil {
		return 0, err
	}
	return dto.SharesCount, nil
}

func (a *FeedAPI) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	var dtos []commentDTO
	err := a.client.Do(ctx, http.MethodGet, feedPath(postID, "comments"), nil, nil, &dtos)
	if IsNotFound(err) {
		return []domain.Comment{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain(postID))
	}
	return out, nil
}

func (a *FeedAPI) AddComment(ctx context.Context, postID, content string) (*domain.Comment, error) {
	var dto commentDTO
	body := map[string]string{"content": content}
	if err := a.client.Do(ctx, http.MethodPost, feedPath(postID, "comments"), nil, body, &dto); err != nil {
		return nil, err
	}
	c := dto.toDomain(postID)
	return &c, nil
}

func (a *FeedAPI) DeleteComment(ctx context.Context, postID, commentID string) error {
	return a.client.Do(ctx, http.MethodDelete, feedPath(postID, "comments", commentID), nil, nil, nil)
}

var _ ports.FeedBackend = (*FeedAPI)(nil)
