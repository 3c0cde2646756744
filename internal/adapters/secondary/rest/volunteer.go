package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

type volunteerRequestDTO struct {
	ident
	PostID         string   `json:"postId"`
	PostTitle      string   `json:"postTitle"`
	Thumbnail      string   `json:"thumbnail"`
	Category       string   `json:"category"`
	Location       string   `json:"location"`
	Deadline       flexTime `json:"deadline"`
	OrganizerName  string   `json:"organizerName"`
	OrganizerEmail string   `json:"organizerEmail"`
	VolunteerName  string   `json:"volunteerName"`
	VolunteerEmail string   `json:"volunteerEmail"`
	Suggestion     string   `json:"suggestion"`
	Status         string   `json:"status"`
	CreatedAt      flexTime `json:"createdAt"`
}

func (d volunteerRequestDTO) toDomain() domain.VolunteerRequest {
	return domain.VolunteerRequest{
		ID:             d.value(),
		PostID:         d.PostID,
		PostTitle:      d.PostTitle,
		Thumbnail:      d.Thumbnail,
		Category:       d.Category,
		Location:       d.Location,
		Deadline:       d.Deadline.Time,
		OrganizerName:  d.OrganizerName,
		OrganizerEmail: d.OrganizerEmail,
		VolunteerName:  d.VolunteerName,
		VolunteerEmail: d.VolunteerEmail,
		Suggestion:     d.Suggestion,
		Status:         domain.RequestStatus(d.Status),
		CreatedAt:      d.CreatedAt.Time,
	}
}

func newVolunteerRequestDTO(r *domain.VolunteerRequest) volunteerRequestDTO {
	return volunteerRequestDTO{
		PostID:         r.PostID,
		PostTitle:      r.PostTitle,
		Thumbnail:      r.Thumbnail,
		Category:       r.Category,
		Location:       r.Location,
		Deadline:       flexTime{r.Deadline},
		OrganizerName:  r.OrganizerName,
		OrganizerEmail: r.OrganizerEmail,
		VolunteerName:  r.VolunteerName,
		VolunteerEmail: r.VolunteerEmail,
		Suggestion:     r.Suggestion,
		Status:         string(r.Status),
		CreatedAt:      flexTime{r.CreatedAt},
	}
}

// VolunteerAPI is the /volunteer-requests resource.
type VolunteerAPI struct {
	client *Client
}

func NewVolunteerAPI(client *Client) *VolunteerAPI {
	return &VolunteerAPI{client: client}
}

func requestPath(id string) string {
	return "/volunteer-requests/" + url.PathEscape(id)
}

func (a *VolunteerAPI) CreateRequest(ctx context.Context, r *domain.VolunteerRequest) (*domain.VolunteerRequest, error) {
	var resp struct {
		volunteerRequestDTO
		InsertedID string `json:"insertedId"`
	}
	if err := a.client.Do(ctx, http.MethodPost, "/volunteer-requests", nil, newVolunteerRequestDTO(r), &resp); err != nil {
		return nil, err
	}
	created := *r
	if resp.PostID != "" {
		created = resp.toDomain()
	}
	created.ID = resp.value()
	if resp.InsertedID != "" {
		created.ID = resp.InsertedID
	}
	return &created, nil
}

func (a *VolunteerAPI) GetRequest(ctx context.Context, id string) (*domain.VolunteerRequest, error) {
	var dto volunteerRequestDTO
	if err := a.client.Do(ctx, http.MethodGet, requestPath(id), nil, nil, &dto); err != nil {
		return nil, err
	}
	r := dto.toDomain()
	return &r, nil
}

func (a *VolunteerAPI) ListRequests(ctx context.Context, filter domain.VolunteerRequestFilter) ([]domain.VolunteerRequest, error) {
	q := url.Values{}
	if filter.VolunteerEmail != "" {
		q.Set("volunteerEmail", filter.VolunteerEmail)
	}
	if filter.OrganizerEmail != "" {
		q.Set("organizerEmail", filter.OrganizerEmail)
	}
	if filter.PostID != "" {
		q.Set("postId", filter.PostID)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	var dtos []volunteerRequestDTO
	err := a.client.Do(ctx, http.MethodGet, "/volunteer-requests", q, nil, &dtos)
	if IsNotFound(err) {
		return []domain.VolunteerRequest{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.VolunteerRequest, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (a *VolunteerAPI) UpdateRequestStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.VolunteerRequest, error) {
	body := map[string]string{"status": string(status)}
	if err := a.client.Do(ctx, http.MethodPatch, requestPath(id), nil, body, nil); err != nil {
		return nil, err
	}
	return a.GetRequest(ctx, id)
}

func (a *VolunteerAPI) DeleteRequest(ctx context.Context, id string) error {
	return a.client.Do(ctx, http.MethodDelete, requestPath(id), nil, nil, nil)
}

var _ ports.VolunteerBackend = (*VolunteerAPI)(nil)
