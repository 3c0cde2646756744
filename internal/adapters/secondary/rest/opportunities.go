package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

type opportunityDTO struct {
	ident
	Thumbnail        string   `json:"thumbnail"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Location         string   `json:"location"`
	VolunteersNeeded int      `json:"volunteersNeeded"`
	Deadline         flexTime `json:"deadline"`
	OrganizerName    string   `json:"organizerName"`
	OrganizerEmail   string   `json:"organizerEmail"`
	CreatedAt        flexTime `json:"createdAt"`
}

func (d opportunityDTO) toDomain() domain.Opportunity {
	return domain.Opportunity{
		ID:               d.value(),
		Thumbnail:        d.Thumbnail,
		Title:            d.Title,
		Description:      d.Description,
		Category:         d.Category,
		Location:         d.Location,
		VolunteersNeeded: d.VolunteersNeeded,
		Deadline:         d.Deadline.Time,
		OrganizerName:    d.OrganizerName,
		OrganizerEmail:   d.OrganizerEmail,
		CreatedAt:        d.CreatedAt.Time,
	}
}

func newOpportunityDTO(o *domain.Opportunity) opportunityDTO {
	return opportunityDTO{
		Thumbnail:        o.Thumbnail,
		Title:            o.Title,
		Description:      o.Description,
		Category:         o.Category,
		Location:         o.Location,
		VolunteersNeeded: o.VolunteersNeeded,
		Deadline:         flexTime{o.Deadline},
		OrganizerName:    o.OrganizerName,
		OrganizerEmail:   o.OrganizerEmail,
		CreatedAt:        flexTime{o.CreatedAt},
	}
}

type opportunityDraftDTO struct {
	Thumbnail        string   `json:"thumbnail"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Location         string   `json:"location"`
	VolunteersNeeded int      `json:"volunteersNeeded"`
	Deadline         flexTime `json:"deadline"`
}

// OpportunityAPI is the /posts resource.
type OpportunityAPI struct {
	client *Client
}

func NewOpportunityAPI(client *Client) *OpportunityAPI {
	return &OpportunityAPI{client: client}
}

func postPath(id string) string {
	return "/posts/" + url.PathEscape(id)
}

func (a *OpportunityAPI) ListOpportunities(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error) {
	var dtos []opportunityDTO
	err := a.client.Do(ctx, http.MethodGet, "/posts", filter.Values(), nil, &dtos)
	if IsNotFound(err) {
		return []domain.Opportunity{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Opportunity, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (a *OpportunityAPI) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	var dto opportunityDTO
	if err := a.client.Do(ctx, http.MethodGet, postPath(id), nil, nil, &dto); err != nil {
		return nil, err
	}
	o := dto.toDomain()
	return &o, nil
}

// CreateOpportunity posts o. The backend may answer with the stored document
// or only with {insertedId}; both are handled.
func (a *OpportunityAPI) CreateOpportunity(ctx context.Context, o *domain.Opportunity) (*domain.Opportunity, error) {
	var resp struct {
		opportunityDTO
		InsertedID string `json:"insertedId"`
	}
	if err := a.client.Do(ctx, http.MethodPost, "/posts", nil, newOpportunityDTO(o), &resp); err != nil {
		return nil, err
	}
	created := *o
	if resp.Title != "" {
		created = resp.toDomain()
	}
	created.ID = resp.value()
	if resp.InsertedID != "" {
		created.ID = resp.InsertedID
	}
	return &created, nil
}

func (a *OpportunityAPI) UpdateOpportunity(ctx context.Context, id string, draft domain.OpportunityDraft) (*domain.Opportunity, error) {
	body := opportunityDraftDTO{
		Thumbnail:        draft.Thumbnail,
		Title:            draft.Title,
		Description:      draft.Description,
		Category:         draft.Category,
		Location:         draft.Location,
		VolunteersNeeded: draft.VolunteersNeeded,
		Deadline:         flexTime{draft.Deadline},
	}
	if err := a.client.Do(ctx, http.MethodPut, postPath(id), nil, body, nil); err != nil {
		return nil, err
	}
	return a.GetOpportunity(ctx, id)
}

func (a *OpportunityAPI) DeleteOpportunity(ctx context.Context, id string) error {
	return a.client.Do(ctx, http.MethodDelete, postPath(id), nil, nil, nil)
}

var _ ports.OpportunityBackend = (*OpportunityAPI)(nil)
