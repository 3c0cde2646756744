package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

// OpportunityService manages volunteer posts. Reads go straight to the backend.
type OpportunityService struct {
	backend ports.OpportunityBackend
	session ports.CurrentUser
	clock   util.Clock
}

func NewOpportunityService(backend ports.OpportunityBackend, session ports.CurrentUser, clock util.Clock) *OpportunityService {
	return &OpportunityService{backend: backend, session: session, clock: clock}
}

func (s *OpportunityService) List(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error) {
	return s.backend.ListOpportunities(ctx, filter)
}

func (s *OpportunityService) Get(ctx context.Context, id string) (*domain.Opportunity, error) {
	return s.backend.GetOpportunity(ctx, id)
}

// Mine lists the opportunities organized by the signed-in user.
func (s *OpportunityService) Mine(ctx context.Context) ([]domain.Opportunity, error) {
	user := s.session.CurrentUser()
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.backend.ListOpportunities(ctx, domain.OpportunityFilter{OrganizerEmail: user.Email})
}

func (s *OpportunityService) Create(ctx context.Context, draft domain.OpportunityDraft) (*domain.Opportunity, error) {
	user := s.session.CurrentUser()
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	now := s.clock.Now()
	if err := draft.Validate(now); err != nil {
		return nil, err
	}

	o := &domain.Opportunity{
		Thumbnail:        draft.Thumbnail,
		Title:            draft.Title,
		Description:      draft.Description,
		Category:         draft.Category,
		Location:         draft.Location,
		VolunteersNeeded: draft.VolunteersNeeded,
		Deadline:         draft.Deadline,
		OrganizerName:    user.Name(),
		OrganizerEmail:   user.Email,
		CreatedAt:        now,
	}
	created, err := s.backend.CreateOpportunity(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	slog.Info("📌 Opportunity published", "id", created.ID, "title", created.Title)
	return created, nil
}

func (s *OpportunityService) Update(ctx context.Context, id string, draft domain.OpportunityDraft) (*domain.Opportunity, error) {
	if s.session.CurrentUser() == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := draft.Validate(s.clock.Now()); err != nil {
		return nil, err
	}
	o, err := s.backend.UpdateOpportunity(ctx, id, draft)
	if err != nil {
		return nil, fmt.Errorf("update opportunity %s: %w", id, err)
	}
	return o, nil
}

func (s *OpportunityService) Delete(ctx context.Context, id string) error {
	if s.session.CurrentUser() == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.backend.DeleteOpportunity(ctx, id); err != nil {
		return fmt.Errorf("delete opportunity %s: %w", id, err)
	}
	return nil
}

var _ ports.OpportunityService = (*OpportunityService)(nil)
