package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

type VolunteerService struct {
	requests      ports.VolunteerBackend
	opportunities ports.OpportunityBackend
	session       ports.CurrentUser
	clock         util.Clock
}

func NewVolunteerService(requests ports.VolunteerBackend, opportunities ports.OpportunityBackend, session ports.CurrentUser, clock util.Clock) *VolunteerService {
	return &VolunteerService{
		requests:      requests,
		opportunities: opportunities,
		session:       session,
		clock:         clock,
	}
}

// Apply sends a volunteer request for an opportunity on behalf of the signed-in user.
func (s *VolunteerService) Apply(ctx context.Context, opportunityID, suggestion string) (*domain.VolunteerRequest, error) {
	user := s.session.CurrentUser()
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	// 1. Fresh copy of the opportunity (slots and deadline may have moved)
	o, err := s.opportunities.GetOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("load opportunity %s: %w", opportunityID, err)
	}

	// 2. Eligibility + snapshot
	req, err := domain.NewVolunteerRequest(o, user, suggestion, s.clock.Now())
	if err != nil {
		return nil, err
	}

	// 3. Submit
	created, err := s.requests.CreateRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("apply to %s: %w", opportunityID, err)
	}
	slog.Info("🙋 Volunteer request sent", "post_id", opportunityID, "request_id", created.ID)
	return created, nil
}

func (s *VolunteerService) Mine(ctx context.Context) ([]domain.VolunteerRequest, error) {
	user := s.session.CurrentUser()
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.requests.ListRequests(ctx, domain.VolunteerRequestFilter{VolunteerEmail: user.Email})
}

// Incoming lists the requests received on the signed-in organizer's posts.
func (s *VolunteerService) Incoming(ctx context.Context) ([]domain.VolunteerRequest, error) {
	user := s.session.CurrentUser()
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.requests.ListRequests(ctx, domain.VolunteerRequestFilter{OrganizerEmail: user.Email})
}

// Cancel withdraws one of the user's own pending requests.
func (s *VolunteerService) Cancel(ctx context.Context, requestID string) error {
	user := s.session.CurrentUser()
	if user == nil {
		return domain.ErrUnauthenticated
	}
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request %s: %w", requestID, err)
	}
	if !strings.EqualFold(req.VolunteerEmail, user.Email) {
		return domain.ErrForbidden
	}
	if !req.Cancellable() {
		return domain.Invalid("only pending requests can be cancelled (request is %s)", req.Status)
	}
	if err := s.requests.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("cancel request %s: %w", requestID, err)
	}
	return nil
}

// SetStatus lets the organizer approve, reject or complete a request.
func (s *VolunteerService) SetStatus(ctx context.Context, requestID string, status domain.RequestStatus) (*domain.VolunteerRequest, error) {
	user := s.session.CurrentUser()
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !status.Valid() {
		return nil, domain.Invalid("unknown request status %q", status)
	}
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, err)
	}
	if !strings.EqualFold(req.OrganizerEmail, user.Email) {
		return nil, domain.ErrForbidden
	}
	updated, err := s.requests.UpdateRequestStatus(ctx, requestID, status)
	if err != nil {
		return nil, fmt.Errorf("update request %s: %w", requestID, err)
	}
	return updated, nil
}

var _ ports.VolunteerService = (*VolunteerService)(nil)
