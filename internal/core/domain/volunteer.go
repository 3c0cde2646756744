package domain

import (
	"strings"
	"time"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
	StatusRequested RequestStatus = "requested"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusRequested:
		return true
	}
	return false
}

// ParseStatus accepts any casing; unknown values fail validation.
func ParseStatus(s string) (RequestStatus, error) {
	st := RequestStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", Invalid("unknown request status %q", s)
	}
	return st, nil
}

// VolunteerRequest snapshots the opportunity it was made for.
type VolunteerRequest struct {
	ID             string
	PostID         string
	PostTitle      string
	Thumbnail      string
	Category       string
	Location       string
	Deadline       time.Time
	OrganizerName  string
	OrganizerEmail string
	VolunteerName  string
	VolunteerEmail string
	Suggestion     string
	Status         RequestStatus
	CreatedAt      time.Time
}

// Cancellable reports whether the volunteer may still withdraw.
func (r *VolunteerRequest) Cancellable() bool {
	return r.Status == StatusPending
}

// NewVolunteerRequest builds the request a volunteer sends for an opportunity.
func NewVolunteerRequest(o *Opportunity, volunteer *Identity, suggestion string, now time.Time) (*VolunteerRequest, error) {
	if o == nil {
		return nil, ErrNotFound
	}
	if strings.EqualFold(o.OrganizerEmail, volunteer.Email) {
		return nil, Invalid("you cannot volunteer for your own post")
	}
	if o.VolunteersNeeded <= 0 {
		return nil, Invalid("no more volunteers are needed for %q", o.Title)
	}
	if !o.Deadline.IsZero() && !now.Before(o.Deadline) {
		return nil, Invalid("the deadline for %q has passed", o.Title)
	}
	return &VolunteerRequest{
		PostID:         o.ID,
		PostTitle:      o.Title,
		Thumbnail:      o.Thumbnail,
		Category:       o.Category,
		Location:       o.Location,
		Deadline:       o.Deadline,
		OrganizerName:  o.OrganizerName,
		OrganizerEmail: o.OrganizerEmail,
		VolunteerName:  volunteer.Name(),
		VolunteerEmail: volunteer.Email,
		Suggestion:     strings.TrimSpace(suggestion),
		Status:         StatusPending,
		CreatedAt:      now,
	}, nil
}

type VolunteerRequestFilter struct {
	VolunteerEmail string
	OrganizerEmail string
	PostID         string
	Status         RequestStatus
}
