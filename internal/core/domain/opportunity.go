package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Opportunity is a volunteer post published by an organizer.
type Opportunity struct {
	ID               string
	Thumbnail        string
	Title            string
	Description      string
	Category         string
	Location         string
	VolunteersNeeded int
	Deadline         time.Time
	OrganizerName    string
	OrganizerEmail   string
	CreatedAt        time.Time
}

// Open reports whether the opportunity still accepts volunteers at now.
func (o *Opportunity) Open(now time.Time) bool {
	if o.VolunteersNeeded <= 0 {
		return false
	}
	return o.Deadline.IsZero() || now.Before(o.Deadline)
}

type OpportunityFilter struct {
	Search         string
	Category       string
	OrganizerEmail string
	Sort           string // "deadline", "newest"
	Page           int
	Limit          int
}

func (f OpportunityFilter) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(c, "all") {
		v.Set("category", c)
	}
	if f.OrganizerEmail != "" {
		v.Set("email", f.OrganizerEmail)
	}
	if f.Sort != "" {
		v.Set("sort", f.Sort)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// OpportunityDraft carries the organizer-editable fields.
type OpportunityDraft struct {
	Thumbnail        string
	Title            string
	Description      string
	Category         string
	Location         string
	VolunteersNeeded int
	Deadline         time.Time
}

func (d OpportunityDraft) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return Invalid("title is required")
	case strings.TrimSpace(d.Description) == "":
		return Invalid("description is required")
	case strings.TrimSpace(d.Category) == "":
		return Invalid("category is required")
	case strings.TrimSpace(d.Location) == "":
		return Invalid("location is required")
	case d.VolunteersNeeded <= 0:
		return Invalid("volunteers needed must be a positive number")
	case d.Deadline.IsZero():
		return Invalid("deadline is required")
	case !d.Deadline.After(now):
		return Invalid("deadline must be in the future")
	}
	if d.Thumbnail != "" {
		u, err := url.Parse(d.Thumbnail)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Invalid("thumbnail must be an absolute URL")
		}
	}
	return nil
}
