package ports

import (
	"context"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

// --- INPUTS ---

type RegisterCmd struct {
	Email    string
	Password string
	Name     string
	PhotoURL string
}

// --- DRIVING (what the runtime exposes to the front end) ---

// SessionService is the narrow auth handle injected wherever a user is needed.
type SessionService interface {
	CurrentUser() *domain.Identity
	Loading() bool
	Snapshot() domain.SessionSnapshot
	OnChange(fn func(domain.SessionSnapshot)) (unsubscribe func())

	Register(ctx context.Context, cmd RegisterCmd) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	GoogleLogin(ctx context.Context) (*domain.Identity, error)
	LogOut(ctx context.Context) error
}

// CurrentUser is the read side of SessionService, enough for services that only
// need to know who is signed in.
type CurrentUser interface {
	CurrentUser() *domain.Identity
}

type FeedService interface {
	ListPosts(ctx context.Context, filter domain.FeedFilter) (domain.FeedPage, error)
	GetPost(ctx context.Context, id string) (domain.FeedPost, error)
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)

	CreatePost(ctx context.Context, draft domain.FeedPostDraft) (*domain.FeedPost, error)
	UpdatePost(ctx context.Context, id string, draft domain.FeedPostDraft) (*domain.FeedPost, error)
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (*domain.LikeState, error)
	AddComment(ctx context.Context, postID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	SharePost(ctx context.Context, postID, platform string) (int, error)

	ApplyRemoteEvent(evt domain.FeedEvent)
}

type OpportunityService interface {
	List(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error)
	Get(ctx context.Context, id string) (*domain.Opportunity, error)
	Mine(ctx context.Context) ([]domain.Opportunity, error)
	Create(ctx context.Context, draft domain.OpportunityDraft) (*domain.Opportunity, error)
	Update(ctx context.Context, id string, draft domain.OpportunityDraft) (*domain.Opportunity, error)
	Delete(ctx context.Context, id string) error
}

type VolunteerService interface {
	Apply(ctx context.Context, opportunityID, suggestion string) (*domain.VolunteerRequest, error)
	Mine(ctx context.Context) ([]domain.VolunteerRequest, error)
	Incoming(ctx context.Context) ([]domain.VolunteerRequest, error)
	Cancel(ctx context.Context, requestID string) error
	SetStatus(ctx context.Context, requestID string, status domain.RequestStatus) (*domain.VolunteerRequest, error)
}

type RatingService interface {
	Rate(ctx context.Context, draft domain.RatingDraft) (*domain.Rating, error)
	ForPost(ctx context.Context, postID string) ([]domain.Rating, domain.RatingSummary, error)
	Mine(ctx context.Context) ([]domain.Rating, error)
	Update(ctx context.Context, id string, draft domain.RatingDraft) (*domain.Rating, error)
	Delete(ctx context.Context, id string) error
}

type MediaService interface {
	Upload(ctx context.Context, img domain.ImageFile) (string, error)
	UploadAll(ctx context.Context, pending *domain.PendingImages) ([]string, error)
}

type ChatService interface {
	Send(ctx context.Context, text string) (domain.ChatMessage, error)
	History() []domain.ChatMessage
	Reset()
}
