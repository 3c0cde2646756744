package ports

import (
	"context"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

// --- DRIVEN (what the client runtime needs) ---

// FeedBackend is the /impact-feed REST resource.
type FeedBackend interface {
	ListFeed(ctx context.Context, filter domain.FeedFilter) (*domain.FeedPage, error)
	GetFeedPost(ctx context.Context, id string) (*domain.FeedPost, error)
	CreateFeedPost(ctx context.Context, draft domain.FeedPostDraft) (*domain.FeedPost, error)
	UpdateFeedPost(ctx context.Context, id string, draft domain.FeedPostDraft) (*domain.FeedPost, error)
	DeleteFeedPost(ctx context.Context, id string) error

	ToggleLike(ctx context.Context, id string) (*domain.LikeState, error)
	SharePost(ctx context.Context, id, platform string) (shares int, err error)

	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	AddComment(ctx context.Context, postID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// OpportunityBackend is the /posts REST resource.
type OpportunityBackend interface {
	ListOpportunities(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error)
	CreateOpportunity(ctx context.Context, o *domain.Opportunity) (*domain.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id string, draft domain.OpportunityDraft) (*domain.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id string) error
}

// VolunteerBackend is the /volunteer-requests REST resource.
type VolunteerBackend interface {
	CreateRequest(ctx context.Context, r *domain.VolunteerRequest) (*domain.VolunteerRequest, error)
	GetRequest(ctx context.Context, id string) (*domain.VolunteerRequest, error)
	ListRequests(ctx context.Context, filter domain.VolunteerRequestFilter) ([]domain.VolunteerRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.VolunteerRequest, error)
	DeleteRequest(ctx context.Context, id string) error
}

// RatingBackend covers /ratings and /my-ratings.
type RatingBackend interface {
	CreateRating(ctx context.Context, draft domain.RatingDraft) (*domain.Rating, error)
	ListRatings(ctx context.Context, postID string) ([]domain.Rating, error)
	ListMyRatings(ctx context.Context) ([]domain.Rating, error)
	UpdateRating(ctx context.Context, id string, draft domain.RatingDraft) (*domain.Rating, error)
	DeleteRating(ctx context.Context, id string) error
}

// SessionExchanger mints a backend session token for a provider identity (/jwt).
type SessionExchanger interface {
	ExchangeToken(ctx context.Context, email string) (string, error)
}

// UserDirectory records profiles on the backend (/users).
type UserDirectory interface {
	SaveUser(ctx context.Context, p domain.Profile) error
}

// TokenStore is the durable home of the single bearer token.
type TokenStore interface {
	Token(ctx context.Context) (string, error) // "" when none
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// IdentityProvider abstracts the third-party sign-in service.
type IdentityProvider interface {
	Register(ctx context.Context, email, password string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignInWithGoogle(ctx context.Context) (*domain.Identity, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, displayName, photoURL string) error

	// OnIdentityChanged calls fn with the current identity (nil when signed out),
	// then again on every change, until the returned func is called.
	OnIdentityChanged(fn func(*domain.Identity)) (unsubscribe func())
}

// ImageHost stores one image per call and returns its public URL.
type ImageHost interface {
	UploadImage(ctx context.Context, img domain.ImageFile) (string, error)
}

// FeedEventPublisher tells other sessions what this one changed in the feed.
type FeedEventPublisher interface {
	PublishFeedEvent(ctx context.Context, evt domain.FeedEvent) error
}

// TextGenerator answers one prompt given the recent conversation.
type TextGenerator interface {
	Generate(ctx context.Context, instruction string, history []domain.ChatMessage, prompt string) (string, error)
}
