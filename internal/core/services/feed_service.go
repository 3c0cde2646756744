package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	qc "github.com/tazminur12/volunter-sub001/internal/core/querycache"
)

const feedRoot = "impact-feed"

// Cache keys of the impact feed.
var (
	FeedKey     = qc.NewKey(feedRoot)
	FeedListKey = qc.NewKey(feedRoot, "list")
)

func FeedPageKey(filter domain.FeedFilter) qc.Key {
	return FeedListKey.Append(filter.Normalize().Encode())
}

func FeedDetailKey(id string) qc.Key {
	return qc.NewKey(feedRoot, "detail", id)
}

func FeedCommentsKey(postID string) qc.Key {
	return qc.NewKey(feedRoot, "comments", postID)
}

// FeedService serves the impact feed through the query cache and keeps the
// cache coherent after every mutation.
type FeedService struct {
	backend ports.FeedBackend
	session ports.CurrentUser
	cache   *qc.Cache
	likes   *inflight
	tracer  trace.Tracer
	events  ports.FeedEventPublisher
}

func NewFeedService(backend ports.FeedBackend, session ports.CurrentUser, cache *qc.Cache) *FeedService {
	return &FeedService{
		backend: backend,
		session: session,
		cache:   cache,
		likes:   newInflight(),
		tracer:  otel.Tracer("feed-service"),
	}
}

// SetPublisher makes successful mutations announce themselves to other sessions.
func (s *FeedService) SetPublisher(p ports.FeedEventPublisher) {
	s.events = p
}

// --- QUERIES ---

func (s *FeedService) ListPosts(ctx context.Context, filter domain.FeedFilter) (domain.FeedPage, error) {
	filter = filter.Normalize()
	return qc.Fetch(ctx, s.cache, FeedPageKey(filter), func(ctx context.Context) (domain.FeedPage, error) {
		page, err := s.backend.ListFeed(ctx, filter)
		if err != nil {
			return domain.FeedPage{}, err
		}
		return *page, nil
	})
}

func (s *FeedService) GetPost(ctx context.Context, id string) (domain.FeedPost, error) {
	return qc.Fetch(ctx, s.cache, FeedDetailKey(id), func(ctx context.Context) (domain.FeedPost, error) {
		post, err := s.backend.GetFeedPost(ctx, id)
		if err != nil {
			return domain.FeedPost{}, err
		}
		return *post, nil
	})
}

func (s *FeedService) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	return qc.Fetch(ctx, s.cache, FeedCommentsKey(postID), func(ctx context.Context) ([]domain.Comment, error) {
		return s.backend.ListComments(ctx, postID)
	})
}

// --- MUTATIONS ---

func (s *FeedService) CreatePost(ctx context.Context, draft domain.FeedPostDraft) (*domain.FeedPost, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "feed.create_post")
	defer span.End()

	post, err := s.backend.CreateFeedPost(ctx, draft)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("create feed post: %w", err))
	}
	s.cache.Invalidate(FeedListKey)
	slog.Info("📝 Feed post created", "post_id", post.ID)
	s.announce(ctx, domain.EventPostCreated, post.ID, "")
	return post, nil
}

func (s *FeedService) UpdatePost(ctx context.Context, id string, draft domain.FeedPostDraft) (*domain.FeedPost, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "feed.update_post", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	post, err := s.backend.UpdateFeedPost(ctx, id, draft)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("update feed post %s: %w", id, err))
	}
	s.cache.Invalidate(FeedListKey)
	s.cache.Invalidate(FeedDetailKey(id))
	s.announce(ctx, domain.EventPostUpdated, id, "")
	return post, nil
}

func (s *FeedService) DeletePost(ctx context.Context, id string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "feed.delete_post", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	if err := s.backend.DeleteFeedPost(ctx, id); err != nil {
		return spanError(span, fmt.Errorf("delete feed post %s: %w", id, err))
	}
	s.cache.Remove(FeedDetailKey(id))
	s.cache.Remove(FeedCommentsKey(id))
	s.cache.Invalidate(FeedListKey)
	slog.Info("🗑️ Feed post deleted", "post_id", id)
	s.announce(ctx, domain.EventPostDeleted, id, "")
	return nil
}

// ToggleLike flips the viewer's like on a post. The cached detail and list
// pages show the new state before the backend answers and are rolled back if
// the request fails.
func (s *FeedService) ToggleLike(ctx context.Context, id string) (*domain.LikeState, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	release, ok := s.likes.acquire(id)
	if !ok {
		return nil, domain.ErrMutationInFlight
	}
	defer release()

	ctx, span := s.tracer.Start(ctx, "feed.toggle_like", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	detail := FeedDetailKey(id)

	// 1. Stop reads that could land over the optimistic state
	s.cache.Cancel(detail)
	s.cache.Cancel(FeedListKey)

	// 2. Snapshot for rollback
	detailSnap := s.cache.Snapshot(detail)
	listSnap := s.cache.Snapshot(FeedListKey)

	// 3. Optimistic write, each cached copy flipped on its own
	flipped := s.flipLike(id)
	span.SetAttributes(attribute.Int("like.optimistic_entries", flipped))

	// 4. Server round trip
	state, err := s.backend.ToggleLike(ctx, id)

	// 5. Rollback on failure, stale either way
	if err != nil {
		s.cache.Restore(detailSnap)
		s.cache.Restore(listSnap)
		slog.Warn("↩️ Like rolled back", "post_id", id, "error", err)
	}
	s.cache.Invalidate(detail)
	s.cache.Invalidate(FeedListKey)

	if err != nil {
		return nil, spanError(span, fmt.Errorf("toggle like %s: %w", id, err))
	}
	s.announce(ctx, domain.EventPostLiked, id, "")
	return state, nil
}

func (s *FeedService) AddComment(ctx context.Context, postID, content string) (*domain.Comment, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, domain.Invalid("comment cannot be empty")
	}
	ctx, span := s.tracer.Start(ctx, "feed.add_comment", trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	c, err := s.backend.AddComment(ctx, postID, content)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("add comment on %s: %w", postID, err))
	}
	s.invalidateConversation(postID)
	s.announce(ctx, domain.EventCommentCreated, postID, c.ID)
	return c, nil
}

func (s *FeedService) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "feed.delete_comment", trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	if err := s.backend.DeleteComment(ctx, postID, commentID); err != nil {
		return spanError(span, fmt.Errorf("delete comment %s: %w", commentID, err))
	}
	s.invalidateConversation(postID)
	s.announce(ctx, domain.EventCommentDeleted, postID, commentID)
	return nil
}

func (s *FeedService) SharePost(ctx context.Context, postID, platform string) (int, error) {
	if err := s.requireUser(); err != nil {
		return 0, err
	}
	ctx, span := s.tracer.Start(ctx, "feed.share_post", trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	shares, err := s.backend.SharePost(ctx, postID, platform)
	if err != nil {
		return 0, spanError(span, fmt.Errorf("share %s: %w", postID, err))
	}
	s.cache.Invalidate(FeedDetailKey(postID))
	s.cache.Invalidate(FeedListKey)
	s.announce(ctx, domain.EventPostShared, postID, "")
	return shares, nil
}

// ApplyRemoteEvent marks stale what another session changed.
func (s *FeedService) ApplyRemoteEvent(evt domain.FeedEvent) {
	switch evt.Type {
	case domain.EventPostCreated:
		s.cache.Invalidate(FeedListKey)
	case domain.EventPostUpdated, domain.EventPostLiked, domain.EventPostShared:
		s.cache.Invalidate(FeedDetailKey(evt.PostID))
		s.cache.Invalidate(FeedListKey)
	case domain.EventPostDeleted:
		s.cache.Remove(FeedDetailKey(evt.PostID))
		s.cache.Remove(FeedCommentsKey(evt.PostID))
		s.cache.Invalidate(FeedListKey)
	case domain.EventCommentCreated, domain.EventCommentDeleted:
		s.invalidateConversation(evt.PostID)
	default:
		slog.Debug("ignoring feed event", "type", evt.Type)
	}
}

// announce is best effort: the local cache is already coherent.
func (s *FeedService) announce(ctx context.Context, typ domain.FeedEventType, postID, commentID string) {
	if s.events == nil {
		return
	}
	evt := domain.FeedEvent{Type: typ, PostID: postID, CommentID: commentID}
	if err := s.events.PublishFeedEvent(ctx, evt); err != nil {
		slog.Warn("⚠️ Publishing feed event failed", "type", typ, "post_id", postID, "error", err)
	}
}

func (s *FeedService) requireUser() error {
	if s.session.CurrentUser() == nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

// flipLike toggles the like in the detail entry and in every cached list page
// holding the post, and reports how many entries changed.
func (s *FeedService) flipLike(id string) int {
	n := 0
	if qc.Update(s.cache, FeedDetailKey(id), func(p domain.FeedPost) (domain.FeedPost, bool) {
		return p.WithLike(!p.IsLiked), true
	}) {
		n++
	}
	return n + qc.UpdatePrefix(s.cache, FeedListKey, func(pg domain.FeedPage) (domain.FeedPage, bool) {
		return pg.ToggleLike(id)
	})
}

func (s *FeedService) invalidateConversation(postID string) {
	s.cache.Invalidate(FeedCommentsKey(postID))
	s.cache.Invalidate(FeedDetailKey(postID))
	s.cache.Invalidate(FeedListKey)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

var _ ports.FeedService = (*FeedService)(nil)
