package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	qc "github.com/tazminur12/volunter-sub001/internal/core/querycache"
	"github.com/tazminur12/volunter-sub001/internal/core/services"
)

func newFeedEnv(t *testing.T, posts ...domain.FeedPost) (*services.FeedService, *fakeFeed, *qc.Cache) {
	t.Helper()
	feed := newFakeFeed(posts...)
	cache := qc.New()
	return services.NewFeedService(feed, signedIn(), cache), feed, cache
}

func cachedPage(t *testing.T, cache *qc.Cache) domain.FeedPage {
	t.Helper()
	page, ok := qc.Get[domain.FeedPage](cache, services.FeedPageKey(domain.FeedFilter{}))
	require.True(t, ok)
	return page
}

func cachedPost(t *testing.T, cache *qc.Cache, id string) domain.FeedPost {
	t.Helper()
	post, ok := qc.Get[domain.FeedPost](cache, services.FeedDetailKey(id))
	require.True(t, ok)
	return post
}

func TestListPostsIsCached(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, _ := newFeedEnv(t, fakePost("p1", 0, false))

	_, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	page, err := svc.ListPosts(ctx, domain.FeedFilter{Category: "all", Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, 1, feed.count("list"), "equal filters share one cache entry")
}

func TestToggleLikeRollbackRestoresCache(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, cache := newFeedEnv(t, fakePost("p1", 4, false), fakePost("p2", 1, true))

	page, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	post, err := svc.GetPost(ctx, "p1")
	require.NoError(t, err)

	feed.likeErr = errors.New("backend down")
	_, err = svc.ToggleLike(ctx, "p1")
	require.Error(t, err)

	require.Equal(t, page, cachedPage(t, cache))
	require.Equal(t, post, cachedPost(t, cache, "p1"))
	require.True(t, cache.IsStale(services.FeedDetailKey("p1")))
	require.True(t, cache.IsStale(services.FeedPageKey(domain.FeedFilter{})))
}

func TestToggleLikeIsOptimistic(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, cache := newFeedEnv(t, fakePost("p1", 4, false))

	_, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, "p1")
	require.NoError(t, err)

	feed.likeGate = make(chan struct{})
	feed.likeStarted = make(chan struct{})
	type result struct {
		state *domain.LikeState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := svc.ToggleLike(ctx, "p1")
		done <- result{st, err}
	}()
	<-feed.likeStarted

	// request still pending
	post := cachedPost(t, cache, "p1")
	require.True(t, post.IsLiked)
	require.Equal(t, 5, post.Counts.Likes)
	inList, ok := cachedPage(t, cache).Find("p1")
	require.True(t, ok)
	require.True(t, inList.IsLiked)
	require.Equal(t, 5, inList.Counts.Likes)

	close(feed.likeGate)
	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, &domain.LikeState{IsLiked: true, Likes: 5}, res.state)
	require.True(t, cache.IsStale(services.FeedDetailKey("p1")))
	require.True(t, cache.IsStale(services.FeedPageKey(domain.FeedFilter{})))
}

func TestToggleUnlikeDecrements(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, cache := newFeedEnv(t, fakePost("p1", 3, true))

	_, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)

	feed.likeGate = make(chan struct{})
	feed.likeStarted = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.ToggleLike(ctx, "p1")
		done <- err
	}()
	<-feed.likeStarted

	inList, ok := cachedPage(t, cache).Find("p1")
	require.True(t, ok)
	require.False(t, inList.IsLiked)
	require.Equal(t, 2, inList.Counts.Likes)

	close(feed.likeGate)
	require.NoError(t, <-done)
}

func TestToggleLikeFlipsEachEntryOnItsOwn(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, cache := newFeedEnv(t, fakePost("p1", 5, true))

	// detail and list were fetched at different times and disagree
	cache.Set(services.FeedDetailKey("p1"), fakePost("p1", 5, true))
	cache.Set(services.FeedPageKey(domain.FeedFilter{}), domain.FeedPage{Posts: []domain.FeedPost{fakePost("p1", 7, false)}, Page: 1, TotalPages: 1, Total: 1})
	other := domain.FeedPage{Posts: []domain.FeedPost{fakePost("p2", 2, false)}, Page: 2, TotalPages: 2, Total: 2}
	cache.Set(services.FeedPageKey(domain.FeedFilter{Page: 2}), other)

	feed.likeGate = make(chan struct{})
	feed.likeStarted = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.ToggleLike(ctx, "p1")
		done <- err
	}()
	<-feed.likeStarted

	post := cachedPost(t, cache, "p1")
	require.False(t, post.IsLiked)
	require.Equal(t, 4, post.Counts.Likes)
	inList, ok := cachedPage(t, cache).Find("p1")
	require.True(t, ok)
	require.True(t, inList.IsLiked)
	require.Equal(t, 8, inList.Counts.Likes)
	untouched, ok := qc.Get[domain.FeedPage](cache, services.FeedPageKey(domain.FeedFilter{Page: 2}))
	require.True(t, ok)
	require.Equal(t, other, untouched)
	require.False(t, cache.IsStale(services.FeedPageKey(domain.FeedFilter{Page: 2})))

	close(feed.likeGate)
	require.NoError(t, <-done)
}

func TestToggleLikeRejectsConcurrentToggle(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, _ := newFeedEnv(t, fakePost("p1", 0, false))

	feed.likeGate = make(chan struct{})
	feed.likeStarted = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.ToggleLike(ctx, "p1")
		done <- err
	}()
	<-feed.likeStarted

	_, err := svc.ToggleLike(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrMutationInFlight)

	close(feed.likeGate)
	require.NoError(t, <-done)
	require.Equal(t, 1, feed.count("like"))
}

func TestMutationsRequireUser(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	feed := newFakeFeed(fakePost("p1", 2, false))
	svc := services.NewFeedService(feed, &fakeUser{}, qc.New())
	draft := domain.FeedPostDraft{Title: "t", Content: "c", Category: "environment"}

	_, err := svc.ToggleLike(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.CreatePost(ctx, draft)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.UpdatePost(ctx, "p1", draft)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.ErrorIs(t, svc.DeletePost(ctx, "p1"), domain.ErrUnauthenticated)
	_, err = svc.AddComment(ctx, "p1", "hi")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.ErrorIs(t, svc.DeleteComment(ctx, "p1", "c1"), domain.ErrUnauthenticated)
	_, err = svc.SharePost(ctx, "p1", "facebook")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.Zero(t, feed.total())
}

func TestDeletePostRemovesDetail(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, _, cache := newFeedEnv(t, fakePost("p1", 0, false), fakePost("p2", 0, false))

	_, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.ListComments(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx, "p1"))

	_, ok := cache.Peek(services.FeedDetailKey("p1"))
	require.False(t, ok)
	_, ok = cache.Peek(services.FeedCommentsKey("p1"))
	require.False(t, ok)
	require.True(t, cache.IsStale(services.FeedPageKey(domain.FeedFilter{})))

	_, err = svc.GetPost(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePostInvalidatesLists(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, cache := newFeedEnv(t)

	_, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)

	draft := domain.FeedPostDraft{Title: "Beach Cleanup", Content: "Great day", Category: "environment"}
	post, err := svc.CreatePost(ctx, draft)
	require.NoError(t, err)
	require.Equal(t, "Beach Cleanup", post.Title)

	require.Equal(t, 1, feed.count("create"))
	require.Equal(t, []domain.FeedPostDraft{draft}, feed.created)
	require.True(t, cache.IsStale(services.FeedPageKey(domain.FeedFilter{})))

	page, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
}

func TestCreatePostValidatesBeforeNetwork(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, _ := newFeedEnv(t)

	_, err := svc.CreatePost(ctx, domain.FeedPostDraft{Content: "no title", Category: "environment"})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Zero(t, feed.total())
}

func TestCommentAndShareInvalidate(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, _, cache := newFeedEnv(t, fakePost("p1", 0, false))

	_, err := svc.GetPost(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.ListComments(ctx, "p1")
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, "p1", "count me in")
	require.NoError(t, err)
	require.True(t, cache.IsStale(services.FeedCommentsKey("p1")))
	require.True(t, cache.IsStale(services.FeedDetailKey("p1")))

	_, err = svc.GetPost(ctx, "p1")
	require.NoError(t, err)
	shares, err := svc.SharePost(ctx, "p1", "twitter")
	require.NoError(t, err)
	require.Equal(t, 1, shares)
	require.True(t, cache.IsStale(services.FeedDetailKey("p1")))
}

func TestApplyRemoteEvent(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, _, cache := newFeedEnv(t, fakePost("p1", 0, false))

	_, err := svc.ListPosts(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, "p1")
	require.NoError(t, err)

	svc.ApplyRemoteEvent(domain.FeedEvent{Type: domain.EventPostCreated})
	require.True(t, cache.IsStale(services.FeedPageKey(domain.FeedFilter{})))
	require.False(t, cache.IsStale(services.FeedDetailKey("p1")))

	svc.ApplyRemoteEvent(domain.FeedEvent{Type: domain.EventPostDeleted, PostID: "p1"})
	_, ok := cache.Peek(services.FeedDetailKey("p1"))
	require.False(t, ok)
}

type recordingPublisher struct {
	events []domain.FeedEvent
	err    error
}

func (p *recordingPublisher) PublishFeedEvent(_ context.Context, evt domain.FeedEvent) error {
	p.events = append(p.events, evt)
	return p.err
}

func TestMutationsAnnounceOnlyOnSuccess(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	svc, feed, _ := newFeedEnv(t, fakePost("p1", 0, false))
	pub := &recordingPublisher{err: errors.New("nats down")}
	svc.SetPublisher(pub)

	_, err := svc.AddComment(ctx, "p1", "count me in")
	require.NoError(t, err, "a failed announcement does not fail the mutation")

	feed.likeErr = errors.New("boom")
	_, err = svc.ToggleLike(ctx, "p1")
	require.Error(t, err)

	require.Equal(t, []domain.FeedEvent{
		{Type: domain.EventCommentCreated, PostID: "p1", CommentID: "c2"},
	}, pub.events)
}
