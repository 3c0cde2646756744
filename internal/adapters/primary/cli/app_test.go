package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	"github.com/tazminur12/volunter-sub001/internal/adapters/primary/cli"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/identity"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/tokenstore"
	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	qc "github.com/tazminur12/volunter-sub001/internal/core/querycache"
	"github.com/tazminur12/volunter-sub001/internal/core/services"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

func getTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// syncBuffer is written by the shell and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// --- fakes: only the methods a test drives are implemented ---

type fakeFeed struct {
	ports.FeedService
	mu        sync.Mutex
	created   []domain.FeedPostDraft
	page      domain.FeedPage
	listErrs  []error
	listCalls int
	likeGate  chan struct{}
	likeCalls atomic.Int32
}

func (f *fakeFeed) ListPosts(context.Context, domain.FeedFilter) (domain.FeedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return domain.FeedPage{}, err
	}
	return f.page, nil
}

func (f *fakeFeed) CreatePost(_ context.Context, d domain.FeedPostDraft) (*domain.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	return &domain.FeedPost{ID: "new-1", Title: d.Title, Content: d.Content, Category: d.Category, Images: d.Images}, nil
}

func (f *fakeFeed) ToggleLike(ctx context.Context, id string) (*domain.LikeState, error) {
	f.likeCalls.Add(1)
	if f.likeGate != nil {
		select {
		case <-f.likeGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.LikeState{IsLiked: true, Likes: 4}, nil
}

type fakeMedia struct {
	ports.MediaService
	uploaded []string
}

func (m *fakeMedia) UploadAll(_ context.Context, pending *domain.PendingImages) ([]string, error) {
	var urls []string
	for _, f := range pending.Files() {
		m.uploaded = append(m.uploaded, f.Name)
		urls = append(urls, "https://i.ibb.co/"+f.Name)
	}
	pending.Clear()
	return urls, nil
}

type fakeChat struct {
	ports.ChatService
	history []domain.ChatMessage
}

func (c *fakeChat) Send(_ context.Context, text string) (domain.ChatMessage, error) {
	reply := domain.ChatMessage{Role: domain.RoleModel, Text: "Try the beach cleanup."}
	c.history = append(c.history, domain.ChatMessage{Role: domain.RoleUser, Text: text}, reply)
	return reply, nil
}

func (c *fakeChat) History() []domain.ChatMessage { return c.history }

type signedInSession struct {
	ports.SessionService
	user *domain.Identity
}

func (s signedInSession) CurrentUser() *domain.Identity { return s.user }

func someone() signedInSession {
	return signedInSession{user: &domain.Identity{UID: gofakeit.UUID(), Email: gofakeit.Email(), Provider: "local"}}
}

type countingExchanger struct{ calls atomic.Int32 }

func (e *countingExchanger) ExchangeToken(context.Context, string) (string, error) {
	e.calls.Add(1)
	return "backend-token", nil
}

type noUsers struct{}

func (noUsers) SaveUser(context.Context, domain.Profile) error { return nil }

func newShell(t *testing.T, svc cli.Services, opts ...cli.Option) (*cli.App, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	return cli.New(svc, out, opts...), out
}

func newSession(t *testing.T) (*services.Session, *countingExchanger) {
	t.Helper()
	provider := identity.NewLocal(&identity.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	exchanger := &countingExchanger{}
	s := services.NewSession(provider, exchanger, noUsers{}, tokenstore.NewMemoryStore(util.NewRealClock()))
	s.Start(context.Background())
	t.Cleanup(s.Close)
	return s, exchanger
}

// --- tests ---

func TestCreateFeedPostShowsSuccess(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	feed := &fakeFeed{}
	app, out := newShell(t, cli.Services{Feed: feed})

	err := app.Exec(ctx, `feed create -title "Beach Cleanup" -content "Great day" -category environment`)
	require.NoError(t, err)
	require.Equal(t, []domain.FeedPostDraft{{Title: "Beach Cleanup", Content: "Great day", Category: "environment"}}, feed.created)
	require.Contains(t, out.String(), `✅ Post "Beach Cleanup" published`)
}

func TestCreateFeedPostValidatesBeforeSubmitting(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	feed := &fakeFeed{}
	app, out := newShell(t, cli.Services{Feed: feed})

	err := app.Exec(ctx, `feed create -content "Great day" -category environment`)
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Empty(t, feed.created)
	require.Contains(t, out.String(), "❌ title is required")
	require.NotContains(t, out.String(), "retry")
}

func TestCreateFeedPostUploadsImages(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	feed, media := &fakeFeed{}, &fakeMedia{}
	open := func(path string) (domain.ImageFile, error) {
		return domain.ImageFile{Name: path, ContentType: "image/jpeg", Size: 10, Reader: strings.NewReader("0123456789")}, nil
	}
	app, out := newShell(t, cli.Services{Session: someone(), Feed: feed, Media: media}, cli.WithFileOpener(open))

	line := `feed create -title Planting -content Trees -category environment`
	for i := 0; i < 6; i++ {
		line += " -image img" + string(rune('a'+i)) + ".jpg"
	}
	require.NoError(t, app.Exec(ctx, line))

	require.Equal(t, []string{"imga.jpg", "imgb.jpg", "imgc.jpg", "imgd.jpg", "imge.jpg"}, media.uploaded)
	require.Len(t, feed.created[0].Images, 5)
	require.Contains(t, out.String(), "imgf.jpg skipped")
}

func TestCreateFeedPostWithImagesRequiresLogin(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	session, _ := newSession(t)
	media := &fakeMedia{}
	var opened []string
	open := func(path string) (domain.ImageFile, error) {
		opened = append(opened, path)
		return domain.ImageFile{Name: path, ContentType: "image/jpeg", Size: 10, Reader: strings.NewReader("0123456789")}, nil
	}
	feed := services.NewFeedService(nil, session, qc.New())
	app, out := newShell(t, cli.Services{Session: session, Feed: feed, Media: media}, cli.WithFileOpener(open))

	err := app.Exec(ctx, `feed create -title "Beach Cleanup" -content "Great day" -category environment -image a.jpg`)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.Empty(t, opened)
	require.Empty(t, media.uploaded)
	require.Contains(t, out.String(), "Please log in first.")

	require.ErrorIs(t, app.Exec(ctx, `feed edit p1 -title "Beach Cleanup" -image a.jpg`), domain.ErrUnauthenticated)
	require.Empty(t, opened)
	require.Empty(t, media.uploaded)
}

func TestFeedListEmptyState(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	app, out := newShell(t, cli.Services{Feed: &fakeFeed{}})

	require.NoError(t, app.Exec(ctx, "feed list -sort popular"))
	require.Contains(t, out.String(), "⏳ Loading impact feed")
	require.Contains(t, out.String(), "∅ No posts yet")
}

func TestFailedFetchCanBeRetried(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	title := gofakeit.Sentence(3)
	feed := &fakeFeed{
		listErrs: []error{domain.ErrNetwork},
		page:     domain.FeedPage{Posts: []domain.FeedPost{{ID: "p1", Title: title, Category: "education"}}, Page: 1, TotalPages: 1},
	}
	app, out := newShell(t, cli.Services{Feed: feed})

	require.ErrorIs(t, app.Exec(ctx, "feed list"), domain.ErrNetwork)
	require.Contains(t, out.String(), "Could not reach the server")
	require.Contains(t, out.String(), "Type `retry` to try again.")

	require.NoError(t, app.Exec(ctx, "retry"))
	require.Equal(t, 2, feed.listCalls)
	require.Contains(t, out.String(), "[p1] ")

	require.NoError(t, app.Exec(ctx, "retry"))
	require.Contains(t, out.String(), "Nothing to retry.")
}

func TestDuplicateSubmitIsRejected(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	feed := &fakeFeed{likeGate: make(chan struct{})}
	app, _ := newShell(t, cli.Services{Feed: feed})

	first := make(chan error, 1)
	go func() { first <- app.Exec(ctx, "feed like p1") }()
	require.Eventually(t, func() bool { return feed.likeCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, app.Exec(ctx, "feed like p1"), cli.ErrDuplicateSubmit)
	require.EqualValues(t, 1, feed.likeCalls.Load())

	close(feed.likeGate)
	require.NoError(t, <-first)
	require.NoError(t, app.Exec(ctx, "feed like p1"))
}

func TestLoginWithInvalidEmailIsBlocked(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	session, exchanger := newSession(t)
	app, out := newShell(t, cli.Services{Session: session})

	err := app.Exec(ctx, "login not-an-email secret123")
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Contains(t, out.String(), "is not a valid email address")
	require.Zero(t, exchanger.calls.Load())
	require.Nil(t, session.CurrentUser())
}

func TestRegisterLoginWhoami(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	session, exchanger := newSession(t)
	app, out := newShell(t, cli.Services{Session: session})
	email := gofakeit.Email()

	require.NoError(t, app.Exec(ctx, "register -email "+email+" -password secret123 -name Robin"))
	require.Contains(t, out.String(), "✅ Account created. Welcome, Robin!")
	require.NoError(t, app.Exec(ctx, "logout"))

	require.ErrorIs(t, app.Exec(ctx, "login -email "+email+" -password wrong-pass"), domain.ErrInvalidCredentials)
	require.Contains(t, out.String(), "Invalid email or password.")

	require.NoError(t, app.Exec(ctx, "login "+email+" secret123"))
	require.False(t, session.Loading())
	require.EqualValues(t, 2, exchanger.calls.Load())

	require.NoError(t, app.Exec(ctx, "whoami"))
	require.Contains(t, out.String(), "<"+email+"> via local")
}

func TestMutationWithoutLoginAsksToSignIn(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	session, _ := newSession(t)
	svc := services.NewRatingService(nil, session)
	app, out := newShell(t, cli.Services{Session: session, Ratings: svc})

	require.ErrorIs(t, app.Exec(ctx, "ratings add p1 -rating 5"), domain.ErrUnauthenticated)
	require.Contains(t, out.String(), "Please log in first.")
}

func TestChat(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	app, out := newShell(t, cli.Services{Chat: &fakeChat{}})

	require.NoError(t, app.Exec(ctx, "chat what can I do this weekend?"))
	require.Contains(t, out.String(), "🤖 Try the beach cleanup.")
	require.NoError(t, app.Exec(ctx, "chat -history"))
	require.Contains(t, out.String(), "🙂 what can I do this weekend?")
}

func TestRunStopsOnQuit(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	app, out := newShell(t, cli.Services{})

	err := app.Run(ctx, strings.NewReader("help\nbogus\nquit\nhelp\n"))
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(out.String(), "Commands:"))
	require.Contains(t, out.String(), `unknown command "bogus"`)
}

func TestUsageErrors(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	app, out := newShell(t, cli.Services{})

	for _, line := range []string{"feed", "feed show", "posts create -volunteers many", "volunteer status r1"} {
		err := app.Exec(ctx, line)
		require.Error(t, err, line)
		require.False(t, errors.Is(err, cli.ErrQuit))
	}
	require.NotContains(t, out.String(), "retry")
	require.ErrorIs(t, app.Exec(ctx, "exit"), cli.ErrQuit)
}
