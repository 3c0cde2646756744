package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

func getTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- SESSION ---

type fakeUser struct{ user *domain.Identity }

func (f *fakeUser) CurrentUser() *domain.Identity { return f.user }

func signedIn() *fakeUser {
	return &fakeUser{user: &domain.Identity{
		UID:         gofakeit.UUID(),
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Name(),
		Provider:    "password",
	}}
}

// --- FEED BACKEND ---

type fakeFeed struct {
	mu    sync.Mutex
	calls map[string]int
	posts map[string]domain.FeedPost

	likeErr     error
	likeGate    chan struct{}
	likeStarted chan struct{}
	created     []domain.FeedPostDraft
}

func newFakeFeed(posts ...domain.FeedPost) *fakeFeed {
	f := &fakeFeed{calls: make(map[string]int), posts: make(map[string]domain.FeedPost)}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeFeed) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeFeed) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeFeed) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFeed) ListFeed(_ context.Context, filter domain.FeedFilter) (*domain.FeedPage, error) {
	f.hit("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &domain.FeedPage{Page: filter.Page, TotalPages: 1}
	for _, p := range f.posts {
		page.Posts = append(page.Posts, p)
	}
	page.Total = len(page.Posts)
	return page, nil
}

func (f *fakeFeed) GetFeedPost(_ context.Context, id string) (*domain.FeedPost, error) {
	f.hit("get")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeFeed) CreateFeedPost(_ context.Context, d domain.FeedPostDraft) (*domain.FeedPost, error) {
	f.hit("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	p := domain.FeedPost{ID: fmt.Sprintf("p%d", len(f.posts)+1), Title: d.Title, Content: d.Content, Category: d.Category}
	f.posts[p.ID] = p
	return &p, nil
}

func (f *fakeFeed) UpdateFeedPost(_ context.Context, id string, d domain.FeedPostDraft) (*domain.FeedPost, error) {
	f.hit("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Title, p.Content, p.Category = d.Title, d.Content, d.Category
	f.posts[id] = p
	return &p, nil
}

func (f *fakeFeed) DeleteFeedPost(_ context.Context, id string) error {
	f.hit("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeFeed) ToggleLike(ctx context.Context, id string) (*domain.LikeState, error) {
	f.hit("like")
	if f.likeStarted != nil {
		close(f.likeStarted)
	}
	if f.likeGate != nil {
		select {
		case <-f.likeGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.likeErr != nil {
		return nil, f.likeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.posts[id]
	p = p.WithLike(!p.IsLiked)
	f.posts[id] = p
	return &domain.LikeState{IsLiked: p.IsLiked, Likes: p.Counts.Likes}, nil
}

func (f *fakeFeed) SharePost(_ context.Context, id, _ string) (int, error) {
	f.hit("share")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.posts[id]
	p.Counts.Shares++
	f.posts[id] = p
	return p.Counts.Shares, nil
}

func (f *fakeFeed) ListComments(_ context.Context, postID string) ([]domain.Comment, error) {
	f.hit("comments")
	return []domain.Comment{{ID: "c1", PostID: postID, Content: "nice"}}, nil
}

func (f *fakeFeed) AddComment(_ context.Context, postID, content string) (*domain.Comment, error) {
	f.hit("comment")
	return &domain.Comment{ID: "c2", PostID: postID, Content: content}, nil
}

func (f *fakeFeed) DeleteComment(_ context.Context, _, _ string) error {
	f.hit("uncomment")
	return nil
}

func fakePost(id string, likes int, liked bool) domain.FeedPost {
	return domain.FeedPost{
		ID:        id,
		Title:     gofakeit.Sentence(4),
		Content:   gofakeit.Paragraph(1, 2, 8, " "),
		Category:  "environment",
		CreatedBy: domain.Author{Name: gofakeit.Name(), Email: gofakeit.Email()},
		Counts:    domain.Counts{Likes: likes, Comments: 1},
		IsLiked:   liked,
		CreatedAt: testNow,
	}
}

// --- IDENTITY ---

type fakeProvider struct {
	mu        sync.Mutex
	calls     []string
	current   *domain.Identity
	listeners map[int]func(*domain.Identity)
	next      int
	signInErr error
	order     *[]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{listeners: make(map[int]func(*domain.Identity))}
}

func (p *fakeProvider) record(name string) {
	p.mu.Lock()
	p.calls = append(p.calls, name)
	if p.order != nil {
		*p.order = append(*p.order, "provider."+name)
	}
	p.mu.Unlock()
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProvider) set(id *domain.Identity) {
	p.mu.Lock()
	p.current = id
	fns := make([]func(*domain.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

func (p *fakeProvider) Register(_ context.Context, email, _ string) (*domain.Identity, error) {
	p.record("register")
	id := &domain.Identity{UID: gofakeit.UUID(), Email: email, Provider: "password"}
	p.set(id)
	return id, nil
}

func (p *fakeProvider) SignIn(_ context.Context, email, _ string) (*domain.Identity, error) {
	p.record("signin")
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	id := &domain.Identity{UID: gofakeit.UUID(), Email: email, Provider: "password"}
	p.set(id)
	return id, nil
}

func (p *fakeProvider) SignInWithGoogle(context.Context) (*domain.Identity, error) {
	p.record("google")
	return nil, domain.ErrProviderUnavailable
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.record("signout")
	p.set(nil)
	return nil
}

func (p *fakeProvider) UpdateProfile(_ context.Context, name, photo string) error {
	p.record("profile")
	return nil
}

func (p *fakeProvider) OnIdentityChanged(fn func(*domain.Identity)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.listeners[id] = fn
	cur := p.current
	p.mu.Unlock()
	fn(cur)
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

type fakeExchanger struct {
	mu    sync.Mutex
	calls int
	gates map[string]chan struct{}
	err   error
}

func (e *fakeExchanger) ExchangeToken(ctx context.Context, email string) (string, error) {
	e.mu.Lock()
	e.calls++
	gate := e.gates[email]
	e.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if e.err != nil {
		return "", e.err
	}
	return "token-" + email, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	token   string
	order   *[]string
	onClear func()
}

func (t *fakeTokens) Token(context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token, nil
}

func (t *fakeTokens) SaveToken(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	return nil
}

func (t *fakeTokens) ClearToken(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
	if t.order != nil {
		*t.order = append(*t.order, "tokens.clear")
	}
	if t.onClear != nil {
		t.onClear()
	}
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	saved []domain.Profile
}

func (u *fakeUsers) SaveUser(_ context.Context, p domain.Profile) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.saved = append(u.saved, p)
	return nil
}

// --- MARKETPLACE ---

type fakeOpportunities struct {
	mu      sync.Mutex
	items   map[string]domain.Opportunity
	filters []domain.OpportunityFilter
	creates int
}

func newFakeOpportunities(items ...domain.Opportunity) *fakeOpportunities {
	f := &fakeOpportunities{items: make(map[string]domain.Opportunity)}
	for _, o := range items {
		f.items[o.ID] = o
	}
	return f
}

func (f *fakeOpportunities) ListOpportunities(_ context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	var out []domain.Opportunity
	for _, o := range f.items {
		if filter.OrganizerEmail == "" || o.OrganizerEmail == filter.OrganizerEmail {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOpportunities) GetOpportunity(_ context.Context, id string) (*domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOpportunities) CreateOpportunity(_ context.Context, o *domain.Opportunity) (*domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	c := *o
	c.ID = gofakeit.UUID()
	f.items[c.ID] = c
	return &c, nil
}

func (f *fakeOpportunities) UpdateOpportunity(_ context.Context, id string, d domain.OpportunityDraft) (*domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Title, o.VolunteersNeeded, o.Deadline = d.Title, d.VolunteersNeeded, d.Deadline
	f.items[id] = o
	return &o, nil
}

func (f *fakeOpportunities) DeleteOpportunity(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeRequests struct {
	mu      sync.Mutex
	items   map[string]domain.VolunteerRequest
	deletes int
	filters []domain.VolunteerRequestFilter
}

func newFakeRequests(items ...domain.VolunteerRequest) *fakeRequests {
	f := &fakeRequests{items: make(map[string]domain.VolunteerRequest)}
	for _, r := range items {
		f.items[r.ID] = r
	}
	return f
}

func (f *fakeRequests) CreateRequest(_ context.Context, r *domain.VolunteerRequest) (*domain.VolunteerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *r
	c.ID = gofakeit.UUID()
	f.items[c.ID] = c
	return &c, nil
}

func (f *fakeRequests) GetRequest(_ context.Context, id string) (*domain.VolunteerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRequests) ListRequests(_ context.Context, filter domain.VolunteerRequestFilter) ([]domain.VolunteerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	var out []domain.VolunteerRequest
	for _, r := range f.items {
		if filter.VolunteerEmail != "" && r.VolunteerEmail != filter.VolunteerEmail {
			continue
		}
		if filter.OrganizerEmail != "" && r.OrganizerEmail != filter.OrganizerEmail {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRequests) UpdateRequestStatus(_ context.Context, id string, st domain.RequestStatus) (*domain.VolunteerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.items[id]
	r.Status = st
	f.items[id] = r
	return &r, nil
}

func (f *fakeRequests) DeleteRequest(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.items, id)
	return nil
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings []domain.Rating
	calls   int
}

func (f *fakeRatings) CreateRating(_ context.Context, d domain.RatingDraft) (*domain.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	r := domain.Rating{ID: gofakeit.UUID(), PostID: d.PostID, Rating: d.Rating, Review: d.Review}
	f.ratings = append(f.ratings, r)
	return &r, nil
}

func (f *fakeRatings) ListRatings(_ context.Context, postID string) ([]domain.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []domain.Rating
	for _, r := range f.ratings {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRatings) ListMyRatings(context.Context) ([]domain.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.ratings, nil
}

func (f *fakeRatings) UpdateRating(_ context.Context, id string, d domain.RatingDraft) (*domain.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &domain.Rating{ID: id, PostID: d.PostID, Rating: d.Rating, Review: d.Review}, nil
}

func (f *fakeRatings) DeleteRating(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

// --- MEDIA / CHAT ---

type fakeHost struct {
	mu      sync.Mutex
	uploads []string
	failOn  string
}

func (h *fakeHost) UploadImage(_ context.Context, img domain.ImageFile) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if img.Name == h.failOn {
		return "", errors.New("host unavailable")
	}
	h.uploads = append(h.uploads, img.Name)
	return "https://i.ibb.co/" + img.Name, nil
}

func image(name string, size int64) domain.ImageFile {
	return domain.ImageFile{Name: name, ContentType: "image/png", Size: size, Reader: strings.NewReader("")}
}

type fakeGenerator struct {
	mu       sync.Mutex
	err      error
	history  [][]domain.ChatMessage
	instruct string
}

func (g *fakeGenerator) Generate(_ context.Context, instruction string, history []domain.ChatMessage, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instruct = instruction
	g.history = append(g.history, history)
	if g.err != nil {
		return "", g.err
	}
	return "echo: " + prompt, nil
}
