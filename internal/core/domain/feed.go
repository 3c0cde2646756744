package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	MaxTitleLength = 120
	DefaultPageLen = 10
)

type Author struct {
	Name     string
	Email    string
	PhotoURL string
}

type Counts struct {
	Likes    int
	Comments int
	Shares   int
}

// FeedPost is a post of the impact feed as seen by the current viewer.
type FeedPost struct {
	ID        string
	Title     string
	Content   string
	Category  string
	Images    []string
	CreatedBy Author
	Counts    Counts
	IsLiked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithLike returns a copy of the post with the viewer's like set to liked.
// The receiver is left untouched so cached snapshots stay intact.
func (p FeedPost) WithLike(liked bool) FeedPost {
	if p.IsLiked == liked {
		return p
	}
	p.IsLiked = liked
	if liked {
		p.Counts.Likes++
	} else if p.Counts.Likes > 0 {
		p.Counts.Likes--
	}
	return p
}

type FeedPage struct {
	Posts      []FeedPost
	Page       int
	TotalPages int
	Total      int
}

// ToggleLike returns a copy of the page where the post matching id has its
// like flipped. The second value reports whether the page contained the post.
func (pg FeedPage) ToggleLike(id string) (FeedPage, bool) {
	found := false
	posts := make([]FeedPost, len(pg.Posts))
	for i, p := range pg.Posts {
		if p.ID == id {
			p = p.WithLike(!p.IsLiked)
			found = true
		}
		posts[i] = p
	}
	if !found {
		return pg, false
	}
	pg.Posts = posts
	return pg, true
}

// Find returns the post with the given id, if the page holds it.
func (pg FeedPage) Find(id string) (FeedPost, bool) {
	for _, p := range pg.Posts {
		if p.ID == id {
			return p, true
		}
	}
	return FeedPost{}, false
}

// FeedFilter selects a page of the feed.
type FeedFilter struct {
	Category string
	Sort     string // "latest", "popular"
	Filter   string // "all", "mine", "liked"
	Page     int
	Limit    int
}

// Normalize fills defaults so that equal filters encode equally.
func (f FeedFilter) Normalize() FeedFilter {
	f.Category = strings.TrimSpace(strings.ToLower(f.Category))
	if f.Category == "all" {
		f.Category = ""
	}
	if f.Sort == "" {
		f.Sort = "latest"
	}
	if f.Filter == "" {
		f.Filter = "all"
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLen
	}
	return f
}

// Values encodes the filter as query parameters.
func (f FeedFilter) Values() url.Values {
	f = f.Normalize()
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	v.Set("sort", f.Sort)
	v.Set("filter", f.Filter)
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("limit", strconv.Itoa(f.Limit))
	return v
}

// Encode is the canonical form, used as a cache key segment.
func (f FeedFilter) Encode() string {
	return f.Values().Encode()
}

// FeedPostDraft is the payload of a create or update.
type FeedPostDraft struct {
	Title    string
	Content  string
	Category string
	Images   []string
}

func (d FeedPostDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return Invalid("title is required")
	}
	if len([]rune(d.Title)) > MaxTitleLength {
		return Invalid("title must be at most %d characters", MaxTitleLength)
	}
	if strings.TrimSpace(d.Content) == "" {
		return Invalid("content is required")
	}
	if strings.TrimSpace(d.Category) == "" {
		return Invalid("category is required")
	}
	if len(d.Images) > MaxImagesPerPost {
		return Invalid("at most %d images per post", MaxImagesPerPost)
	}
	return nil
}

// LikeState is the server's answer to a like toggle.
type LikeState struct {
	IsLiked bool
	Likes   int
}

type Comment struct {
	ID        string
	PostID    string
	Author    Author
	Content   string
	CreatedAt time.Time
}

// --- REMOTE EVENTS ---

type FeedEventType string

const (
	EventPostCreated    FeedEventType = "post.created"
	EventPostUpdated    FeedEventType = "post.updated"
	EventPostDeleted    FeedEventType = "post.deleted"
	EventPostLiked      FeedEventType = "post.liked"
	EventPostShared     FeedEventType = "post.shared"
	EventCommentCreated FeedEventType = "comment.created"
	EventCommentDeleted FeedEventType = "comment.deleted"
)

// FeedEvent notifies that another session changed a feed resource.
type FeedEvent struct {
	Type      FeedEventType
	PostID    string
	CommentID string
}
