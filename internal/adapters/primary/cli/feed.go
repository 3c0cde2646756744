package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

func (a *App) feedCommands() map[string]command {
	return map[string]command{
		"list":      {usage: "feed list [-category C] [-sort latest|popular] [-filter all|mine|liked] [-page N] [-limit N]", run: a.feedList},
		"show":      {usage: "feed show <id>", run: a.feedShow},
		"comments":  {usage: "feed comments <id>", run: a.feedComments},
		"create":    {usage: "feed create -title T -content C -category K [-image FILE]...", mutates: true, run: a.feedCreate},
		"edit":      {usage: "feed edit <id> [-title T] [-content C] [-category K] [-image FILE]...", mutates: true, run: a.feedEdit},
		"delete":    {usage: "feed delete <id>", mutates: true, run: a.feedDelete},
		"like":      {usage: "feed like <id>", mutates: true, run: a.feedLike},
		"comment":   {usage: "feed comment <id> <text>", mutates: true, run: a.feedComment},
		"uncomment": {usage: "feed uncomment <id> <comment-id>", mutates: true, run: a.feedUncomment},
		"share":     {usage: "feed share <id> [-platform copy|facebook|twitter|linkedin|whatsapp]", mutates: true, run: a.feedShare},
	}
}

func (a *App) feedList(ctx context.Context, args []string) error {
	const usage = "feed list [-category C] [-sort latest|popular] [-filter all|mine|liked] [-page N] [-limit N]"
	var f domain.FeedFilter
	fs := newFlags("feed list")
	fs.StringVar(&f.Category, "category", "", "category")
	fs.StringVar(&f.Sort, "sort", "latest", "latest or popular")
	fs.StringVar(&f.Filter, "filter", "all", "all, mine or liked")
	fs.IntVar(&f.Page, "page", 1, "page")
	fs.IntVar(&f.Limit, "limit", domain.DefaultPageLen, "posts per page")
	if _, err := parse(fs, usage, args); err != nil {
		return err
	}

	a.loading("impact feed")
	page, err := a.svc.Feed.ListPosts(ctx, f)
	if err != nil {
		return err
	}
	if len(page.Posts) == 0 {
		a.empty("No posts yet. Be the first to share your impact with `feed create`.")
		return nil
	}
	for _, p := range page.Posts {
		a.printf("%s\n", feedLine(p))
	}
	if page.TotalPages > 1 {
		a.printf("page %d of %d\n", page.Page, page.TotalPages)
	}
	return nil
}

func (a *App) feedShow(ctx context.Context, args []string) error {
	if err := need(args, 1, "feed show <id>"); err != nil {
		return err
	}
	a.loading("post")
	p, err := a.svc.Feed.GetPost(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("%s\n%s\n\n%s\n", p.Title, strings.Repeat("─", len([]rune(p.Title))), p.Content)
	a.printf("category: %s · by %s · %s\n", p.Category, p.CreatedBy.Name, formatDate(p.CreatedAt))
	for _, img := range p.Images {
		a.printf("🖼  %s\n", img)
	}
	a.printf("%s · %s · %s%s\n", plural(p.Counts.Likes, "like"), plural(p.Counts.Comments, "comment"),
		plural(p.Counts.Shares, "share"), likedMark(p.IsLiked))
	return nil
}

func (a *App) feedComments(ctx context.Context, args []string) error {
	if err := need(args, 1, "feed comments <id>"); err != nil {
		return err
	}
	a.loading("comments")
	comments, err := a.svc.Feed.ListComments(ctx, args[0])
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		a.empty("No comments yet.")
		return nil
	}
	for _, c := range comments {
		a.printf("[%s] %s: %s\n", c.ID, c.Author.Name, c.Content)
	}
	return nil
}

func (a *App) feedCreate(ctx context.Context, args []string) error {
	const usage = "feed create -title T -content C -category K [-image FILE]..."
	var draft domain.FeedPostDraft
	var images stringList
	fs := newFlags("feed create")
	fs.StringVar(&draft.Title, "title", "", "title")
	fs.StringVar(&draft.Content, "content", "", "content")
	fs.StringVar(&draft.Category, "category", "", "category")
	fs.Var(&images, "image", "image file, repeatable")
	if _, err := parse(fs, usage, args); err != nil {
		return err
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	urls, err := a.uploadImages(ctx, images)
	if err != nil {
		return err
	}
	draft.Images = urls

	post, err := a.svc.Feed.CreatePost(ctx, draft)
	if err != nil {
		return err
	}
	a.success("Post %q published (id %s).", post.Title, post.ID)
	return nil
}

func (a *App) feedEdit(ctx context.Context, args []string) error {
	const usage = "feed edit <id> [-title T] [-content C] [-category K] [-image FILE]..."
	var draft domain.FeedPostDraft
	var images stringList
	fs := newFlags("feed edit")
	fs.StringVar(&draft.Title, "title", "", "title")
	fs.StringVar(&draft.Content, "content", "", "content")
	fs.StringVar(&draft.Category, "category", "", "category")
	fs.Var(&images, "image", "image file, repeatable; replaces the current images")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, usage); err != nil {
		return err
	}
	if err := a.requireUser(); err != nil {
		return err
	}

	// Unset flags keep the current values.
	a.loading("post")
	cur, err := a.svc.Feed.GetPost(ctx, pos[0])
	if err != nil {
		return err
	}
	set := visited(fs)
	if !set["title"] {
		draft.Title = cur.Title
	}
	if !set["content"] {
		draft.Content = cur.Content
	}
	if !set["category"] {
		draft.Category = cur.Category
	}
	draft.Images = cur.Images
	if err := draft.Validate(); err != nil {
		return err
	}
	if len(images) > 0 {
		if draft.Images, err = a.uploadImages(ctx, images); err != nil {
			return err
		}
	}

	post, err := a.svc.Feed.UpdatePost(ctx, pos[0], draft)
	if err != nil {
		return err
	}
	a.success("Post %q updated.", post.Title)
	return nil
}

func (a *App) feedDelete(ctx context.Context, args []string) error {
	if err := need(args, 1, "feed delete <id>"); err != nil {
		return err
	}
	if err := a.svc.Feed.DeletePost(ctx, args[0]); err != nil {
		return err
	}
	a.success("Post deleted.")
	return nil
}

func (a *App) feedLike(ctx context.Context, args []string) error {
	if err := need(args, 1, "feed like <id>"); err != nil {
		return err
	}
	state, err := a.svc.Feed.ToggleLike(ctx, args[0])
	if err != nil {
		return err
	}
	if state.IsLiked {
		a.success("❤️  Liked (%s).", plural(state.Likes, "like"))
	} else {
		a.success("Like removed (%s).", plural(state.Likes, "like"))
	}
	return nil
}

func (a *App) feedComment(ctx context.Context, args []string) error {
	const usage = "feed comment <id> <text>"
	if err := need(args, 2, usage); err != nil {
		return err
	}
	c, err := a.svc.Feed.AddComment(ctx, args[0], strings.TrimSpace(strings.Join(args[1:], " ")))
	if err != nil {
		return err
	}
	a.success("Comment added (id %s).", c.ID)
	return nil
}

func (a *App) feedUncomment(ctx context.Context, args []string) error {
	if err := need(args, 2, "feed uncomment <id> <comment-id>"); err != nil {
		return err
	}
	if err := a.svc.Feed.DeleteComment(ctx, args[0], args[1]); err != nil {
		return err
	}
	a.success("Comment deleted.")
	return nil
}

func (a *App) feedShare(ctx context.Context, args []string) error {
	const usage = "feed share <id> [-platform copy|facebook|twitter|linkedin|whatsapp]"
	fs := newFlags("feed share")
	platform := fs.String("platform", "copy", "where it was shared")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, usage); err != nil {
		return err
	}
	shares, err := a.svc.Feed.SharePost(ctx, pos[0], *platform)
	if err != nil {
		return err
	}
	a.success("Shared on %s (%s).", *platform, plural(shares, "share"))
	return nil
}

// uploadImages selects the files (first five kept) and uploads them all.
func (a *App) uploadImages(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	// uploads are network calls made on behalf of a mutation
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	var pending domain.PendingImages
	for _, path := range paths {
		img, err := a.open(path)
		if err != nil {
			return nil, domain.Invalid("cannot read %s: %v", path, err)
		}
		if c, ok := img.Reader.(io.Closer); ok {
			defer c.Close()
		}
		rejected, dropped := pending.Add(img)
		for _, err := range rejected {
			a.printf("⚠️  %s\n", humanize(err))
		}
		if dropped > 0 {
			a.printf("⚠️  %s skipped: at most %d images per post.\n", img.Name, domain.MaxImagesPerPost)
		}
	}
	if pending.Len() == 0 {
		return nil, domain.Invalid("none of the selected images can be uploaded")
	}

	a.printf("⏳ Uploading %s...\n", plural(pending.Len(), "image"))
	return a.svc.Media.UploadAll(ctx, &pending)
}

func (a *App) requireUser() error {
	if a.svc.Session == nil || a.svc.Session.CurrentUser() == nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

func feedLine(p domain.FeedPost) string {
	return fmt.Sprintf("[%s] %s (%s) ♥ %d 💬 %d ↗ %d%s · %s", p.ID, short(p.Title, 60), p.Category,
		p.Counts.Likes, p.Counts.Comments, p.Counts.Shares, likedMark(p.IsLiked), p.CreatedBy.Name)
}

func likedMark(liked bool) string {
	if liked {
		return " · you liked this"
	}
	return ""
}
