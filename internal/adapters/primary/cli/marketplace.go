package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

// --- OPPORTUNITIES ---

func (a *App) postCommands() map[string]command {
	return map[string]command{
		"list":   {usage: "posts list [-search S] [-category C] [-sort deadline|newest] [-page N] [-limit N]", run: a.postsList},
		"show":   {usage: "posts show <id>", run: a.postsShow},
		"mine":   {usage: "posts mine", run: a.postsMine},
		"create": {usage: "posts create -title T -description D -category C -location L -volunteers N -deadline YYYY-MM-DD [-thumbnail URL]", mutates: true, run: a.postsCreate},
		"edit":   {usage: "posts edit <id> [-title T] [-description D] [-category C] [-location L] [-volunteers N] [-deadline YYYY-MM-DD] [-thumbnail URL]", mutates: true, run: a.postsEdit},
		"delete": {usage: "posts delete <id>", mutates: true, run: a.postsDelete},
	}
}

func (a *App) postsList(ctx context.Context, args []string) error {
	const usage = "posts list [-search S] [-category C] [-sort deadline|newest] [-page N] [-limit N]"
	var f domain.OpportunityFilter
	fs := newFlags("posts list")
	fs.StringVar(&f.Search, "search", "", "title search")
	fs.StringVar(&f.Category, "category", "", "category")
	fs.StringVar(&f.Sort, "sort", "", "deadline or newest")
	fs.IntVar(&f.Page, "page", 0, "page")
	fs.IntVar(&f.Limit, "limit", 0, "results per page")
	if _, err := parse(fs, usage, args); err != nil {
		return err
	}

	a.loading("volunteer opportunities")
	list, err := a.svc.Opportunities.List(ctx, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.empty("No opportunities match. Try another search or category.")
		return nil
	}
	a.printOpportunities(list)
	return nil
}

func (a *App) postsShow(ctx context.Context, args []string) error {
	if err := need(args, 1, "posts show <id>"); err != nil {
		return err
	}
	a.loading("opportunity")
	o, err := a.svc.Opportunities.Get(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("%s\n%s\n\n%s\n", o.Title, strings.Repeat("─", len([]rune(o.Title))), o.Description)
	a.printf("category: %s · location: %s · deadline: %s\n", o.Category, o.Location, formatDate(o.Deadline))
	a.printf("volunteers needed: %d · organizer: %s <%s>\n", o.VolunteersNeeded, o.OrganizerName, o.OrganizerEmail)
	if o.Thumbnail != "" {
		a.printf("🖼  %s\n", o.Thumbnail)
	}
	return nil
}

func (a *App) postsMine(ctx context.Context, _ []string) error {
	a.loading("your opportunities")
	list, err := a.svc.Opportunities.Mine(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.empty("You have not posted any opportunity yet. Use `posts create`.")
		return nil
	}
	a.printOpportunities(list)
	return nil
}

type opportunityFlags struct {
	fs         *flag.FlagSet
	draft      domain.OpportunityDraft
	deadline   string
	volunteers int
}

func newOpportunityFlags(name string) *opportunityFlags {
	f := &opportunityFlags{fs: newFlags(name)}
	f.fs.StringVar(&f.draft.Title, "title", "", "title")
	f.fs.StringVar(&f.draft.Description, "description", "", "description")
	f.fs.StringVar(&f.draft.Category, "category", "", "category")
	f.fs.StringVar(&f.draft.Location, "location", "", "location")
	f.fs.StringVar(&f.draft.Thumbnail, "thumbnail", "", "thumbnail URL")
	f.fs.IntVar(&f.volunteers, "volunteers", 0, "volunteers needed")
	f.fs.StringVar(&f.deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	return f
}

func (f *opportunityFlags) resolve() (domain.OpportunityDraft, error) {
	d := f.draft
	d.VolunteersNeeded = f.volunteers
	if f.deadline != "" {
		t, err := parseDeadline(f.deadline)
		if err != nil {
			return d, err
		}
		d.Deadline = t
	}
	return d, nil
}

func (a *App) postsCreate(ctx context.Context, args []string) error {
	const usage = "posts create -title T -description D -category C -location L -volunteers N -deadline YYYY-MM-DD [-thumbnail URL]"
	f := newOpportunityFlags("posts create")
	if _, err := parse(f.fs, usage, args); err != nil {
		return err
	}
	draft, err := f.resolve()
	if err != nil {
		return err
	}

	o, err := a.svc.Opportunities.Create(ctx, draft)
	if err != nil {
		return err
	}
	a.success("Opportunity %q posted (id %s).", o.Title, o.ID)
	return nil
}

func (a *App) postsEdit(ctx context.Context, args []string) error {
	const usage = "posts edit <id> [-title T] [-description D] [-category C] [-location L] [-volunteers N] [-deadline YYYY-MM-DD] [-thumbnail URL]"
	f := newOpportunityFlags("posts edit")
	pos, err := parse(f.fs, usage, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, usage); err != nil {
		return err
	}
	draft, err := f.resolve()
	if err != nil {
		return err
	}

	// Unset flags keep the current values.
	a.loading("opportunity")
	cur, err := a.svc.Opportunities.Get(ctx, pos[0])
	if err != nil {
		return err
	}
	set := visited(f.fs)
	keep := func(name string, dst *string, v string) {
		if !set[name] {
			*dst = v
		}
	}
	keep("title", &draft.Title, cur.Title)
	keep("description", &draft.Description, cur.Description)
	keep("category", &draft.Category, cur.Category)
	keep("location", &draft.Location, cur.Location)
	keep("thumbnail", &draft.Thumbnail, cur.Thumbnail)
	if !set["volunteers"] {
		draft.VolunteersNeeded = cur.VolunteersNeeded
	}
	if !set["deadline"] {
		draft.Deadline = cur.Deadline
	}

	o, err := a.svc.Opportunities.Update(ctx, pos[0], draft)
	if err != nil {
		return err
	}
	a.success("Opportunity %q updated.", o.Title)
	return nil
}

func (a *App) postsDelete(ctx context.Context, args []string) error {
	if err := need(args, 1, "posts delete <id>"); err != nil {
		return err
	}
	if err := a.svc.Opportunities.Delete(ctx, args[0]); err != nil {
		return err
	}
	a.success("Opportunity deleted.")
	return nil
}

func (a *App) printOpportunities(list []domain.Opportunity) {
	for _, o := range list {
		a.printf("[%s] %s (%s) · %s · needs %d · until %s\n",
			o.ID, short(o.Title, 60), o.Category, o.Location, o.VolunteersNeeded, formatDate(o.Deadline))
	}
}

// --- VOLUNTEERING ---

func (a *App) volunteerCommands() map[string]command {
	return map[string]command{
		"apply":    {usage: "volunteer apply <post-id> [-suggestion TEXT]", mutates: true, run: a.volunteerApply},
		"mine":     {usage: "volunteer mine", run: a.volunteerMine},
		"requests": {usage: "volunteer requests", run: a.volunteerRequests},
		"cancel":   {usage: "volunteer cancel <request-id>", mutates: true, run: a.volunteerCancel},
		"status":   {usage: "volunteer status <request-id> pending|approved|rejected|completed|requested", mutates: true, run: a.volunteerStatus},
	}
}

func (a *App) volunteerApply(ctx context.Context, args []string) error {
	const usage = "volunteer apply <post-id> [-suggestion TEXT]"
	fs := newFlags("volunteer apply")
	suggestion := fs.String("suggestion", "", "a note for the organizer")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, usage); err != nil {
		return err
	}
	r, err := a.svc.Volunteers.Apply(ctx, pos[0], *suggestion)
	if err != nil {
		return err
	}
	a.success("Request sent for %q (id %s, %s).", r.PostTitle, r.ID, r.Status)
	return nil
}

func (a *App) volunteerMine(ctx context.Context, _ []string) error {
	a.loading("your volunteer requests")
	list, err := a.svc.Volunteers.Mine(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.empty("You have not applied to any opportunity yet.")
		return nil
	}
	for _, r := range list {
		a.printf("[%s] %s · %s · %s\n", r.ID, short(r.PostTitle, 50), r.Status, formatDate(r.Deadline))
	}
	return nil
}

func (a *App) volunteerRequests(ctx context.Context, _ []string) error {
	a.loading("requests for your opportunities")
	list, err := a.svc.Volunteers.Incoming(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.empty("Nobody has applied to your opportunities yet.")
		return nil
	}
	for _, r := range list {
		a.printf("[%s] %s <%s> → %s · %s\n", r.ID, r.VolunteerName, r.VolunteerEmail, short(r.PostTitle, 40), r.Status)
		if r.Suggestion != "" {
			a.printf("    “%s”\n", short(r.Suggestion, 80))
		}
	}
	return nil
}

func (a *App) volunteerCancel(ctx context.Context, args []string) error {
	if err := need(args, 1, "volunteer cancel <request-id>"); err != nil {
		return err
	}
	if err := a.svc.Volunteers.Cancel(ctx, args[0]); err != nil {
		return err
	}
	a.success("Request cancelled.")
	return nil
}

func (a *App) volunteerStatus(ctx context.Context, args []string) error {
	if err := need(args, 2, "volunteer status <request-id> <status>"); err != nil {
		return err
	}
	status, err := domain.ParseStatus(args[1])
	if err != nil {
		return err
	}
	r, err := a.svc.Volunteers.SetStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	a.success("Request %s is now %s.", r.ID, r.Status)
	return nil
}

// --- RATINGS ---

func (a *App) ratingCommands() map[string]command {
	return map[string]command{
		"add":    {usage: "ratings add <post-id> -rating 1..5 [-review TEXT]", mutates: true, run: a.ratingsAdd},
		"list":   {usage: "ratings list <post-id>", run: a.ratingsList},
		"mine":   {usage: "ratings mine", run: a.ratingsMine},
		"edit":   {usage: "ratings edit <rating-id> -post <post-id> -rating 1..5 [-review TEXT]", mutates: true, run: a.ratingsEdit},
		"delete": {usage: "ratings delete <rating-id>", mutates: true, run: a.ratingsDelete},
	}
}

func (a *App) ratingsAdd(ctx context.Context, args []string) error {
	const usage = "ratings add <post-id> -rating 1..5 [-review TEXT]"
	var d domain.RatingDraft
	fs := newFlags("ratings add")
	fs.IntVar(&d.Rating, "rating", 0, "stars, 1 to 5")
	fs.StringVar(&d.Review, "review", "", "review")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, usage); err != nil {
		return err
	}
	d.PostID = pos[0]

	r, err := a.svc.Ratings.Rate(ctx, d)
	if err != nil {
		return err
	}
	a.success("Rated %s (id %s).", stars(r.Rating), r.ID)
	return nil
}

func (a *App) ratingsList(ctx context.Context, args []string) error {
	if err := need(args, 1, "ratings list <post-id>"); err != nil {
		return err
	}
	a.loading("ratings")
	list, summary, err := a.svc.Ratings.ForPost(ctx, args[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.empty("No ratings yet. Be the first with `ratings add`.")
		return nil
	}
	a.printf("Average %s from %s\n", strconv.FormatFloat(summary.Average, 'f', 1, 64), plural(summary.Count, "rating"))
	a.printRatings(list)
	return nil
}

func (a *App) ratingsMine(ctx context.Context, _ []string) error {
	a.loading("your ratings")
	list, err := a.svc.Ratings.Mine(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.empty("You have not rated anything yet.")
		return nil
	}
	a.printRatings(list)
	return nil
}

func (a *App) ratingsEdit(ctx context.Context, args []string) error {
	const usage = "ratings edit <rating-id> -post <post-id> -rating 1..5 [-review TEXT]"
	var d domain.RatingDraft
	fs := newFlags("ratings edit")
	fs.StringVar(&d.PostID, "post", "", "post id")
	fs.IntVar(&d.Rating, "rating", 0, "stars, 1 to 5")
	fs.StringVar(&d.Review, "review", "", "review")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, usage); err != nil {
		return err
	}

	r, err := a.svc.Ratings.Update(ctx, pos[0], d)
	if err != nil {
		return err
	}
	a.success("Rating updated to %s.", stars(r.Rating))
	return nil
}

func (a *App) ratingsDelete(ctx context.Context, args []string) error {
	if err := need(args, 1, "ratings delete <rating-id>"); err != nil {
		return err
	}
	if err := a.svc.Ratings.Delete(ctx, args[0]); err != nil {
		return err
	}
	a.success("Rating deleted.")
	return nil
}

func (a *App) printRatings(list []domain.Rating) {
	for _, r := range list {
		line := fmt.Sprintf("[%s] %s %s", r.ID, stars(r.Rating), r.ReviewerName)
		if r.Review != "" {
			line += ": " + short(r.Review, 80)
		}
		a.printf("%s\n", line)
	}
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > domain.MaxRating {
		n = domain.MaxRating
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxRating-n)
}
