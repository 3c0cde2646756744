// Package cli is the interactive front end: one command per line, rendered as
// plain text with loading, empty, error and success states.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

var (
	// ErrQuit is returned by Exec for "quit" and "exit".
	ErrQuit = errors.New("quit")
	// ErrDuplicateSubmit rejects a submission identical to one still running.
	ErrDuplicateSubmit = errors.New("the same action is already being submitted")
	errUnknownCommand  = errors.New("unknown command")
)

// Services are the core handles the shell drives.
type Services struct {
	Session       ports.SessionService
	Feed          ports.FeedService
	Opportunities ports.OpportunityService
	Volunteers    ports.VolunteerService
	Ratings       ports.RatingService
	Media         ports.MediaService
	Chat          ports.ChatService
}

type command struct {
	usage   string
	mutates bool
	run     func(ctx context.Context, args []string) error
}

type App struct {
	svc   Services
	open  FileOpener
	group map[string]map[string]command

	outMu sync.Mutex
	out   io.Writer

	mu        sync.Mutex
	inFlight  map[string]struct{}
	retryArgs []string
}

type Option func(*App)

// WithFileOpener replaces how image paths given to -image are read.
func WithFileOpener(open FileOpener) Option {
	return func(a *App) { a.open = open }
}

func New(svc Services, out io.Writer, opts ...Option) *App {
	a := &App{
		svc:      svc,
		out:      out,
		open:     OpenImage,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.group = map[string]map[string]command{
		"":          a.sessionCommands(),
		"feed":      a.feedCommands(),
		"posts":     a.postCommands(),
		"volunteer": a.volunteerCommands(),
		"ratings":   a.ratingCommands(),
	}
	return a
}

// Run reads commands from in until EOF, "quit" or ctx is done.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	a.printf("Impact shell. Type `help` for commands.\n")
	scanner := bufio.NewScanner(in)
	for {
		a.printf("impact> ")
		if !scanner.Scan() {
			a.printf("\n")
			return scanner.Err()
		}
		if err := a.Exec(ctx, scanner.Text()); errors.Is(err, ErrQuit) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Exec runs one command line. Failures are reported on the output and also
// returned; a failed command can be re-run with "retry".
func (a *App) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		a.printf("❌ %v\n", err)
		return domain.Invalid("%v", err)
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "quit", "exit":
		return ErrQuit
	case "help":
		a.help()
		return nil
	case "retry":
		a.mu.Lock()
		args = a.retryArgs
		a.mu.Unlock()
		if args == nil {
			a.printf("Nothing to retry.\n")
			return nil
		}
		a.printf("↻ %s\n", strings.Join(args, " "))
	}

	cmd, rest, err := a.lookup(args)
	if err != nil {
		a.printf("❌ %v. Type `help` for commands.\n", err)
		return err
	}

	if cmd.mutates {
		release, ok := a.acquire(strings.Join(args, "\x00"))
		if !ok {
			a.printf("⏳ Still submitting %q, please wait.\n", strings.Join(args, " "))
			return ErrDuplicateSubmit
		}
		defer release()
	}

	err = cmd.run(ctx, rest)
	a.mu.Lock()
	switch {
	case err == nil:
		a.retryArgs = nil
	case retryable(err):
		a.retryArgs = args
	}
	a.mu.Unlock()
	if err != nil {
		a.fail(err)
		slog.Debug("command failed", "command", args[0], "error", err)
	}
	return err
}

func (a *App) lookup(args []string) (command, []string, error) {
	if cmd, ok := a.group[""][args[0]]; ok {
		return cmd, args[1:], nil
	}
	group, ok := a.group[args[0]]
	if !ok {
		return command{}, nil, fmt.Errorf("%w %q", errUnknownCommand, args[0])
	}
	if len(args) < 2 {
		return command{}, nil, fmt.Errorf("%w: %s needs a subcommand (%s)", errUnknownCommand, args[0], strings.Join(names(group), ", "))
	}
	cmd, ok := group[args[1]]
	if !ok {
		return command{}, nil, fmt.Errorf("%w %q", errUnknownCommand, args[0]+" "+args[1])
	}
	return cmd, args[2:], nil
}

func (a *App) acquire(key string) (func(), bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inFlight[key]; busy {
		return nil, false
	}
	a.inFlight[key] = struct{}{}
	return func() {
		a.mu.Lock()
		delete(a.inFlight, key)
		a.mu.Unlock()
	}, true
}

func (a *App) help() {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range names(a.group[""]) {
		fmt.Fprintf(&b, "  %s\n", a.group[""][name].usage)
	}
	for _, g := range []string{"feed", "posts", "volunteer", "ratings"} {
		for _, name := range names(a.group[g]) {
			fmt.Fprintf(&b, "  %s\n", a.group[g][name].usage)
		}
	}
	b.WriteString("  retry\n  help\n  quit\n")
	a.printf("%s", b.String())
}

func names(m map[string]command) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// --- RENDERING ---

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) loading(what string) { a.printf("⏳ Loading %s...\n", what) }

func (a *App) empty(msg string) { a.printf("∅ %s\n", msg) }

func (a *App) success(format string, args ...any) {
	a.printf("✅ "+format+"\n", args...)
}

func (a *App) fail(err error) {
	if retryable(err) {
		a.printf("❌ %s\n   Type `retry` to try again.\n", humanize(err))
		return
	}
	a.printf("❌ %s\n", humanize(err))
}

// retryable excludes failures that would fail the same way again.
func retryable(err error) bool {
	for _, target := range []error{
		domain.ErrValidation, domain.ErrUnauthenticated, domain.ErrForbidden,
		domain.ErrInvalidCredentials, domain.ErrProviderUnavailable, ErrDuplicateSubmit,
	} {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}

func humanize(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		msg := err.Error()
		if i := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); i >= 0 {
			msg = msg[i+len(domain.ErrValidation.Error())+2:]
		}
		return msg
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Please log in first."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, domain.ErrNotFound):
		return "Not found. It may have been deleted."
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, domain.ErrMutationInFlight):
		return "Still working on your previous request for this item."
	case errors.Is(err, domain.ErrNetwork):
		return "Could not reach the server. Check your connection."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer."
	}
	return err.Error()
}
