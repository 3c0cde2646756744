package cli

import (
	"context"
	"strings"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

func (a *App) sessionCommands() map[string]command {
	return map[string]command{
		"register":     {usage: "register -email E -password P [-name N] [-photo URL]", mutates: true, run: a.register},
		"login":        {usage: "login -email E -password P | login E P", mutates: true, run: a.login},
		"google-login": {usage: "google-login", mutates: true, run: a.googleLogin},
		"logout":       {usage: "logout", mutates: true, run: a.logout},
		"whoami":       {usage: "whoami", run: a.whoami},
		"chat":         {usage: "chat <message> | chat -history | chat -reset", run: a.chat},
	}
}

func (a *App) register(ctx context.Context, args []string) error {
	const usage = "register -email E -password P [-name N] [-photo URL]"
	fs := newFlags("register")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	name := fs.String("name", "", "display name")
	photo := fs.String("photo", "", "photo URL")
	if _, err := parse(fs, usage, args); err != nil {
		return err
	}

	id, err := a.svc.Session.Register(ctx, ports.RegisterCmd{
		Email: *email, Password: *password, Name: *name, PhotoURL: *photo,
	})
	if err != nil {
		return err
	}
	a.success("Account created. Welcome, %s!", id.Name())
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	const usage = "login -email E -password P | login E P"
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}
	if *email == "" && len(pos) > 0 {
		*email, pos = pos[0], pos[1:]
	}
	if *password == "" && len(pos) > 0 {
		*password = pos[0]
	}

	id, err := a.svc.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.success("Welcome back, %s!", id.Name())
	return nil
}

func (a *App) googleLogin(ctx context.Context, _ []string) error {
	id, err := a.svc.Session.GoogleLogin(ctx)
	if err != nil {
		return err
	}
	a.success("Signed in with Google as %s.", id.Name())
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.svc.Session.LogOut(ctx); err != nil {
		return err
	}
	a.success("Signed out.")
	return nil
}

func (a *App) whoami(context.Context, []string) error {
	snap := a.svc.Session.Snapshot()
	switch {
	case snap.State == domain.StateInitializing:
		a.printf("⏳ Checking your session...\n")
	case snap.User == nil:
		a.printf("Not signed in. Use `login` or `register`.\n")
	default:
		u := snap.User
		a.printf("%s <%s> via %s\n", u.Name(), u.Email, u.Provider)
		if snap.Loading {
			a.printf("⏳ Finishing sign-in with the server...\n")
		}
	}
	return nil
}

func (a *App) chat(ctx context.Context, args []string) error {
	const usage = "chat <message> | chat -history | chat -reset"
	fs := newFlags("chat")
	history := fs.Bool("history", false, "show the conversation")
	reset := fs.Bool("reset", false, "start over")
	pos, err := parse(fs, usage, args)
	if err != nil {
		return err
	}

	switch {
	case *reset:
		a.svc.Chat.Reset()
		a.success("Conversation cleared.")
		return nil
	case *history:
		msgs := a.svc.Chat.History()
		if len(msgs) == 0 {
			a.empty("No messages yet. Ask the assistant anything.")
			return nil
		}
		for _, m := range msgs {
			a.printf("%s %s\n", speaker(m.Role), m.Text)
		}
		return nil
	}

	if err := need(pos, 1, usage); err != nil {
		return err
	}
	a.printf("🤖 Thinking...\n")
	reply, err := a.svc.Chat.Send(ctx, strings.Join(pos, " "))
	if err != nil {
		return err
	}
	a.printf("%s %s\n", speaker(reply.Role), reply.Text)
	return nil
}

func speaker(r domain.ChatRole) string {
	if r == domain.RoleModel {
		return "🤖"
	}
	return "🙂"
}
