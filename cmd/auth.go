package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
	"github.com/ilasdev/ilas/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes the starter configuration file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Infof("wrote %s", path)
	return r.writePlain("✓ Configuration written to %s\n", path)
}

// Login authenticates with flag-supplied credentials, falling back to the
// interactive form when either flag is missing.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
	}

	if creds.Username == "" || creds.Password == "" {
		formCreds, err := ui.RunLoginForm()
		if err != nil {
			return err
		}
		creds = formCreds
	}

	user, err := r.controller.Login(ctx, creds)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writePlain("✓ Logged in as %s\n", user.Username)
}

// Signup registers a new account; when the backend auto-authenticates the
// session is persisted immediately.
func (r *Runner) Signup(ctx context.Context, cmd *cli.Command) error {
	payload := models.SignupPayload{
		Username:  cmd.String("username"),
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		FirstName: cmd.String("name"),
	}

	user, err := r.controller.Signup(ctx, payload)
	if err != nil {
		return err
	}

	if user == nil {
		return r.writePlain("✓ Account created, please login\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writePlain("✓ Account created & logged in as %s\n", user.Username)
}

// Logout clears the persisted session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	r.controller.Logout()
	return r.writePlain("✓ Logged out\n")
}

// Whoami hydrates the persisted session and prints the validated identity.
// Hydration runs here rather than at process startup: whoami is the only
// command that consults the cached user, and the other commands get their
// tokens validated by the transport on every request anyway. A startup
// hydrate would cost every invocation an extra round-trip.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.controller.Hydrate(ctx); err != nil {
		return err
	}

	user := r.controller.CurrentUser()
	if user == nil {
		return r.writePlain("%s", ui.RenderUser(nil))
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writePlain("%s", ui.RenderUser(user))
}

// SessionStatus prints the persisted session state with tokens masked.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	sess := r.store.Get()

	if cmd.Bool("json") {
		status := map[string]any{
			"active": sess.Populated(),
		}
		if sess.User != nil {
			status["username"] = sess.User.Username
			status["role"] = sess.User.Role
		}
		return r.writeJSON(status, true)
	}

	return r.writePlain("%s", ui.RenderSessionStatus(sess))
}

// SessionWatch logs session changes made by other processes until interrupted.
func (r *Runner) SessionWatch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cancel := r.store.Subscribe(func(s session.Session) {
		switch {
		case s.Empty():
			r.logger.Info("session cleared by another process")
		case s.User != nil:
			r.logger.Info("session updated by another process", "username", s.User.Username)
		default:
			r.logger.Info("session updated by another process")
		}
	})
	defer cancel()

	r.logger.Info("watching session store, ctrl+c to stop", "path", r.config.Session.Path)
	<-ctx.Done()
	return nil
}
