// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number",
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Results per page",
			Value: 20,
		},
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Search query",
		},
		jsonFlag(),
	}
}

// setupCommand initializes the local configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a starter config.toml in the working directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path for the configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// loginCommand authenticates and persists the session.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate against the portal and persist the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username or email (omit for the interactive form)",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (omit for the interactive form)",
			},
			jsonFlag(),
		},
		Action: r.Login,
	}
}

// signupCommand registers a new account.
func signupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Register a new portal account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Username",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Email address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Password",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "First name",
			},
			jsonFlag(),
		},
		Action: r.Signup,
	}
}

// logoutCommand ends the session everywhere this store is shared.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the persisted session",
		Action: r.Logout,
	}
}

// whoamiCommand validates the session and prints the current identity.
func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Validate the persisted session and show the current user",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Whoami,
	}
}

// sessionCommand groups session inspection operations.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Inspect the persisted session",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show session state without token material",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SessionStatus,
			},
			{
				Name:   "watch",
				Usage:  "Log session changes made by other processes until interrupted",
				Action: r.SessionWatch,
			},
		},
	}
}

// booksCommand lists library books.
func booksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "books",
		Usage: "Library book operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List books",
				Flags:  listFlags(),
				Action: r.BooksList,
			},
		},
	}
}

// membersCommand lists library members (admin only on the backend).
func membersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "members",
		Usage: "Library member operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List members",
				Flags:  listFlags(),
				Action: r.MembersList,
			},
		},
	}
}

// transactionsCommand lists the caller's borrow/return history.
func transactionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "transactions",
		Aliases: []string{"txns"},
		Usage:   "Borrow/return transaction operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List transactions",
				Flags:  listFlags(),
				Action: r.TransactionsList,
			},
		},
	}
}
