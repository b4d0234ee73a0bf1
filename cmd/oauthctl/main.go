package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mkorolev/oauthcore/internal/logger"
)

const usage = `Usage: oauthctl [flags] <command>

Commands:
  create-client <name>       register a client application, prints id and secret
  create-user <username>     register a resource owner (password via -p or USER_PASSWORD)
  revoke <refresh-token>     revoke a token grant
`

func main() {
	ctx := context.Background()

	c := NewConfig()
	if err := c.LoadDotEnv(os.Getwd); err != nil {
		slog.Error("can't read .env file", "error", err.Error())
		os.Exit(1)
	}
	c.LoadEnv(os.Getenv)

	rest, err := c.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("can't parse flags", "error", err.Error())
		os.Exit(2)
	}

	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		slog.Error("can't initialize logger", "error", err.Error())
		os.Exit(1)
	}

	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := NewApp(ctx, c, log)
	if err != nil {
		log.Error("can't initialize app, sorry", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	if err := run(ctx, app, c, rest); err != nil {
		log.Error("command failed", "command", rest[0], "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, app *App, c *Config, args []string) error {
	command, args := args[0], args[1:]

	switch command {
	case "create-client":
		if len(args) != 1 {
			return errors.New("create-client expects exactly one argument: client name")
		}
		return createClient(ctx, app, args[0])

	case "create-user":
		if len(args) != 1 {
			return errors.New("create-user expects exactly one argument: username")
		}
		return createUser(ctx, app, args[0], c.Password)

	case "revoke":
		if len(args) != 1 {
			return errors.New("revoke expects exactly one argument: refresh token")
		}
		return revoke(ctx, app, args[0])

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func createClient(ctx context.Context, app *App, name string) error {
	client, err := app.Registration.RegisterClient(ctx, name)
	if err != nil {
		return err
	}

	// The secret is shown once and stored server side only
	app.log.Info("client created", "id", client.ID, "name", client.Name, "secret", client.Secret)
	return nil
}

func createUser(ctx context.Context, app *App, username string, password string) error {
	if password == "" {
		return errors.New("password must be set via --password flag or USER_PASSWORD env")
	}

	user, err := app.Registration.RegisterUser(ctx, username, password)
	if err != nil {
		return err
	}

	app.log.Info("user created", "id", user.ID, "username", user.Username)
	return nil
}

func revoke(ctx context.Context, app *App, refreshToken string) error {
	token, err := app.OAuth.RevokeToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	if token.RevokedAt == nil {
		app.log.Info("token not found, treated as already revoked")
		return nil
	}

	app.log.Info("token revoked", "id", token.ID, "client_id", token.ClientID, "user_id", token.UserID, "revoked_at", token.RevokedAt)
	return nil
}
