// Command issue-token mints a bearer token for a user id, signed with the
// server's JWT settings. Useful for local testing against the API.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/HammerMeetNail/pacebook/internal/config"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var user string
	flagSet := pflag.NewFlagSet("issue-token", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&user, "user", "", "user id the token authenticates as")
	ttl := flagSet.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime (defaults to JWT_TTL)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if user == "" {
		return errors.New("--user is required")
	}
	userID, err := uuid.Parse(user)
	if err != nil {
		return fmt.Errorf("invalid --user %q: %w", user, err)
	}
	if *ttl <= 0 {
		return fmt.Errorf("invalid --ttl %s", *ttl)
	}

	token, err := services.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Issue(userID, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
