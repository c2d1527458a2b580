// Command adduser registers an account directly against the configured
// database, without going through the HTTP API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tallyhq/tally/internal/tally/app"
	"golang.org/x/term"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg app.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username (will prompt if omitted)")
	email := fs.String("email", "", "Email (will prompt if omitted)")
	passwordFlag := fs.String("password", "", "Password (will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(stdin)

	if *username == "" {
		v, err := prompt(in, stdout, "Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		*username = v
	}
	if *email == "" {
		v, err := prompt(in, stdout, "Email: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		*email = v
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin, in)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	logger := app.NewLogger(cfg)
	db, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := app.NewSessionService(cfg, db)
	if err != nil {
		return err
	}

	res, err := sessions.Register(ctx, *username, password, *email)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", res.User.Username, res.User.ID)
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(stdin io.Reader, in *bufio.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests.
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
