package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/edustack/sessionkit/internal/bootstrap"
	"github.com/edustack/sessionkit/internal/domain/session"
	"github.com/edustack/sessionkit/internal/service"
)

type commandFn func(ctx context.Context, mgr *service.Manager, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

func main() {
	ctx := context.Background()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sessionctl: %v\n", err)
		os.Exit(1)
	}
	logger := bootstrap.InitLogger(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2)
	}

	mgr, err := bootstrap.BuildManager(bootstrap.SessionConfig{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "build session manager failed", "error", err)
		os.Exit(1)
	}

	if err := mgr.Initialize(ctx); err != nil {
		logger.WarnContext(ctx, "session restore failed", "error", err)
	}

	if err := cmd.run(ctx, mgr, os.Args[2:]); err != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", err)
		os.Exit(1)
	}
}

func commands() map[string]command {
	cmds := []command{
		{"login", "log in with email (password read from terminal)", runLogin},
		{"status", "show the current session state", runStatus},
		{"switch-role", "switch the active role", runSwitchRole},
		{"refresh", "refresh the session token", runRefresh},
		{"permissions", "list permissions granted to the current user", runPermissions},
		{"logout", "log out and clear the local session", runLogout},
	}
	byName := make(map[string]command, len(cmds))
	for _, c := range cmds {
		byName[c.name] = c
	}
	return byName
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: sessionctl <command> [args]")
	fmt.Fprintln(os.Stderr)
	for _, name := range []string{"login", "status", "switch-role", "refresh", "permissions", "logout"} {
		c := commands()[name]
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.description)
	}
}

func runLogin(ctx context.Context, mgr *service.Manager, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sessionctl login <email>")
	}
	email := args[0]

	fmt.Fprint(os.Stderr, "password: ")
	raw, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	user := mgr.Login(ctx, email, strings.TrimRight(raw, "\r\n"))
	if user == nil {
		return fmt.Errorf("login failed: %s", mgr.State().Err)
	}

	fmt.Printf("logged in as %s (active role: %s)\n", user.Email, user.ActiveRole)
	return nil
}

func runStatus(_ context.Context, mgr *service.Manager, _ []string) error {
	state := mgr.State()
	if !state.Authenticated() {
		fmt.Println("not logged in")
		return nil
	}
	u := state.User
	fmt.Printf("user:        %s\n", u.Email)
	fmt.Printf("active role: %s\n", u.ActiveRole)
	fmt.Printf("roles:       %s\n", joinRoles(u.Roles))
	if state.Err != "" {
		fmt.Printf("last error:  %s\n", state.Err)
	}
	return nil
}

func runSwitchRole(ctx context.Context, mgr *service.Manager, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sessionctl switch-role <role>")
	}
	role, ok := session.ParseRole(args[0])
	if !ok {
		return fmt.Errorf("unknown role %q (valid: %s)", args[0], joinRoles(session.AllRoles()))
	}

	user := mgr.SwitchRole(ctx, role)
	if user == nil {
		return fmt.Errorf("role switch failed: %s", mgr.State().Err)
	}
	fmt.Printf("active role is now %s\n", user.ActiveRole)
	return nil
}

func runRefresh(ctx context.Context, mgr *service.Manager, _ []string) error {
	creds, err := mgr.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if creds.ExpiresAt.IsZero() {
		fmt.Println("token refreshed")
	} else {
		fmt.Printf("token refreshed, valid until %s\n", creds.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runPermissions(ctx context.Context, mgr *service.Manager, _ []string) error {
	perms, err := mgr.Permissions(ctx)
	if err != nil {
		return err
	}
	for _, p := range perms {
		fmt.Println(p)
	}
	return nil
}

func runLogout(ctx context.Context, mgr *service.Manager, _ []string) error {
	mgr.Logout(ctx)
	fmt.Println("logged out")
	return nil
}

func joinRoles(roles []session.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}
