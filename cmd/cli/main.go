package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirasaad/paddock/infra/initializer"
	"github.com/amirasaad/paddock/pkg/app"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/google/uuid"
)

const usage = `Usage: paddock-cli <command> [arguments]
Commands:
  reconcile <league_id>                              replay a league's log and report drifted balances
  stats <league_id>                                  print a league's finance summary
  token <user_id> <username> [league_id=team_id...]  sign a session token
  bootstrap-admin <user_id> <username>               make the first administrator`

// errDrift is returned by reconcile when stored balances disagree with the log.
var errDrift = errors.New("balances drifted from the transaction log")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, usage)
		return nil
	}
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Close() }()
	a := app.New(deps, cfg)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "reconcile":
		leagueID, err := argUUID(rest, 0, "league_id")
		if err != nil {
			return err
		}
		report, err := a.StatsService.Reconcile(ctx, leagueID)
		if err != nil {
			return err
		}
		if err := printJSON(out, report); err != nil {
			return err
		}
		if !report.Consistent() {
			return fmt.Errorf("%w: %d accounts", errDrift, len(report.Drifts))
		}
		return nil
	case "stats":
		leagueID, err := argUUID(rest, 0, "league_id")
		if err != nil {
			return err
		}
		s, err := a.StatsService.LeagueStats(ctx, leagueID)
		if err != nil {
			return err
		}
		return printJSON(out, s)
	case "token":
		userID, err := argUUID(rest, 0, "user_id")
		if err != nil {
			return err
		}
		if len(rest) < 2 {
			return errors.New("usage: token <user_id> <username> [league_id=team_id...]")
		}
		directors, err := parseDirectors(rest[2:])
		if err != nil {
			return err
		}
		token, err := a.AuthService.GenerateToken(userID, rest[1], directors)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, token)
		return nil
	case "bootstrap-admin":
		userID, err := argUUID(rest, 0, "user_id")
		if err != nil {
			return err
		}
		if len(rest) < 2 {
			return errors.New("usage: bootstrap-admin <user_id> <username>")
		}
		u, err := a.PrivilegeService.Bootstrap(ctx, userID, rest[1])
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(out, "An administrator already exists; nothing to do")
			return nil
		}
		fmt.Fprintf(out, "User %s is now %s (version %d)\n", u.ID, u.Role, u.Version)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func argUUID(args []string, i int, name string) (uuid.UUID, error) {
	if len(args) <= i {
		return uuid.Nil, fmt.Errorf("missing %s", name)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func parseDirectors(pairs []string) (map[uuid.UUID]uuid.UUID, error) {
	out := make(map[uuid.UUID]uuid.UUID, len(pairs))
	for _, pair := range pairs {
		league, team, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("directorship %q must be league_id=team_id", pair)
		}
		leagueID, err := uuid.Parse(league)
		if err != nil {
			return nil, fmt.Errorf("invalid league id in %q: %w", pair, err)
		}
		teamID, err := uuid.Parse(team)
		if err != nil {
			return nil, fmt.Errorf("invalid team id in %q: %w", pair, err)
		}
		out[leagueID] = teamID
	}
	return out, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
