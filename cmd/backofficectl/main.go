package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/lending-backoffice/cmd/backofficectl/cli"
	"github.com/odyssey-erp/lending-backoffice/internal/client"
)

type config struct {
	APIURL    string `envconfig:"BACKOFFICE_URL" default:"http://localhost:8080"`
	TokenFile string `envconfig:"BACKOFFICE_TOKEN_FILE"`
	Password  string `envconfig:"BACKOFFICE_PASSWORD"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
}

const usage = `usage: backofficectl <command> [flags]

commands:
  login --email <email>        sign in (password from BACKOFFICE_PASSWORD or --password)
  logout                       forget the stored token
  whoami                       show the signed in identity
  periods [list|current|open|close|lock] [--year --month --id --notes --json]
  journal post --id <id>       post a balanced draft
  journal void --id <id> --reason <text> [--date YYYY-MM-DD]
  ledger --account <id> [--from --to --cost-center --json --export xlsx|pdf --out dir]
  jobs trigger <task>          enqueue gl:integrity, costcenters:sync or idempotency:cleanup
  jobs stats                   show queue counters
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	_ = godotenv.Load()
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, rest := args[0], args[1:]
	if cmd == "jobs" {
		return runJobs(ctx, cfg, rest, stdout, stderr)
	}

	store, err := client.NewFileTokenStore(cfg.TokenFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "token store: %v\n", err)
		return 1
	}
	session := client.NewSession(store)
	if err := session.Hydrate(); err != nil {
		_, _ = fmt.Fprintf(stderr, "token store: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	api, err := client.New(cfg.APIURL, session, client.WithLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	runner := &cli.Runner{Client: api, Stdout: stdout, Stderr: stderr}

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.SetOutput(stderr)
		email := fs.String("email", "", "account email")
		password := fs.String("password", cfg.Password, "account password")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		return runner.Login(ctx, *email, *password)
	case "logout":
		return runner.Logout()
	case "whoami":
		return runner.WhoAmI(ctx)
	case "periods":
		opts := cli.PeriodsOptions{}
		if len(rest) > 0 && rest[0] != "" && rest[0][0] != '-' {
			opts.Action, rest = rest[0], rest[1:]
		}
		fs := flag.NewFlagSet("periods", flag.ContinueOnError)
		fs.SetOutput(stderr)
		fs.Int64Var(&opts.ID, "id", 0, "period id")
		fs.IntVar(&opts.Year, "year", 0, "fiscal year")
		fs.IntVar(&opts.Month, "month", 0, "month 1-12")
		fs.StringVar(&opts.Notes, "notes", "", "notes")
		fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		return runner.Periods(ctx, opts)
	case "journal":
		if len(rest) == 0 {
			_, _ = fmt.Fprint(stderr, usage)
			return 2
		}
		action := rest[0]
		fs := flag.NewFlagSet("journal", flag.ContinueOnError)
		fs.SetOutput(stderr)
		id := fs.Int64("id", 0, "entry id")
		reason := fs.String("reason", "", "void reason")
		voidDate := fs.String("date", "", "reversal date YYYY-MM-DD (defaults to today)")
		if err := fs.Parse(rest[1:]); err != nil {
			return 2
		}
		switch action {
		case "post":
			return runner.PostJournal(ctx, *id)
		case "void":
			return runner.VoidJournal(ctx, *id, *reason, *voidDate)
		}
		_, _ = fmt.Fprintf(stderr, "journal: unknown action %q\n", action)
		return 2
	case "ledger":
		opts := cli.LedgerOptions{}
		fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
		fs.SetOutput(stderr)
		fs.Int64Var(&opts.AccountID, "account", 0, "account id")
		fs.Int64Var(&opts.CostCenterID, "cost-center", 0, "cost center id")
		fs.StringVar(&opts.From, "from", "", "from date YYYY-MM-DD")
		fs.StringVar(&opts.To, "to", "", "to date YYYY-MM-DD")
		fs.StringVar(&opts.Export, "export", "", "xlsx or pdf")
		fs.StringVar(&opts.OutputDir, "out", ".", "export directory")
		fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		return runner.Ledger(ctx, opts)
	}
	_, _ = fmt.Fprint(stderr, usage)
	return 2
}

func runJobs(ctx context.Context, cfg config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	jobsCLI.Stdout, jobsCLI.Stderr = stdout, stderr
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs: close: %v\n", err)
		}
	}()
	switch args[0] {
	case "trigger":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		return jobsCLI.TriggerCommand(ctx, name)
	case "stats":
		return jobsCLI.StatsCommand()
	}
	_, _ = fmt.Fprintf(stderr, "jobs: unknown action %q\n", args[0])
	return 2
}
