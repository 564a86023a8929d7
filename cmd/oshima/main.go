// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the oshima CLI, which uploads
// research papers to the Oshima service and retrieves the claims and
// evidence extracted from them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/oshima-client/internal/auth"
	"github.com/pdiddy/oshima-client/internal/config"
	"github.com/pdiddy/oshima-client/internal/console"
	"github.com/pdiddy/oshima-client/internal/history"
	"github.com/pdiddy/oshima-client/internal/httputil"
)

// version is set at build time via ldflags.
var version = "dev"

// errUploadsFailed signals a batch with failures. The summary has already
// been printed, so main only sets the exit code.
var errUploadsFailed = errors.New("one or more uploads failed")

// app holds state shared by all subcommands for one invocation.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	out    *console.Printer

	// local is the credential-free part of the configuration, available
	// after setup.
	local    config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:        viper.New(),
		stdout:   stdout,
		stderr:   stderr,
		out:      console.New(stdout),
		logger:   slog.New(slog.DiscardHandler),
		closeLog: func() error { return nil },
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oshima",
		Short: "Upload papers to Oshima and fetch their extracts",
		Long: `oshima is a client for the Oshima research service. It signs in with
your account, uploads PDF papers (one at a time or a whole directory), and
retrieves the claims and evidence the service extracted from them.

Credentials are read from the environment (SUPABASE_URL, SUPABASE_ANON_KEY,
OSHIMA_EMAIL, OSHIMA_PASSWORD), a .env file, an oshima.yaml config file, or
files in .secrets/.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: ./oshima.yaml or ~/.config/oshima/oshima.yaml)")
	pf.String("env-file", ".env", "dotenv file loaded into the environment")
	pf.String("secrets-dir", config.DefaultSecretsDir, "directory holding secret files")
	pf.String("history-db", "", "record uploads in this SQLite database")
	pf.String("log-file", "", "also write JSON logs to this file")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		newUploadCmd(a),
		newUploadDirCmd(a),
		newExtractsCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// setup loads every configuration source and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	envFile, _ := flags.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	secretsDir, _ := flags.GetString("secrets-dir")
	secrets, err := config.LoadSecrets(secretsDir, a.stderr)
	if err != nil {
		return err
	}
	if err := config.Bind(a.v, secrets); err != nil {
		return err
	}

	cfgFile, _ := flags.GetString("config")
	usedFile, err := a.readConfigFile(cfgFile)
	if err != nil {
		return err
	}

	for key, flag := range map[string]string{
		config.KeyLogFile:   "log-file",
		config.KeyHistoryDB: "history-db",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}

	a.local = config.LoadLocal(a.v)
	level := a.local.LogLevel
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger, closeLog, err := config.SetupLogger(a.stderr, a.local.LogFile, level)
	if err != nil {
		return err
	}
	a.logger, a.closeLog = logger, closeLog

	if usedFile != "" {
		a.logger.Info("using config file", "path", usedFile)
	}
	if len(secrets) > 0 {
		keys := make([]string, 0, len(secrets))
		for k := range secrets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		a.logger.Debug("loaded secrets", "keys", keys)
	}
	return nil
}

// readConfigFile reads the YAML config file, returning its path. Without
// an explicit file, a missing oshima.yaml is not an error.
func (a *app) readConfigFile(cfgFile string) (string, error) {
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("oshima")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "oshima"))
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return a.v.ConfigFileUsed(), nil
}

// authenticate signs in and returns the bearer token.
func (a *app) authenticate(ctx context.Context, cfg config.Config) (string, error) {
	a.out.Line("Authenticating as %s...", cfg.Credentials.Email)
	token, err := auth.Authenticate(ctx, httputil.NewClient(cfg.AuthHTTP()), cfg.Credentials, a.logger)
	if err != nil {
		return "", err
	}
	a.out.Success("Authenticated successfully")
	return token, nil
}

// openHistory opens the history store, or returns nil when it is disabled.
func (a *app) openHistory(cfg config.Config) (*history.Store, error) {
	if cfg.HistoryDB == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening upload history: %w", err)
	}
	a.logger.Debug("upload history enabled", "path", cfg.HistoryDB)
	return store, nil
}

// printError reports err on stdout in terms the user can act on.
func (a *app) printError(err error) {
	p := a.out

	var missing *config.MissingError
	var status *httputil.StatusError
	switch {
	case errors.Is(err, errUploadsFailed):
		return
	case errors.As(err, &missing):
		p.Failure("Missing required environment variables:")
		for _, v := range missing.Vars {
			p.Line("   - %s", v)
		}
		p.Blank()
		p.Line("Create a .env file with:")
		p.Line("  OSHIMA_API_URL=%s", config.DefaultAPIURL)
		p.Line("  SUPABASE_URL=https://your-project.supabase.co")
		p.Line("  SUPABASE_ANON_KEY=your-anon-key")
		p.Line("  OSHIMA_EMAIL=your@email.com")
		p.Line("  OSHIMA_PASSWORD=your-password")
	case errors.Is(err, auth.ErrAuthentication) && errors.As(err, &status):
		p.Failure("Authentication failed: %d", status.StatusCode)
		p.Line("Response: %s", status.Body)
	case errors.As(err, &status):
		p.Failure("HTTP Error: %s request returned %d", status.Op, status.StatusCode)
		p.Line("   Status: %d", status.StatusCode)
		p.Line("   Response: %s", status.Body)
	default:
		p.Failure("Error: %v", err)
	}
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if cerr := a.closeLog(); cerr != nil {
		fmt.Fprintf(stderr, "closing log file: %v\n", cerr)
	}
	if err == nil {
		return 0
	}
	a.printError(err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
