// ABOUTME: Command-line client for triple-store servers
// ABOUTME: Root command, global flags and profile resolution over internal/config

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389/agclient/internal/config"
	"github.com/2389/agclient/internal/logging"
	"github.com/2389/agclient/pkg/agclient"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	server     string
	catalog    string
	repo       string
	user       string
	password   string
	env        string
	timeout    time.Duration
	logLevel   string
	logFormat  string
}

// app carries the resolved profile and I/O streams into the commands.
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
	// readPassword prompts for a password; nil disables prompting.
	readPassword func(prompt string) (string, error)
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		a.readPassword = terminalPassword
	}

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "agclient",
		Short: "Work with triple-store repositories over HTTP",
		Long: `agclient talks to a triple-store server's REST protocol: catalogs,
repositories, statements, SPARQL queries, namespaces and indices.

Settings come from a profile file (see --config) and are overridden by flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.loadProfile(cmd) },
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	f := root.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", "", "profile file (default "+config.DefaultPath()+")")
	f.StringVar(&a.flags.server, "server", "", "server base URL")
	f.StringVar(&a.flags.catalog, "catalog", "", "catalog name, / for the root catalog")
	f.StringVarP(&a.flags.repo, "repo", "r", "", "repository name")
	f.StringVarP(&a.flags.user, "user", "u", "", "user for HTTP basic auth")
	f.StringVar(&a.flags.password, "password", "", "password for HTTP basic auth (prompted when omitted)")
	f.StringVar(&a.flags.env, "env", "", "environment for queries and namespaces")
	f.DurationVar(&a.flags.timeout, "timeout", 0, "per-request timeout")
	f.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&a.flags.logFormat, "log-format", "", "text or json")

	root.AddCommand(
		newCatalogsCmd(a),
		newReposCmd(a),
		newSizeCmd(a),
		newContextsCmd(a),
		newQueryCmd(a),
		newPrologCmd(a),
		newStatementsCmd(a),
		newLoadCmd(a),
		newBlankNodesCmd(a),
		newIndicesCmd(a),
		newNamespacesCmd(a),
		newEnvsCmd(a),
		newFreeTextCmd(a),
		newMappingsCmd(a),
		newSamplesCmd(a),
		newSandboxCmd(a),
		newVersionCmd(a),
	)
	return root
}

// loadProfile reads the profile file and applies flag overrides.
func (a *app) loadProfile(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.Load(a.flags.configPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultPath())
	}
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.Server.URL = a.flags.server
	}
	if changed("catalog") {
		cfg.Server.Catalog = a.flags.catalog
	}
	if changed("repo") {
		cfg.Repository.Name = a.flags.repo
	}
	if changed("user") {
		cfg.Auth.User = a.flags.user
	}
	if changed("password") {
		cfg.Auth.Password = a.flags.password
	}
	if changed("env") {
		cfg.Repository.Environment = a.flags.env
	}
	if changed("timeout") {
		cfg.SetTimeout(a.flags.timeout)
	}
	if changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = a.flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	if cfg.Auth.User != "" && cfg.Auth.Password == "" && a.readPassword != nil {
		pw, err := a.readPassword(fmt.Sprintf("Password for %s: ", cfg.Auth.User))
		if err != nil {
			return err
		}
		cfg.Auth.Password = pw
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.Logging, a.errOut)
	return nil
}

func (a *app) conn() *agclient.Conn {
	opts := []agclient.Option{
		agclient.WithTimeout(a.cfg.Server.Timeout),
		agclient.WithLogger(a.logger.With("component", "agclient")),
	}
	if a.cfg.Auth.User != "" {
		opts = append(opts, agclient.WithBasicAuth(a.cfg.Auth.User, a.cfg.Auth.Password))
	}
	return agclient.NewConn(opts...)
}

func (a *app) server() (*agclient.Conn, *agclient.Server) {
	conn := a.conn()
	return conn, agclient.NewServer(conn, a.cfg.Server.URL)
}

func (a *app) catalog() (*agclient.Conn, *agclient.Catalog) {
	conn, srv := a.server()
	return conn, srv.OpenCatalog(a.cfg.Server.Catalog)
}

// repository opens the profile's repository with its environment selected.
func (a *app) repository() (*agclient.Conn, *agclient.Repository, error) {
	if a.cfg.Repository.Name == "" {
		return nil, nil, errors.New("no repository selected (use --repo or [repository] name)")
	}
	conn, cat := a.catalog()
	repo := cat.Repository(a.cfg.Repository.Name)
	repo.SetEnvironment(a.cfg.Repository.Environment)
	return conn, repo, nil
}

// withRepository runs fn against the profile's repository.
func (a *app) withRepository(fn func(repo *agclient.Repository) error) error {
	conn, repo, err := a.repository()
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(repo)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.printf("agclient %s\n", agclient.Version)
			return nil
		},
	}
}

// contextValues maps --context flags onto Contexts. "null" is the default graph.
func contextValues(values []string) agclient.Contexts {
	values = append([]string(nil), values...)
	for i, v := range values {
		if v != "null" {
			values[i] = parseTerm(v)
		}
	}
	switch len(values) {
	case 0:
		return agclient.NoContext()
	case 1:
		return agclient.SingleContext(values[0])
	default:
		return agclient.MultiContext(values...)
	}
}

// parseTerm accepts an N-Triples term or a bare IRI, which it wraps in <>.
func parseTerm(s string) string {
	if s == "" || strings.HasPrefix(s, "<") || strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "_:") {
		return s
	}
	return agclient.URI(s)
}
