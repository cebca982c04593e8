// Command pkctl is a CLI client for the policy-keeper HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/policy-keeper/internal/client"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const defaultServer = "http://localhost:8080"

// ---- config store ----

type targetFile struct {
	Server string `json:"server"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "pkctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pkctl")
}

func targetPath() string { return filepath.Join(cfgDir(), "target.json") }

func saveTarget(server string) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(targetFile{Server: server}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(targetPath(), append(b, '\n'), 0o600)
}

func loadTarget() (string, error) {
	b, err := os.ReadFile(targetPath())
	if err != nil {
		return "", err
	}
	var tf targetFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.Server == "" {
		return "", errors.New("empty server in " + targetPath())
	}
	return tf.Server, nil
}

// resolveServer picks --server, then $PK_SERVER, then the saved target, then the default.
func resolveServer(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("PK_SERVER"); v != "" {
		return v
	}
	if v, err := loadTarget(); err == nil {
		return v
	}
	return defaultServer
}

// ---- app ----

type app struct {
	server  string
	timeout time.Duration
	verbose bool

	out    io.Writer
	in     io.Reader
	log    *zap.Logger
	client *client.Client
}

func (a *app) api() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := client.New(resolveServer(a.server), client.WithTimeout(a.timeout))
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readAll reads a request body from a path or "-" for stdin.
func (a *app) readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(a.in)
	}
	return os.ReadFile(p)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pkctl",
		Short:         "Manage clients and insurance policies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.out == nil {
				a.out = cmd.OutOrStdout()
			}
			if a.in == nil {
				a.in = cmd.InOrStdin()
			}
			if !a.verbose {
				a.log = zap.NewNop()
				return nil
			}
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.server, "server", "s", "", "API base URL (default $PK_SERVER, saved target or "+defaultServer+")")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 15*time.Second, "per-command timeout")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newVersionCmd(a),
		newTargetCmd(a),
		newClientsCmd(a),
		newPoliciesCmd(a),
		newCustomerCmd(a),
		newDashboardCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.out, "pkctl %s (%s)\n", version, buildDate)
			return err
		},
	}
}

func newTargetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "target [url]",
		Short: "Show or save the default API base URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, err := fmt.Fprintln(a.out, resolveServer(a.server))
				return err
			}
			if _, err := client.New(args[0]); err != nil {
				return err
			}
			if err := saveTarget(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.out, "saved %s\n", args[0])
			return err
		},
	}
}

// describe renders API errors with their field details, one per line.
func describe(err error) string {
	var ae *client.APIError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "error (%d): %s", ae.Status, ae.Message)
	for _, k := range sortedKeys(ae.Details) {
		fmt.Fprintf(&b, "\n  %s: %s", k, ae.Details[k])
	}
	return b.String()
}

func main() {
	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}
