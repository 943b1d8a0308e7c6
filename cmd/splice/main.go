package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbweber/splice/internal/config"
	"github.com/jbweber/splice/internal/libvirt"
	"github.com/jbweber/splice/internal/output"
	"github.com/jbweber/splice/internal/storage"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath   string
	logLevel     string
	outputFormat string
	noHeaders    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "splice",
	Short: "Splice - composite volume assembly tool",
	Long: `Splice concatenates storage volumes into composite volumes.

Groups are declared in a YAML file. Each group names the member devices of
one composite in order. Devices are discovered from libvirt storage pools
(or given on the command line) and offered to the groups one at a time; a
group whose members have all arrived is assembled, named after its members
and published.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the splice configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: table, yaml, json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "Omit headers in table output")

	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(testConnCmd)
}

// loadConfig loads the configuration file named by --config and applies the
// global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if outputFormat != "" {
		cfg.Output = outputFormat
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates the text logger used by every command. Logs go to w so
// that command output stays parseable.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func newFormatter(cfg *config.Config) (output.Formatter, error) {
	if err := output.ValidateFormat(cfg.Output); err != nil {
		return nil, err
	}
	return output.NewFormatter(output.Options{
		Format:    output.Format(cfg.Output),
		NoHeaders: noHeaders,
	})
}

// connect opens the libvirt connection described by cfg.
func connect(ctx context.Context, cfg *config.Config) (*libvirt.Client, error) {
	client, err := libvirt.ConnectWithContext(ctx, cfg.Libvirt.Socket, cfg.Libvirt.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	return client, nil
}

func closeClient(client *libvirt.Client) {
	if closeErr := client.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
	}
}

// newStorageManager creates a storage manager that owns new pools and
// volumes as the QEMU user.
func newStorageManager(client *libvirt.Client, logger *slog.Logger) *storage.Manager {
	owner, err := storage.ResolveOwnership(storage.QEMUConfPath)
	if err != nil {
		logger.Warn("using default volume ownership", "uid", owner.UID, "gid", owner.GID, "error", err)
	}
	return storage.NewManager(client.Libvirt(), storage.WithOwnership(owner))
}

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long: `Test connectivity to the libvirt daemon and display version information.

Also reports the state of the configured source pools and publish pool.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		_, _ = fmt.Fprintln(out, "Testing libvirt connection...")

		client, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClient(client)

		_, _ = fmt.Fprintln(out, "✓ Connected to libvirt daemon")

		v, err := client.Version()
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		_, _ = fmt.Fprintf(out, "✓ Libvirt version: %s\n", v)

		hostname, err := client.Libvirt().ConnectGetHostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		_, _ = fmt.Fprintf(out, "✓ Hypervisor hostname: %s\n", hostname)

		uri, err := client.Libvirt().ConnectGetUri()
		if err != nil {
			return fmt.Errorf("failed to get connection URI: %w", err)
		}
		_, _ = fmt.Fprintf(out, "✓ Connection URI: %s\n", uri)

		mgr := newStorageManager(client, newLogger(cfg, cmd.ErrOrStderr()))
		pools := append([]string(nil), cfg.SourcePools...)
		if cfg.Publish.Mode == config.PublishPool {
			pools = append(pools, cfg.Publish.Pool)
		}
		for _, name := range pools {
			info, err := mgr.GetPoolInfo(ctx, name)
			if err != nil {
				_, _ = fmt.Fprintf(out, "✗ Pool %s: %v\n", name, err)
				continue
			}
			_, _ = fmt.Fprintf(out, "✓ Pool %s: %s, %.1fGB available\n", name, info.State, info.AvailableGB())
		}

		_, _ = fmt.Fprintln(out, "\nConnection test successful!")
		return nil
	},
}
