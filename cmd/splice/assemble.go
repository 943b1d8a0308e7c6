package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/composite"
	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/config"
	"github.com/jbweber/splice/internal/discovery"
	"github.com/jbweber/splice/internal/libvirt"
	"github.com/jbweber/splice/internal/loader"
	"github.com/jbweber/splice/internal/publish"
	"github.com/jbweber/splice/internal/storage"
)

// DefaultDeviceSize is the size given to devices passed with --device.
const DefaultDeviceSize = 1 << 30

// assembleOptions holds the assemble command flags.
type assembleOptions struct {
	groupsPath string
	devices    []string
	deviceSize uint64
	shuffle    bool
	seed       uint64
}

var assembleOpts assembleOptions

var assembleCmd = &cobra.Command{
	Use:   "assemble <groups.yaml>",
	Short: "Assemble composite volumes from discovered devices",
	Long: `Assemble composite volumes from the groups declared in a YAML file.

Devices are discovered from the configured source pools and offered to the
groups one by one. A group is assembled and published as soon as every
member has registered. Groups still missing devices are reported as Pending.

With --device the source pools are not read; the given "<pool>/<volume>"
identifiers are registered instead, in order.

Publication:
  memory  Composites live for the duration of the command (default)
  pool    A descriptor ISO per composite is written to the publish pool

Example:
  splice assemble groups.yaml --device data/a --device data/b`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		assembleOpts.groupsPath = args[0]
		if !cmd.Flags().Changed("seed") {
			assembleOpts.seed = uint64(time.Now().UnixNano())
		}
		logger := newLogger(cfg, cmd.ErrOrStderr())
		return runAssemble(cmd.Context(), cfg, assembleOpts, logger, cmd.OutOrStdout())
	},
}

func init() {
	assembleCmd.Flags().StringArrayVar(&assembleOpts.devices, "device", nil, "Register a <pool>/<volume> device instead of reading source pools (repeatable)")
	assembleCmd.Flags().Uint64Var(&assembleOpts.deviceSize, "device-size", DefaultDeviceSize, "Size in bytes of devices given with --device")
	assembleCmd.Flags().BoolVar(&assembleOpts.shuffle, "shuffle", false, "Register devices in random order")
	assembleCmd.Flags().Uint64Var(&assembleOpts.seed, "seed", 0, "Seed for --shuffle (default: random)")
}

// runAssemble loads the groups, registers every device and writes the
// resulting group report to out.
func runAssemble(ctx context.Context, cfg *config.Config, opts assembleOptions, logger *slog.Logger, out io.Writer) error {
	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	groups, err := loader.LoadFromFile(opts.groupsPath)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}

	offline := len(opts.devices) > 0
	if !offline && len(cfg.SourcePools) == 0 {
		return errors.New("no devices: set source_pools in the config or pass --device")
	}

	var mgr *storage.Manager
	if !offline || cfg.Publish.Mode == config.PublishPool {
		var client *libvirt.Client
		client, err = connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClient(client)
		mgr = newStorageManager(client, logger)
	}

	var regs []discovery.Registration
	if offline {
		regs, err = discovery.Static(opts.deviceSize, opts.devices...)
	} else {
		regs, err = discovery.Discover(ctx, mgr, cfg.SourcePools)
	}
	if err != nil {
		return fmt.Errorf("failed to collect devices: %w", err)
	}

	var pub concat.Publisher
	switch cfg.Publish.Mode {
	case config.PublishPool:
		if err := mgr.EnsurePool(ctx, cfg.Publish.Pool, storage.PoolTypeDir, cfg.Publish.Path); err != nil {
			return fmt.Errorf("failed to ensure publish pool: %w", err)
		}
		pub = publish.NewPoolPublisher(mgr, cfg.Publish.Pool, publish.WithPoolLogger(logger))
	default:
		pub = publish.NewTable()
	}

	coord := concat.New(composite.NewBuilder(), pub,
		concat.WithLogger(logger),
		concat.WithMaxGroups(cfg.MaxGroups),
	)
	if _, err := coord.Init(ctx, loader.NewSource(groups...)); err != nil {
		return fmt.Errorf("failed to initialize groups: %w", err)
	}

	// In-memory publications do not outlive the command.
	if cfg.Publish.Mode == config.PublishMemory {
		defer coord.Teardown(context.WithoutCancel(ctx))
	}

	if opts.shuffle {
		logger.Debug("shuffling devices", "seed", opts.seed)
		discovery.Shuffle(regs, rand.New(rand.NewPCG(opts.seed, 0)))
	}

	counts, regErr := discovery.Register(ctx, coord, regs, logger)
	logger.Info("devices registered",
		"devices", len(regs),
		"published", counts[concat.ActionPublished],
		"pending", counts[concat.ActionPending],
		"ignored", counts[concat.ActionIgnored],
		"abandoned", counts[concat.ActionAbandoned],
	)

	result, err := formatter.FormatGroupList(mergeReport(groups, coord.Report()))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, _ = fmt.Fprint(out, result)

	if regErr != nil {
		return fmt.Errorf("assembly finished with errors: %w", regErr)
	}
	return nil
}

// mergeReport overlays the coordinator's status onto the loaded groups so
// that groups the coordinator never tracked (disabled or too short) are
// reported too. Untracked enabled groups get no phase.
func mergeReport(groups, report []*v1alpha1.ConcatGroup) []*v1alpha1.ConcatGroup {
	byName := make(map[string]*v1alpha1.ConcatGroup, len(report))
	for _, r := range report {
		byName[r.Name] = r
	}

	out := make([]*v1alpha1.ConcatGroup, 0, len(groups))
	for _, g := range groups {
		merged := g.DeepCopy()
		if r, ok := byName[g.Name]; ok {
			merged.Status = r.Status
		} else {
			merged.Status = v1alpha1.ConcatGroupStatus{}
		}
		out = append(out, merged)
	}
	return out
}
