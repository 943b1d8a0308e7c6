package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jbweber/splice/internal/config"
	"github.com/jbweber/splice/internal/descriptor"
	"github.com/jbweber/splice/internal/naming"
	"github.com/jbweber/splice/internal/publish"
	"github.com/jbweber/splice/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published composite volumes",
	Long: `List the descriptor volumes in the publish pool.

Each descriptor volume is one composite published with publish.mode "pool".

Output formats:
  -o table  Human-readable table (default)
  -o yaml   YAML documents
  -o json   JSON array`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		formatter, err := newFormatter(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClient(client)

		mgr := newStorageManager(client, newLogger(cfg, cmd.ErrOrStderr()))
		if err := mgr.RefreshPool(ctx, cfg.Publish.Pool); err != nil {
			return fmt.Errorf("failed to refresh publish pool: %w", err)
		}
		vols, err := mgr.ListVolumes(ctx, cfg.Publish.Pool)
		if err != nil {
			return fmt.Errorf("failed to list volumes: %w", err)
		}

		result, err := formatter.FormatVolumeList(descriptorVolumes(vols))
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), result)
		return nil
	},
}

// descriptorVolumes filters vols down to descriptor volumes.
func descriptorVolumes(vols []storage.VolumeInfo) []storage.VolumeInfo {
	out := make([]storage.VolumeInfo, 0, len(vols))
	for _, v := range vols {
		if naming.IsDescriptorVolume(v.Name) {
			out = append(out, v)
		}
	}
	return out
}

var removeCmd = &cobra.Command{
	Use:   "remove <composite-name>",
	Short: "Remove a published composite volume",
	Long: `Remove the descriptor volume of a composite from the publish pool.

The name may be given with or without the .iso extension.

Example:
  splice remove alpha-beta-concat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(args[0], naming.DescriptorExt)
		if !naming.IsCompositeName(name) {
			return fmt.Errorf("%q is not a composite volume name", args[0])
		}

		ctx := cmd.Context()
		client, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClient(client)

		logger := newLogger(cfg, cmd.ErrOrStderr())
		pub := publish.NewPoolPublisher(newStorageManager(client, logger), cfg.Publish.Pool, publish.WithPoolLogger(logger))
		if err := pub.Remove(ctx, name); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s from pool %s\n", name, cfg.Publish.Pool)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <descriptor.iso>",
	Short: "Show the layout stored in a descriptor image",
	Long: `Show the layout of a composite volume from its descriptor image.

The image is the file backing a descriptor volume, e.g. a file in the
publish pool directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runInspect(cfg, args[0], cmd.OutOrStdout())
	},
}

func runInspect(cfg *config.Config, path string, out io.Writer) error {
	format, err := storage.DetectFileFormat(path)
	if err != nil {
		return err
	}
	if format != storage.VolumeFormatISO {
		return fmt.Errorf("%s is not an ISO image (detected %s)", path, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	layout, err := descriptor.ReadISO(f)
	if err != nil {
		return err
	}

	switch cfg.Output {
	case config.OutputYAML:
		data, err := layout.Marshal()
		if err != nil {
			return err
		}
		_, _ = out.Write(data)
	case config.OutputJSON:
		data, err := json.MarshalIndent(layout, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(data))
	default:
		writeLayoutTable(out, layout)
	}
	return nil
}

func writeLayoutTable(out io.Writer, l descriptor.Layout) {
	_, _ = fmt.Fprintf(out, "Name:    %s\n", l.Name)
	if l.UID != "" {
		_, _ = fmt.Fprintf(out, "UID:     %s\n", l.UID)
	}
	if l.Parent != "" {
		_, _ = fmt.Fprintf(out, "Parent:  %s\n", l.Parent)
	}
	_, _ = fmt.Fprintf(out, "Size:    %d\n", l.Size)
	if l.EraseSize != 0 {
		_, _ = fmt.Fprintf(out, "Erase:   %d\n", l.EraseSize)
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if !noHeaders {
		_, _ = fmt.Fprintln(w, "MEMBER\tOFFSET\tSIZE")
	}
	for _, s := range l.Spans {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", s.Member, s.Offset, s.Size)
	}
	_ = w.Flush()
}
