package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/splice/internal/config"
	"github.com/jbweber/splice/internal/loader"
	"github.com/jbweber/splice/internal/naming"
)

var validateCmd = &cobra.Command{
	Use:   "validate <groups.yaml>",
	Short: "Validate a group declaration file",
	Long: `Validate a group declaration file without touching libvirt.

Checks that every group has a unique name, lists each device once and that
no device belongs to more than one group. The loaded groups are printed in
the selected output format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runValidate(cfg, args[0], cmd.OutOrStdout())
	},
}

func runValidate(cfg *config.Config, path string, out io.Writer) error {
	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	groups, err := loader.LoadFromFile(path)
	if err != nil {
		return err
	}

	result, err := formatter.FormatGroupList(groups)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, _ = fmt.Fprint(out, result)

	if cfg.Output == config.OutputTable {
		assemblable := 0
		for _, g := range groups {
			if g.IsAssemblable() {
				assemblable++
			}
		}
		_, _ = fmt.Fprintf(out, "\n✓ %s: %d groups, %d assemblable\n", path, len(groups), assemblable)
	}
	return nil
}

var nameCmd = &cobra.Command{
	Use:   "name <member>...",
	Short: "Print the composite name for a list of members",
	Long: `Print the name a composite of the given members would be published under.

Members may be given as device names or as "<pool>/<volume>" identifiers;
only the volume part contributes to the name.

Example:
  splice name data/alpha data/beta data/gamma`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runName(args, cmd.OutOrStdout())
	},
}

func runName(members []string, out io.Writer) error {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m
		if strings.Contains(m, naming.IDSeparator) {
			_, vol, err := naming.ParseDeviceID(m)
			if err != nil {
				return err
			}
			names[i] = vol
		}
	}

	name, err := naming.CompositeName(names)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, name)
	return nil
}
