package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/pkgtrim/internal/config"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/scan"
	"github.com/conn-castle/pkgtrim/internal/snapshot"
	"github.com/conn-castle/pkgtrim/internal/terminal"
	"github.com/conn-castle/pkgtrim/internal/warnings"
)

var (
	defaultConfigPath = config.DefaultPath
	loadSnapshotFunc  = snapshot.Load
	isTerminalStream  = func(stream any) bool {
		f, ok := stream.(*os.File)
		return ok && terminal.IsTerminal(f)
	}
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("version", "v", false, messages.RootVersionFlag)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", messages.RootFlagConfig)
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, messages.RootFlagQuiet)

	cmd.AddCommand(
		newListCmd(opts),
		newRemoveCmd(opts),
		newConfigCmd(opts),
		newDoctorCmd(opts),
		newMcpCmd(opts),
	)
	return cmd
}

// resolveConfigPath returns the --config path, or the default location.
func (o *rootOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return config.ExpandPath(o.configPath)
	}
	return defaultConfigPath()
}

// loadConfig loads the effective configuration.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// loadSnapshot loads the config and a classified cache snapshot. Scan
// progress is drawn on stderr when it is a terminal.
func (o *rootOptions) loadSnapshot(cmd *cobra.Command) (*snapshot.Snapshot, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	stderr := cmd.ErrOrStderr()
	var snapOpts snapshot.Options
	showProgress := isTerminalStream(stderr)
	if showProgress {
		snapOpts.Progress = func(p scan.Progress) {
			_, _ = fmt.Fprintf(stderr, messages.ProgressScanFmt, p.Loaded)
		}
	}
	snap, err := loadSnapshotFunc(cmd.Context(), cfg, snapOpts)
	if showProgress {
		_, _ = fmt.Fprint(stderr, messages.ProgressDone)
	}
	return snap, err
}

// printWarnings writes warnings to out after noise control.
func (o *rootOptions) printWarnings(out io.Writer, items []warnings.Warning) {
	for _, w := range warnings.ApplyNoiseControl(items, o.quiet) {
		_, _ = fmt.Fprintln(out, color.YellowString("%s", w.String()))
		_, _ = fmt.Fprintln(out)
	}
}
