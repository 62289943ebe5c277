package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pkgtrim/internal/config"
	"github.com/conn-castle/pkgtrim/internal/messages"
)

var readConfigFileFunc = os.ReadFile

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.ConfigCmdUse,
		Short: messages.ConfigCmdShort,
	}
	cmd.AddCommand(
		newConfigShowCmd(opts),
		newConfigPathCmd(opts),
		newConfigGetCmd(opts),
		newConfigSetCmd(opts),
		newConfigAsInstalledCmd(opts),
	)
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigShowUse,
		Short: messages.ConfigShowShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigPathUse,
		Short: messages.ConfigPathShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func newConfigGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ConfigGetUse,
		Short: messages.ConfigGetShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			value, err := config.Get(cfg, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

func newConfigSetCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   messages.ConfigSetUse,
		Short: messages.ConfigSetShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, opts, dryRun, func(cfg *config.Config) (bool, error) {
				return true, config.Set(cfg, args[0], args[1])
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, messages.ConfigFlagDryRun)
	return cmd
}

func newConfigAsInstalledCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.ConfigAsInstalledUse,
		Short: messages.ConfigAsInstalledShort,
	}

	var addDryRun bool
	add := &cobra.Command{
		Use:   messages.ConfigAsInstalledAdd,
		Short: messages.ConfigAsInstalledAddSh,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, opts, addDryRun, func(cfg *config.Config) (bool, error) {
				changed, err := cfg.AddAsInstalled(args...)
				return len(changed) > 0, err
			})
		},
	}
	add.Flags().BoolVar(&addDryRun, "dry-run", false, messages.ConfigFlagDryRun)

	var removeDryRun bool
	remove := &cobra.Command{
		Use:   messages.ConfigAsInstalledRm,
		Short: messages.ConfigAsInstalledRmSh,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, opts, removeDryRun, func(cfg *config.Config) (bool, error) {
				if len(cfg.RemoveAsInstalled(args...)) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.ConfigAsInstalledUnused)
					return false, nil
				}
				return true, nil
			})
		},
	}
	remove.Flags().BoolVar(&removeDryRun, "dry-run", false, messages.ConfigFlagDryRun)

	cmd.AddCommand(add, remove)
	return cmd
}

// mutateConfig reads the config file as written, applies change and either
// previews the result as a diff or saves it atomically.
func mutateConfig(cmd *cobra.Command, opts *rootOptions, dryRun bool, change func(*config.Config) (bool, error)) error {
	out := cmd.OutOrStdout()
	path, err := opts.resolveConfigPath()
	if err != nil {
		return err
	}
	current, err := readConfigFileFunc(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(messages.ConfigReadFileFmt, path, err)
	}
	cfg, err := config.Read(path)
	if err != nil {
		return err
	}
	changed, err := change(cfg)
	if err != nil {
		return err
	}
	if !changed {
		_, _ = fmt.Fprintln(out, messages.ConfigNoChanges)
		return nil
	}

	if dryRun {
		if err := cfg.Validate(path); err != nil {
			return fmt.Errorf("%w: %w", config.ErrConfigValidation, err)
		}
		diff, _, err := config.Preview(path, current, cfg, config.DefaultDiffMaxLines)
		if err != nil {
			return err
		}
		if diff == "" {
			_, _ = fmt.Fprintln(out, messages.ConfigNoChanges)
			return nil
		}
		_, err = fmt.Fprint(out, diff)
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, messages.ConfigSavedFmt, path)
	return err
}
