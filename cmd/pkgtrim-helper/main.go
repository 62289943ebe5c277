// Command pkgtrim-helper is the privileged D-Bus service that removes cached
// package files on behalf of pkgtrim after a polkit check.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/conn-castle/pkgtrim/internal/helper"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/removal"
)

// Version is overridden at build time.
var Version = "dev"

// busConn is the system bus connection the helper serves on.
type busConn interface {
	helper.BusOwner
	helper.Emitter
	Close() error
}

var (
	connectFunc = connectSystemBus
	serveFunc   = helper.Serve
)

func main() {
	runMain(os.Args, os.Stderr, os.Exit)
}

// runMain executes the helper, exiting with 1 on failure.
func runMain(args []string, stderr io.Writer, exit func(int)) {
	cmd := newRootCmd(stderr)
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	} else {
		cmd.SetArgs([]string{})
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		exit(1)
	}
}

// helperOptions holds the command-line flags.
type helperOptions struct {
	idleTimeout time.Duration
	persist     bool
	logLevel    string
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var opts helperOptions
	cmd := &cobra.Command{
		Use:           messages.HelperUse,
		Short:         messages.HelperShort,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logOut, opts.logLevel)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, logger)
		},
	}
	cmd.Flags().DurationVar(&opts.idleTimeout, "idle-timeout", helper.DefaultIdleTimeout, messages.HelperFlagIdleTimeout)
	cmd.Flags().BoolVar(&opts.persist, "persist", false, messages.HelperFlagPersist)
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", messages.HelperFlagLogLevel)
	return cmd
}

// newLogger returns a text logger at the named level.
func newLogger(out io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf(messages.HelperInvalidLevelFmt, level)
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})), nil
}

// run connects to the system bus and serves removal requests until the
// lifecycle in opts ends.
func run(ctx context.Context, opts helperOptions, logger *slog.Logger) error {
	conn, auth, err := connectFunc()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	executor := removal.NewExecutor(auth)
	srv := helper.NewServer(executor, conn, logger)
	logger.Info(messages.HelperStarting, "bus_name", helper.BusName, "idle_timeout", opts.idleTimeout, "persist", opts.persist)
	err = serveFunc(ctx, conn, srv, helper.ServeOptions{IdleTimeout: opts.idleTimeout, Persist: opts.persist})
	if err != nil {
		logger.Error(messages.HelperStopped, "error", err)
		return err
	}
	logger.Info(messages.HelperStopped)
	return nil
}

// connectSystemBus opens the system bus and a polkit authorizer on it.
func connectSystemBus() (busConn, removal.Authorizer, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, nil, fmt.Errorf(messages.HelperConnectFmt, err)
	}
	return conn, helper.NewPolkitAuthorizer(conn), nil
}
