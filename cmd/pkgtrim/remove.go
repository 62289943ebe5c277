package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/pkgtrim/internal/helper"
	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/reconcile"
	"github.com/conn-castle/pkgtrim/internal/removal"
	"github.com/conn-castle/pkgtrim/internal/selectui"
)

var (
	sessionGuard     removal.Guard
	lockPathFunc     = removal.DefaultLockPath
	acquireLockFunc  = removal.AcquireSessionLock
	newSelectUIFunc  = func() selectui.UI { return selectui.NewHuhUI() }
	newTransportFunc = newTransport
)

// removeOptions holds the remove command flags.
type removeOptions struct {
	yes          bool
	interactive  bool
	local        bool
	markReasons  []string
	unmarkReason []string
	mark         []string
	keep         []string
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var ro removeOptions
	cmd := &cobra.Command{
		Use:   messages.RemoveUse,
		Short: messages.RemoveShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts, ro)
		},
	}
	cmd.Flags().BoolVarP(&ro.yes, "yes", "y", false, messages.RemoveFlagYes)
	cmd.Flags().BoolVarP(&ro.interactive, "interactive", "i", false, messages.RemoveFlagInteractive)
	cmd.Flags().BoolVar(&ro.local, "local", false, messages.RemoveFlagLocal)
	cmd.Flags().StringArrayVar(&ro.markReasons, "mark-reason", nil, messages.RemoveFlagMarkReason)
	cmd.Flags().StringArrayVar(&ro.unmarkReason, "unmark-reason", nil, messages.RemoveFlagUnmarkReason)
	cmd.Flags().StringArrayVar(&ro.mark, "mark", nil, messages.RemoveFlagMark)
	cmd.Flags().StringArrayVar(&ro.keep, "keep", nil, messages.RemoveFlagKeep)
	return cmd
}

func runRemove(cmd *cobra.Command, opts *rootOptions, ro removeOptions) error {
	out := cmd.OutOrStdout()
	markReasons, err := parseReasons(ro.markReasons)
	if err != nil {
		return err
	}
	unmarkReasons, err := parseReasons(ro.unmarkReason)
	if err != nil {
		return err
	}

	snap, err := opts.loadSnapshot(cmd)
	if err != nil {
		return err
	}
	opts.printWarnings(cmd.ErrOrStderr(), snap.Warnings)
	inv := snap.Inventory

	for _, reason := range markReasons {
		inv.MarkReason(reason, true)
	}
	for _, reason := range unmarkReasons {
		inv.MarkReason(reason, false)
	}
	if err := markPaths(inv, ro.mark, true); err != nil {
		return err
	}
	if err := markPaths(inv, ro.keep, false); err != nil {
		return err
	}

	proceed, err := confirmRemoval(cmd, inv, ro)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}

	release, err := sessionGuard.Acquire()
	if err != nil {
		return err
	}
	defer release()
	lockPath, err := lockPathFunc()
	if err != nil {
		return err
	}
	lock, err := acquireLockFunc(lockPath)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	transport, closeTransport, err := newTransportFunc(ro.local)
	if err != nil {
		return err
	}
	defer closeTransport()

	paths := inv.MarkedPaths()
	stream, err := transport.Start(cmd.Context(), removal.Request{Paths: paths})
	if err != nil {
		return err
	}
	summary, err := snap.Reconciler().Apply(cmd.Context(), inv, len(paths), stream, func(ev removal.Event) {
		printEvent(out, ev)
	})
	if err != nil && removal.IsAuthorizationError(err) {
		return fmt.Errorf(messages.RemoveNothingRemovedFmt, err)
	}
	printSummary(out, summary)
	if err != nil {
		return err
	}
	if summary.FailureCount > 0 {
		printFailures(cmd.ErrOrStderr(), summary.Failures)
		return &SilentExitError{Code: 2}
	}
	return nil
}

// markPaths sets the mark on exact artifact paths, rejecting unknown ones.
func markPaths(inv *inventory.Inventory, paths []string, marked bool) error {
	for _, path := range paths {
		if _, ok := inv.Find(path); !ok {
			return fmt.Errorf(messages.RemoveUnknownPathFmt, path)
		}
	}
	inv.MarkPaths(paths, marked)
	return nil
}

// confirmRemoval settles the final marked set and asks for confirmation.
// It returns false when there is nothing to do or the user declined.
func confirmRemoval(cmd *cobra.Command, inv *inventory.Inventory, ro removeOptions) (bool, error) {
	out := cmd.OutOrStdout()
	if ro.interactive {
		ok, err := selectInteractively(newSelectUIFunc(), inv, ro.yes)
		if err != nil {
			return false, err
		}
		if !ok {
			_, _ = fmt.Fprintln(out, messages.RemoveAborted)
		}
		return ok, nil
	}

	totals := inv.Totals()
	if totals.MarkedCount == 0 {
		_, _ = fmt.Fprintln(out, messages.RemoveNothingMarked)
		return false, nil
	}
	if ro.yes {
		return true, nil
	}
	if !isTerminalStream(cmd.InOrStdin()) {
		return false, errors.New(messages.RemoveNeedsConfirmation)
	}
	prompt := fmt.Sprintf(messages.RemoveConfirmTitleFmt, totals.MarkedCount, humanize.IBytes(uint64(totals.MarkedSize)))
	ok, err := promptYesNo(cmd.InOrStdin(), out, prompt, false)
	if err != nil {
		return false, err
	}
	if !ok {
		_, _ = fmt.Fprintln(out, messages.RemoveAborted)
	}
	return ok, nil
}

// selectInteractively lets the user adjust marks, then confirm. Esc on the
// confirmation returns to the list; Esc on the list or Ctrl+C aborts.
func selectInteractively(ui selectui.UI, inv *inventory.Inventory, skipConfirm bool) (bool, error) {
	for {
		artifacts := inv.Artifacts()
		items := make([]selectui.Item, len(artifacts))
		all := make([]string, len(artifacts))
		for i, a := range artifacts {
			items[i] = selectui.Item{
				Label: fmt.Sprintf(messages.RemoveItemLabelFmt, a.Name, a.Version, humanize.IBytes(uint64(a.Size)), a.Reason.Label()),
				Value: a.Path,
			}
			all[i] = a.Path
		}
		selected := inv.MarkedPaths()
		if err := ui.MultiSelect(messages.RemoveSelectTitle, items, &selected); err != nil {
			if errors.Is(err, selectui.ErrBack) || errors.Is(err, selectui.ErrCancelled) {
				return false, nil
			}
			return false, err
		}
		inv.MarkPaths(all, false)
		inv.MarkPaths(selected, true)

		totals := inv.Totals()
		if totals.MarkedCount == 0 {
			return false, nil
		}
		if skipConfirm {
			return true, nil
		}
		confirmed := false
		title := fmt.Sprintf(messages.RemoveConfirmTitleFmt, totals.MarkedCount, humanize.IBytes(uint64(totals.MarkedSize)))
		err := ui.Confirm(title, messages.RemoveConfirmDesc, &confirmed)
		switch {
		case errors.Is(err, selectui.ErrBack):
			continue
		case errors.Is(err, selectui.ErrCancelled):
			return false, nil
		case err != nil:
			return false, err
		}
		return confirmed, nil
	}
}

// newTransport returns the in-process executor for --local, otherwise a
// client of the system helper.
func newTransport(local bool) (removal.Transport, func(), error) {
	if local {
		transport := removal.LocalTransport{
			Executor: removal.NewExecutor(removal.RootAuthorizer()),
			Caller:   removal.Caller{ID: messages.RemoveLocalCallerID},
		}
		return transport, func() {}, nil
	}
	client, err := helper.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf(messages.RemoveHelperFmt, err)
	}
	return client, func() { _ = client.Close() }, nil
}

func printEvent(out io.Writer, ev removal.Event) {
	switch ev.Kind {
	case removal.Succeeded:
		_, _ = fmt.Fprintf(out, messages.RemoveRemovedFmt, ev.Path)
	case removal.Failed:
		_, _ = fmt.Fprint(out, color.RedString(messages.RemoveFailedFmt, ev.Path, ev.Message))
	}
}

func printSummary(out io.Writer, s reconcile.Summary) {
	line := fmt.Sprintf(messages.RemoveSummaryFmt, s.SuccessCount, humanize.IBytes(uint64(s.SuccessSize)), s.FailureCount, humanize.IBytes(uint64(s.FailureSize)))
	if s.FailureCount > 0 {
		_, _ = fmt.Fprint(out, color.YellowString("%s", line))
		return
	}
	_, _ = fmt.Fprint(out, color.GreenString("%s", line))
}

func printFailures(out io.Writer, failures []reconcile.Failure) {
	_, _ = fmt.Fprintln(out, messages.RemoveFailuresHeader)
	for _, f := range failures {
		_, _ = fmt.Fprintf(out, messages.RemoveFailureLineFmt, f.Path, f.Message)
	}
}
