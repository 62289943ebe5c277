package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"

	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// listReport is the machine-readable form of `pkgtrim list`.
type listReport struct {
	Totals    inventory.Totals     `json:"totals" yaml:"totals"`
	Artifacts []inventory.Artifact `json:"artifacts" yaml:"artifacts"`
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		reasons    []string
		markedOnly bool
		format     string
	)
	cmd := &cobra.Command{
		Use:   messages.ListUse,
		Short: messages.ListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != formatTable && format != formatJSON && format != formatYAML {
				return fmt.Errorf(messages.ListUnknownFormatFmt, format)
			}
			filter, err := parseReasons(reasons)
			if err != nil {
				return err
			}
			snap, err := opts.loadSnapshot(cmd)
			if err != nil {
				return err
			}
			opts.printWarnings(cmd.ErrOrStderr(), snap.Warnings)

			report := listReport{
				Totals:    snap.Inventory.Totals(),
				Artifacts: snap.Filter(filter, markedOnly),
			}
			return writeList(cmd.OutOrStdout(), format, report)
		},
	}
	cmd.Flags().StringArrayVar(&reasons, "reason", nil, messages.ListFlagReason)
	cmd.Flags().BoolVar(&markedOnly, "marked", false, messages.ListFlagMarked)
	cmd.Flags().StringVar(&format, "format", formatTable, messages.ListFlagFormat)
	return cmd
}

// parseReasons converts reason flags to inventory reasons.
func parseReasons(values []string) ([]inventory.Reason, error) {
	out := make([]inventory.Reason, 0, len(values))
	for _, value := range values {
		reason, err := inventory.ParseReason(value)
		if err != nil {
			return nil, err
		}
		out = append(out, reason)
	}
	return out, nil
}

func writeList(out io.Writer, format string, report listReport) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeTable(out, report)
	}
}

func writeTable(out io.Writer, report listReport) error {
	if len(report.Artifacts) == 0 {
		_, _ = fmt.Fprintln(out, messages.ListEmpty)
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, messages.ListHeader)
		for _, a := range report.Artifacts {
			action := color.GreenString(messages.ListMarkKeep)
			if a.Marked {
				action = color.RedString(messages.ListMarkRemove)
			}
			_, _ = fmt.Fprintf(tw, messages.ListRowFmt, a.Name, a.Version, humanize.IBytes(uint64(a.Size)), a.Reason.Label(), action)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	t := report.Totals
	_, err := fmt.Fprintf(out, messages.ListTotalsFmt, t.TotalCount, humanize.IBytes(uint64(t.TotalSize)), t.MarkedCount, humanize.IBytes(uint64(t.MarkedSize)))
	return err
}
