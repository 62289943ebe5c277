package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pkgtrim/internal/mcp"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/snapshot"
)

var runReportServerFunc = mcp.RunReportServer

func newMcpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.McpUse,
		Short: messages.McpShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportServerFunc(cmd.Context(), versionString(), reportLoader(opts))
		},
	}
}

// reportLoader rereads the config and rescans the cache on every call, so a
// long-lived server reports the cache as it is now.
func reportLoader(opts *rootOptions) mcp.Loader {
	return func(ctx context.Context) (*snapshot.Snapshot, error) {
		cfg, err := opts.loadConfig()
		if err != nil {
			return nil, err
		}
		return loadSnapshotFunc(ctx, cfg, snapshot.Options{})
	}
}
