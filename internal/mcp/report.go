// Package mcp serves a read-only cache report over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/snapshot"
)

// ToolCacheReport is the name of the report tool.
const ToolCacheReport = "cache_report"

// Loader produces a fresh snapshot for each tool call.
type Loader func(ctx context.Context) (*snapshot.Snapshot, error)

// ReportInput filters the report.
type ReportInput struct {
	Reasons    []string `json:"reasons,omitempty" jsonschema:"only include artifacts with these reasons"`
	MarkedOnly bool     `json:"marked_only,omitempty" jsonschema:"only include artifacts recommended for removal"`
}

// ReportOutput is the structured tool result.
type ReportOutput struct {
	Totals    inventory.Totals     `json:"totals"`
	Counts    map[string]int       `json:"counts"`
	Artifacts []inventory.Artifact `json:"artifacts"`
	Warnings  []string             `json:"warnings,omitempty"`
}

type serverRunner func(ctx context.Context, server *mcp.Server) error

// RunReportServer starts the report server over stdio.
func RunReportServer(ctx context.Context, version string, load Loader) error {
	return runReportServer(ctx, version, load, defaultServerRunner)
}

func runReportServer(ctx context.Context, version string, load Loader, runner serverRunner) error {
	if runner == nil || load == nil {
		return fmt.Errorf(messages.McpRunServerFailedFmt, errors.New(messages.McpServerIncomplete))
	}
	if err := runner(ctx, newServer(version, load)); err != nil {
		return fmt.Errorf(messages.McpRunServerFailedFmt, err)
	}
	return nil
}

func newServer(version string, load Loader) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pkgtrim",
		Version: version,
	}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolCacheReport,
		Description: messages.McpCacheReportDescription,
	}, reportHandler(load))
	return server
}

// defaultServerRunner runs the server over stdio.
func defaultServerRunner(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func reportHandler(load Loader) mcp.ToolHandlerFor[ReportInput, ReportOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ReportInput) (*mcp.CallToolResult, ReportOutput, error) {
		out, err := buildReport(ctx, load, in)
		if err != nil {
			return nil, ReportOutput{}, err
		}
		summary := fmt.Sprintf(messages.McpCacheReportSummaryFmt,
			out.Totals.TotalCount, out.Totals.MarkedCount, len(out.Artifacts))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: summary}},
		}, out, nil
	}
}

func buildReport(ctx context.Context, load Loader, in ReportInput) (ReportOutput, error) {
	reasons := make([]inventory.Reason, 0, len(in.Reasons))
	for _, raw := range in.Reasons {
		reason, err := inventory.ParseReason(raw)
		if err != nil {
			return ReportOutput{}, fmt.Errorf(messages.McpInvalidReasonFmt, err, strings.Join(reasonNames(), ", "))
		}
		reasons = append(reasons, reason)
	}

	snap, err := load(ctx)
	if err != nil {
		return ReportOutput{}, err
	}

	counts := make(map[string]int, len(snap.Result.Counts))
	for reason, n := range snap.Result.Counts {
		counts[string(reason)] = n
	}
	out := ReportOutput{
		Totals:    snap.Inventory.Totals(),
		Counts:    counts,
		Artifacts: snap.Filter(reasons, in.MarkedOnly),
	}
	if out.Artifacts == nil {
		out.Artifacts = []inventory.Artifact{}
	}
	for _, w := range snap.Warnings {
		out.Warnings = append(out.Warnings, w.Code+": "+w.Message)
	}
	return out, nil
}

func reasonNames() []string {
	names := make([]string, 0, len(inventory.Reasons()))
	for _, r := range inventory.Reasons() {
		names = append(names, string(r))
	}
	return names
}
