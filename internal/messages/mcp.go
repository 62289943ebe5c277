package messages

// MCP messages for the report server.
const (
	McpUse   = "mcp"
	McpShort = "Serve a read-only cache report over MCP (stdio)"

	McpRunServerFailedFmt     = "run MCP server: %w"
	McpServerIncomplete       = "report loader and runner are required"
	McpCacheReportDescription = "Report cached pacman packages with their classification reason and keep/remove recommendation. Read-only."
	McpCacheReportSummaryFmt  = "%d cached artifacts, %d recommended for removal, %d listed"
	McpInvalidReasonFmt       = "%w (valid reasons: %s)"
)
