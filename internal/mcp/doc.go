// Package mcp provides a read-only Model Context Protocol (MCP) server for
// mcpconf using mcp-go.
//
// The server lets an AI assistant browse the card catalog, see which
// servers are configured, ask for recommendations and read the project
// status document. It never writes: adding, removing and reconfiguring
// servers stays with the command line, where the user sees the changes.
//
// # Implementation
//
// The package uses the mcp-go library (github.com/mark3labs/mcp-go). Every
// tool is a thin handler over core.Manager and answers with indented JSON
// text content.
//
// # Tools
//
//   - list_cards: catalog entries, optionally filtered by a keyword
//   - show_card: one card with the variables still missing a value
//   - list_instances: configured servers per scope
//   - recommend: cards suggested for the project
//   - project_status: the status document
//   - doctor: problems found in the settings documents
//
// Secret values never leave the process: instance env and header values are
// masked in list_instances.
//
// # Usage
//
// The server is started as a subprocess by the assistant:
//
//	mcpconf serve --project /path/to/project
//
// It reads JSON-RPC requests from stdin and writes responses to stdout
// until it receives EOF or is terminated.
//
// # References
//
// - Model Context Protocol: https://modelcontextprotocol.io
// - mcp-go Library: https://github.com/mark3labs/mcp-go
package mcp
