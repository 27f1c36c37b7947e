package core

import (
	"fmt"
	"sort"
)

// Supported assistants
const (
	AssistantClaude    = "claude"
	AssistantCursor    = "cursor"
	AssistantGeminiCLI = "gemini-cli"
	AssistantWindsurf  = "windsurf"
)

// AssistantSettingsMap maps assistant names to their global MCP settings file.
var AssistantSettingsMap = map[string]string{
	AssistantClaude:    "~/.claude.json",
	AssistantCursor:    "~/.cursor/mcp.json",
	AssistantGeminiCLI: "~/.gemini/settings.json",
	AssistantWindsurf:  "~/.codeium/windsurf/mcp_config.json",
}

// Assistants returns the supported assistant names, sorted.
func Assistants() []string {
	names := make([]string, 0, len(AssistantSettingsMap))
	for name := range AssistantSettingsMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SettingsPathFor returns the global settings file for the given assistant.
// If a custom location is provided, it takes precedence.
func SettingsPathFor(assistant, custom string) (string, error) {
	if custom != "" {
		return custom, nil
	}
	loc, ok := AssistantSettingsMap[assistant]
	if !ok {
		return "", fmt.Errorf("unsupported assistant: %s", assistant)
	}
	return loc, nil
}
