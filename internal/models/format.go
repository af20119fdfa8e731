package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// FormatID identifies a creative format hosted by a creative agent.
// Buyers may send either the full object or a bare format string; a bare
// string leaves AgentURL empty and the default creative agent is assumed.
type FormatID struct {
	AgentURL   string   `json:"agent_url"`
	ID         string   `json:"id"`
	Width      *int     `json:"width,omitempty"`
	Height     *int     `json:"height,omitempty"`
	DurationMs *float64 `json:"duration_ms,omitempty"`
}

// UnmarshalJSON accepts both `"display_300x250"` and `{"agent_url": ..., "id": ...}`
func (f *FormatID) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*f = FormatID{ID: plain}
		return nil
	}

	type formatIDAlias FormatID
	var alias formatIDAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("invalid format_id: %w", err)
	}
	*f = FormatID(alias)
	return nil
}

// IsHTTPAgent reports whether the format is hosted by a reachable HTTP(S)
// creative agent. Adapter-internal pseudo formats (e.g. broadstreet://default)
// are validated by the adapter instead.
func (f FormatID) IsHTTPAgent() bool {
	u, err := url.Parse(f.AgentURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Parameters returns the optional width/height/duration parameters as a map
// suitable for the creative's format_parameters column.
func (f FormatID) Parameters() map[string]interface{} {
	params := map[string]interface{}{}
	if f.Width != nil {
		params["width"] = *f.Width
	}
	if f.Height != nil {
		params["height"] = *f.Height
	}
	if f.DurationMs != nil {
		params["duration_ms"] = *f.DurationMs
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func (f FormatID) String() string {
	if f.AgentURL == "" {
		return f.ID
	}
	return strings.TrimSuffix(f.AgentURL, "/") + "/" + f.ID
}

// FormatAsset describes one asset slot a format requires.
type FormatAsset struct {
	AssetID   string `json:"asset_id"`
	AssetType string `json:"asset_type"`
	Required  bool   `json:"required"`
}

// Format is an entry of a creative agent's format catalog.
type Format struct {
	FormatID        FormatID      `json:"format_id"`
	Name            string        `json:"name"`
	Type            string        `json:"type,omitempty"`
	Description     string        `json:"description,omitempty"`
	Assets          []FormatAsset `json:"assets,omitempty"`
	OutputFormatIDs []FormatID    `json:"output_format_ids,omitempty"`
}

// IsGenerative reports whether the format is built by the agent from a brief
// rather than previewed from buyer assets.
func (f *Format) IsGenerative() bool {
	return f != nil && len(f.OutputFormatIDs) > 0
}

// FormatRef is the (agent_url, id) pair a product declares as supported.
type FormatRef struct {
	AgentURL string `json:"agent_url"`
	ID       string `json:"id"`
}

// NormalizeAgentURLForMatch strips a trailing slash and a trailing /mcp
// suffix so agents reported with or without the MCP transport path compare
// equal.
func NormalizeAgentURLForMatch(raw string) string {
	u := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	u = strings.TrimSuffix(u, "/mcp")
	return strings.TrimSuffix(u, "/")
}
