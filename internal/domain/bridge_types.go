package domain

import "time"

// ConnectionState is the protocol client's lifecycle state. Transitions are
// monotonic (disconnected -> connecting -> connected) except for Disconnect,
// which always returns the client to StateDisconnected.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// ServerEntry is one configured tool server. Entries are parsed from the
// config file at startup and never mutated afterwards.
type ServerEntry struct {
	Name           string
	Command        string
	Args           []string
	URL            string
	Env            map[string]string
	TimeoutSeconds int
}

// IsHTTP reports whether the entry addresses a URL-based server rather than
// a launchable subprocess.
func (e ServerEntry) IsHTTP() bool {
	return e.URL != ""
}

// ToolParam is one typed parameter of a discovered tool.
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     string
}

// ToolInfo describes a tool exposed by a server or a skill script.
// Names are unique per server/skill.
type ToolInfo struct {
	Name        string
	Description string
	Params      []ToolParam
}

// RequiredParams returns the required parameter names in declaration order.
func (t ToolInfo) RequiredParams() []string {
	var out []string
	for _, p := range t.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// WrapperType distinguishes the two capability sources.
type WrapperType string

const (
	WrapperTypeMCP   WrapperType = "mcp"
	WrapperTypeSkill WrapperType = "skill"
)

// GeneratedWrapper is a materialized invocable command, ready to install.
// CommandName is the dedup key: mcp:<server>:<tool> or skill:<skill>:<tool>.
type GeneratedWrapper struct {
	CommandName string
	Type        WrapperType
	SourceName  string
	ToolName    string
	Script      string
	Help        string
}

// InstalledTool is the registry record of an installed wrapper. The wrapper
// file exists iff the record exists.
type InstalledTool struct {
	CommandName string      `json:"commandName"`
	Type        WrapperType `json:"type"`
	SourceName  string      `json:"sourceName"`
	ToolName    string      `json:"toolName"`
	Path        string      `json:"path"`
	Digest      string      `json:"digest"`
	InstalledAt time.Time   `json:"installedAt"`
}

// ScriptParam is one parameter recovered from a script docstring.
type ScriptParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     string
}

// ScriptMetadata is the parsed metadata of one skill script. A script with
// no recognizable docstring yields an empty (but valid) metadata object.
type ScriptMetadata struct {
	Name        string
	Description string
	Params      []ScriptParam
	Returns     string
	Examples    []string
	Extension   string
	Path        string
}

// ToolInfo converts script metadata to the uniform tool shape.
func (m ScriptMetadata) ToolInfo() ToolInfo {
	info := ToolInfo{Name: m.Name, Description: m.Description}
	for _, p := range m.Params {
		info.Params = append(info.Params, ToolParam(p))
	}
	return info
}

// WatchEventType classifies a filesystem change under the skills root.
type WatchEventType string

const (
	WatchAdd    WatchEventType = "add"
	WatchChange WatchEventType = "change"
	WatchUnlink WatchEventType = "unlink"
)

// WatchEvent is one script-scoped filesystem change.
type WatchEvent struct {
	Type   WatchEventType
	Skill  string
	Script string
	Path   string
	At     time.Time
}

// UpdateEventType is the wrapper action an update produced.
type UpdateEventType string

const (
	UpdateInstalled UpdateEventType = "installed"
	UpdateUpdated   UpdateEventType = "updated"
	UpdateRemoved   UpdateEventType = "removed"
	UpdateError     UpdateEventType = "error"
)

// UpdateEvent is the auto-updater's outcome for one watch event.
// One WatchEvent yields at most one UpdateEvent.
type UpdateEvent struct {
	ID          string
	Type        UpdateEventType
	Skill       string
	Script      string
	CommandName string
	Err         string
	At          time.Time
}

// ColonCommandParts is a parsed `ns:name:tool [args]` invocation.
type ColonCommandParts struct {
	Namespace string
	Name      string
	ToolName  string
	Args      []string
}

// CommandResult is the uniform handler result. Exit code 0 means success;
// any handled failure is reported as exit code 1 with stderr set.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ContentItem is one item of a tool call response; either plain text or a
// structured value flattened to text by the caller.
type ContentItem struct {
	Type string
	Text string
}

// ConnectResult reports the outcome of a protocol connect attempt. Connect
// never fails by panicking; callers branch on Success.
type ConnectResult struct {
	Success    bool
	State      ConnectionState
	ServerName string
	Err        error
}

// ToolCallResult is a protocol tool invocation result.
type ToolCallResult struct {
	Content []ContentItem
	IsError bool
}
