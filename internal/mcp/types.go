package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// CommandOutput is returned by the fire-and-forget widget tools.
type CommandOutput struct {
	Command string `json:"command"`
	Sent    bool   `json:"sent"`
}

// StatusOutput is the output for the dot_status tool.
type StatusOutput struct {
	FollowState   string `json:"follow_state"`
	Busy          bool   `json:"busy"`
	Watchers      int    `json:"watchers"`
	Subscribers   int    `json:"subscribers"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
