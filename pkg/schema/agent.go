package schema

// AgentAction describes one tool invocation an agent decided to take.
type AgentAction struct {
	Tool      string `json:"tool"`
	ToolInput string `json:"tool_input"`
	ToolID    string `json:"tool_id,omitempty"`

	// Log is the raw model output the action was parsed from.
	Log string `json:"log,omitempty"`
}

// AgentFinish is the terminal step of an agent run.
type AgentFinish struct {
	// ReturnValues holds the agent's final outputs, keyed by name.
	ReturnValues map[string]any `json:"return_values"`
	Log          string         `json:"log,omitempty"`
}
