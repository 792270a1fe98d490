package core

// EngineState exposes engine internals for observability.
type EngineState struct {
	Adapter     string   `json:"adapter"`
	Filename    string   `json:"filename"`
	Mode        string   `json:"mode"`
	ReadOnly    bool     `json:"read_only"`
	Closed      bool     `json:"closed"`
	Collections []string `json:"collections,omitempty"`
}
