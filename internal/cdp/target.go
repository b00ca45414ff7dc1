package cdp

// TargetInfo describes a remote debugging target observed via discovery.
// Fields other than TargetID are opaque passthrough from the transport.
type TargetInfo struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Attached bool   `json:"attached,omitempty"`
}
