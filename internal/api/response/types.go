package response

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Diagnostics reports process-lifetime counters for operators. All of
// it is serveable without a session.
type Diagnostics struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Sessions      int    `json:"sessions"`
	Games         int    `json:"games"`
	Connections   int    `json:"connections"`
	Goroutines    int    `json:"goroutines"`
}
