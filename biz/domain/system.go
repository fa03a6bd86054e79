package domain

type CPUMetrics struct {
	Cores     int     `json:"cores"`
	LoadAvg1m float64 `json:"loadAvg1m"`
	LoadAvg5m float64 `json:"loadAvg5m"`
	LoadAvg15 float64 `json:"loadAvg15m"`
}

type MemoryMetrics struct {
	Total     uint64 `json:"total"`
	Used      uint64 `json:"used"`
	Available uint64 `json:"available"`
}

type DiskMetrics struct {
	Total     uint64 `json:"total"`
	Used      uint64 `json:"used"`
	Available uint64 `json:"available"`
}

// HostMetrics is a point-in-time read of the machine the fleet runs on.
// Every derived percentage on the dashboard hangs off these numbers, so a
// failed read is fatal to the whole diagnostics pass rather than partial.
type HostMetrics struct {
	CPU           CPUMetrics    `json:"cpu"`
	Memory        MemoryMetrics `json:"memory"`
	Disk          DiskMetrics   `json:"disk"`
	UptimeSeconds float64       `json:"uptimeSeconds"`
}

// DiagnosticsSnapshot is the full answer to "what is running on this host".
// Built fresh on every request, never persisted.
type DiagnosticsSnapshot struct {
	System            *HostMetrics        `json:"system"`
	Containers        []ContainerSnapshot `json:"containers"`
	RunningContainers int                 `json:"runningContainers"`
	TotalContainers   int                 `json:"totalContainers"`
	AllocatedMemory   int64               `json:"allocatedMemory"`
	MaxContainers     int                 `json:"maxContainers"`
}

// EmptyDiagnostics is what the dashboard gets when host introspection is
// entirely unavailable: a well-formed zero snapshot, never a 5xx.
func EmptyDiagnostics() *DiagnosticsSnapshot {
	return &DiagnosticsSnapshot{
		Containers: []ContainerSnapshot{},
	}
}
