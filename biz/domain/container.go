package domain

type ContainerState string

const (
	ContainerStateCreated    ContainerState = "created"
	ContainerStateRunning    ContainerState = "running"
	ContainerStateStopped    ContainerState = "stopped"
	ContainerStateRestarting ContainerState = "restarting"
	ContainerStateUnknown    ContainerState = "unknown"
)

// ContainerStats are the point-in-time resource numbers of one running
// container. Zero values mean the stats read failed or the container is not
// running; the inventory never aborts over a single unreadable container.
type ContainerStats struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryUsed    uint64  `json:"memoryUsed"`
	MemoryPercent float64 `json:"memoryPercent"`
	NetworkRx     uint64  `json:"networkRx"`
	NetworkTx     uint64  `json:"networkTx"`
	BlockRead     uint64  `json:"blockRead"`
	BlockWrite    uint64  `json:"blockWrite"`
	Processes     int     `json:"processes"`
}

type ContainerLimits struct {
	MemoryBytes int64   `json:"memoryBytes"`
	CPUCores    float64 `json:"cpuCores"`
}

// Owner is who a container ultimately belongs to, resolved through the
// project collections and the auth directory.
type Owner struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// ContainerSnapshot is one container as the dashboard sees it: identity and
// lifecycle from the runtime, stats and limits best-effort, plus the session
// activity derivation. Rebuilt from the live runtime on every request.
type ContainerSnapshot struct {
	ID        string         `json:"id"`
	ShortID   string         `json:"shortId"`
	Name      string         `json:"name"`
	Image     string         `json:"image"`
	State     ContainerState `json:"state"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"createdAt"`

	Stats  ContainerStats  `json:"stats"`
	Limits ContainerLimits `json:"limits"`

	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`

	ProjectID string `json:"projectId,omitempty"`
	Owner     *Owner `json:"owner"`

	// Session activity, correlated from the backend ledger. Pointers stay
	// nil for containers with no ledger entry; non-running containers carry
	// no classification at all.
	SessionLastUsed *int64 `json:"sessionLastUsed"`
	SessionIdleMs   *int64 `json:"sessionIdleMs"`
	SessionActive   bool   `json:"sessionActive"`
	DestroyInMs     *int64 `json:"destroyInMs"`
	TimeoutExceeded bool   `json:"timeoutExceeded"`
}

// SessionEntry is one row of the backend's sessions ledger: the last time a
// container did work for its user. Written by the backend, read-only here.
type SessionEntry struct {
	LastUsedMs int64  `json:"lastUsed"`
	ProjectID  string `json:"projectId"`
	UserID     string `json:"userId"`
}
