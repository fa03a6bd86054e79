package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

const (
	// A container counts as actively used when its session was touched
	// within this window or it is burning measurable CPU right now.
	activeWindow     = 60 * time.Second
	activeCPUPercent = 0.5

	// Idle containers are reclaimed by the backend after this long; the
	// dashboard only reports the countdown.
	idleTimeout = 30 * time.Minute

	perContainerReserve = int64(4) << 30
	systemReserve       = int64(8) << 30
)

type HostMetricsAPI interface {
	Snapshot(ctx context.Context) (*domain.HostMetrics, error)
}

type ContainerInventory interface {
	GetAllContainers(ctx context.Context) ([]domain.ContainerSnapshot, error)
	Stop(ctx context.Context, ctrID string) error
	Start(ctx context.Context, ctrID string) error
}

type SessionLedger interface {
	Read() map[string]domain.SessionEntry
}

type ProjectRepository interface {
	GetProjectOwner(ctx context.Context, projectID string) (string, error)
	GetLegacyProjectOwner(ctx context.Context, projectID string) (string, error)
}

type AuthDirectory interface {
	GetUser(ctx context.Context, userID string) (*domain.AuthUser, error)
	ListUsers(ctx context.Context, limit int) ([]domain.AuthUser, error)
}

type DiagnosticsService struct {
	host      HostMetricsAPI
	inventory ContainerInventory
	ledger    SessionLedger
	projects  ProjectRepository
	auth      AuthDirectory
	now       func() time.Time
}

func NewDiagnosticsService(h HostMetricsAPI, inv ContainerInventory, l SessionLedger,
	p ProjectRepository, a AuthDirectory) *DiagnosticsService {
	return &DiagnosticsService{
		host:      h,
		inventory: inv,
		ledger:    l,
		projects:  p,
		auth:      a,
		now:       time.Now,
	}
}

// GetDiagnostics never fails: the dashboard polls this every few seconds and
// must keep rendering under backend degradation, so any aggregation error
// collapses into a zero-shaped snapshot.
func (s *DiagnosticsService) GetDiagnostics(ctx context.Context) *domain.DiagnosticsSnapshot {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		zap.L().Error("s.buildSnapshot (GetDiagnostics) (DiagnosticsService)", zap.Error(err))
		return domain.EmptyDiagnostics()
	}
	return snap
}

func (s *DiagnosticsService) buildSnapshot(ctx context.Context) (*domain.DiagnosticsSnapshot, error) {
	system, err := s.host.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ctrs, err := s.inventory.GetAllContainers(ctx)
	if err != nil {
		return nil, err
	}

	owners := s.resolveOwners(ctx, ctrs)
	sessions := s.ledger.Read()

	now := s.now()
	running := 0
	var allocated int64
	for i := range ctrs {
		if ctrs[i].ProjectID != "" {
			ctrs[i].Owner = owners[ctrs[i].ProjectID]
		}

		entry, found := sessions[ctrs[i].ID]
		if !found {
			entry, found = sessions[ctrs[i].ShortID]
		}
		if found {
			ClassifyActivity(&ctrs[i], &entry, now)
		} else {
			ClassifyActivity(&ctrs[i], nil, now)
		}

		if ctrs[i].State == domain.ContainerStateRunning {
			running++
			allocated += ctrs[i].Limits.MemoryBytes
		}
	}

	return &domain.DiagnosticsSnapshot{
		System:            system,
		Containers:        ctrs,
		RunningContainers: running,
		TotalContainers:   len(ctrs),
		AllocatedMemory:   allocated,
		MaxContainers:     MaxContainers(system.Memory.Total),
	}, nil
}

// ClassifyActivity derives the idle/active state of one container from the
// runtime state, the ledger entry and the clock. Pure and stateless: the
// next poll recomputes it from scratch.
//
// Precedence: running && (touched within activeWindow || CPU above the
// threshold) is active; running with a ledger entry is idle with a reclaim
// countdown; running without one is idle with nothing to project from;
// non-running containers get no classification at all.
func ClassifyActivity(c *domain.ContainerSnapshot, entry *domain.SessionEntry, now time.Time) {
	c.SessionLastUsed = nil
	c.SessionIdleMs = nil
	c.SessionActive = false
	c.DestroyInMs = nil
	c.TimeoutExceeded = false

	if c.State != domain.ContainerStateRunning {
		return
	}

	cpuActive := c.Stats.CPUPercent > activeCPUPercent

	if entry == nil {
		c.SessionActive = cpuActive
		return
	}

	lastUsed := entry.LastUsedMs
	idleMs := now.UnixMilli() - lastUsed
	if idleMs < 0 {
		idleMs = 0
	}
	c.SessionLastUsed = &lastUsed
	c.SessionIdleMs = &idleMs

	if idleMs < activeWindow.Milliseconds() || cpuActive {
		c.SessionActive = true
	}

	destroyIn := idleTimeout.Milliseconds() - idleMs
	if destroyIn < 0 {
		destroyIn = 0
	}
	c.DestroyInMs = &destroyIn

	if !c.SessionActive && idleMs > idleTimeout.Milliseconds() {
		c.TimeoutExceeded = true
	}
}

// MaxContainers is how many sessions this host can hold: total memory minus
// a fixed system reserve, divided by the per-container reservation.
func MaxContainers(totalMemoryBytes uint64) int {
	usable := int64(totalMemoryBytes) - systemReserve
	if usable < 0 {
		return 0
	}
	return int(usable / perContainerReserve)
}

// resolveOwners maps every distinct project id seen across the fleet to an
// owner. Lookups are memoized for this pass only; every failure just leaves
// the project ownerless.
func (s *DiagnosticsService) resolveOwners(ctx context.Context, ctrs []domain.ContainerSnapshot) map[string]*domain.Owner {
	owners := map[string]*domain.Owner{}
	for _, c := range ctrs {
		if c.ProjectID == "" {
			continue
		}
		if _, seen := owners[c.ProjectID]; seen {
			continue
		}
		owners[c.ProjectID] = s.resolveOwner(ctx, c.ProjectID)
	}
	return owners
}

// resolveOwner walks the collection strategies in order: the current
// projects collection first, then the legacy one left over from the schema
// migration. The first strategy with an answer wins.
func (s *DiagnosticsService) resolveOwner(ctx context.Context, projectID string) *domain.Owner {
	strategies := []func(context.Context, string) (string, error){
		s.projects.GetProjectOwner,
		s.projects.GetLegacyProjectOwner,
	}

	var userID string
	for _, lookup := range strategies {
		id, err := lookup(ctx, projectID)
		if err == nil && id != "" {
			userID = id
			break
		}
	}
	if userID == "" {
		return nil
	}

	user, err := s.auth.GetUser(ctx, userID)
	if err != nil {
		zap.L().Debug("s.auth.GetUser (resolveOwner) (DiagnosticsService)", zap.Error(err), zap.String("userID", userID))
		// The project still has an owner even when the directory cannot
		// name them.
		return &domain.Owner{UserID: userID, Email: userID}
	}
	return &domain.Owner{UserID: userID, Email: user.Email, DisplayName: user.DisplayName}
}

func (s *DiagnosticsService) StopContainer(ctx context.Context, ctrID string) error {
	return s.inventory.Stop(ctx, ctrID)
}

func (s *DiagnosticsService) StartContainer(ctx context.Context, ctrID string) error {
	return s.inventory.Start(ctx, ctrID)
}
