package webapi

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/config"
)

const (
	listTimeout    = 5 * time.Second
	statsTimeout   = 10 * time.Second
	inspectTimeout = 3 * time.Second
	actionTimeout  = 10 * time.Second

	projectEnvKey = "PROJECT_ID="
	shortIDLen    = 12
)

type DockerEngineAPI struct {
	Cli *client.Client
}

func CreateNewDockerEngineAPI(cfg *config.Config) *DockerEngineAPI {
	apiclient, err := client.NewClientWithOpts(client.WithHost(cfg.Docker.Host), client.WithAPIVersionNegotiation())

	if err != nil {
		hlog.Fatal("client.NewClientWithOpts ", err)
	}

	return &DockerEngineAPI{Cli: apiclient}

}

func mapState(state string) domain.ContainerState {
	switch state {
	case "created":
		return domain.ContainerStateCreated
	case "running":
		return domain.ContainerStateRunning
	case "exited", "dead":
		return domain.ContainerStateStopped
	case "restarting":
		return domain.ContainerStateRestarting
	default:
		return domain.ContainerStateUnknown
	}
}

// GetAllContainers enumerates every container on the host, any lifecycle
// state. Running containers additionally get a one-shot stats read, and every
// container gets an inspect for limits and the owning PROJECT_ID env var.
// Stats and inspect are best effort per container: a container that vanished
// between list and inspect keeps zeroed fields, the batch never fails for it.
func (d *DockerEngineAPI) GetAllContainers(ctx context.Context) ([]domain.ContainerSnapshot, error) {
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	list, err := d.Cli.ContainerList(listCtx, container.ListOptions{All: true})
	if err != nil {
		zap.L().Error("d.Cli.ContainerList", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot enumerate containers")
	}

	ctrs := make([]domain.ContainerSnapshot, 0, len(list))
	for _, c := range list {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		shortID := c.ID
		if len(shortID) > shortIDLen {
			shortID = shortID[:shortIDLen]
		}
		snap := domain.ContainerSnapshot{
			ID:        c.ID,
			ShortID:   shortID,
			Name:      name,
			Image:     c.Image,
			State:     mapState(c.State),
			Status:    c.Status,
			CreatedAt: time.Unix(c.Created, 0).UTC().Format(time.RFC3339),
		}

		if snap.State == domain.ContainerStateRunning {
			snap.Stats = d.readStats(ctx, c.ID)
		}
		d.enrichFromInspect(ctx, &snap)

		ctrs = append(ctrs, snap)
	}
	return ctrs, nil
}

// readStats returns zeroed stats when the read fails; the container may have
// stopped between enumeration and here.
func (d *DockerEngineAPI) readStats(ctx context.Context, ctrID string) domain.ContainerStats {
	statsCtx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	resp, err := d.Cli.ContainerStatsOneShot(statsCtx, ctrID)
	if err != nil {
		zap.L().Debug("d.Cli.ContainerStatsOneShot", zap.Error(err), zap.String("ctrID", ctrID))
		return domain.ContainerStats{}
	}
	defer resp.Body.Close()

	var sj types.StatsJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		zap.L().Debug("decode container stats", zap.Error(err), zap.String("ctrID", ctrID))
		return domain.ContainerStats{}
	}

	stats := domain.ContainerStats{
		CPUPercent: cpuPercent(&sj),
		Processes:  int(sj.PidsStats.Current),
	}

	memUsed := sj.MemoryStats.Usage
	if inactive, ok := sj.MemoryStats.Stats["inactive_file"]; ok && inactive < memUsed {
		memUsed -= inactive
	}
	stats.MemoryUsed = memUsed
	if sj.MemoryStats.Limit > 0 {
		stats.MemoryPercent = float64(memUsed) / float64(sj.MemoryStats.Limit) * 100.0
	}

	for _, nw := range sj.Networks {
		stats.NetworkRx += nw.RxBytes
		stats.NetworkTx += nw.TxBytes
	}
	for _, entry := range sj.BlkioStats.IoServiceBytesRecursive {
		switch {
		case strings.EqualFold(entry.Op, "read"):
			stats.BlockRead += entry.Value
		case strings.EqualFold(entry.Op, "write"):
			stats.BlockWrite += entry.Value
		}
	}
	return stats
}

// cpuPercent is the engine's own derivation: usage delta over system delta,
// scaled by online CPUs.
func cpuPercent(sj *types.StatsJSON) float64 {
	cpuDelta := float64(sj.CPUStats.CPUUsage.TotalUsage) - float64(sj.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(sj.CPUStats.SystemUsage) - float64(sj.PreCPUStats.SystemUsage)
	online := float64(sj.CPUStats.OnlineCPUs)
	if online == 0 {
		online = float64(len(sj.CPUStats.CPUUsage.PercpuUsage))
	}
	if sysDelta <= 0 || cpuDelta < 0 {
		return 0
	}
	return cpuDelta / sysDelta * online * 100.0
}

func (d *DockerEngineAPI) enrichFromInspect(ctx context.Context, snap *domain.ContainerSnapshot) {
	inspectCtx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	info, err := d.Cli.ContainerInspect(inspectCtx, snap.ID)
	if err != nil {
		zap.L().Debug("d.Cli.ContainerInspect", zap.Error(err), zap.String("ctrID", snap.ID))
		return
	}

	if info.HostConfig != nil {
		snap.Limits.MemoryBytes = info.HostConfig.Memory
		if info.HostConfig.CPUQuota > 0 && info.HostConfig.CPUPeriod > 0 {
			snap.Limits.CPUCores = float64(info.HostConfig.CPUQuota) / float64(info.HostConfig.CPUPeriod)
		}
	}
	if info.State != nil {
		snap.StartedAt = info.State.StartedAt
		snap.FinishedAt = info.State.FinishedAt
	}
	if info.Config != nil {
		for _, env := range info.Config.Env {
			if strings.HasPrefix(env, projectEnvKey) {
				snap.ProjectID = strings.TrimSpace(strings.TrimPrefix(env, projectEnvKey))
				break
			}
		}
	}
}

func (d *DockerEngineAPI) Stop(ctx context.Context, ctrID string) error {
	stopCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	if err := d.Cli.ContainerStop(stopCtx, ctrID, container.StopOptions{}); err != nil {
		zap.L().Error("d.Cli.ContainerStop", zap.Error(err), zap.String("ctrID", ctrID))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot stop container %s", ctrID)
	}
	return nil
}

func (d *DockerEngineAPI) Start(ctx context.Context, ctrID string) error {
	startCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	if err := d.Cli.ContainerStart(startCtx, ctrID, container.StartOptions{}); err != nil {
		zap.L().Error("d.Cli.ContainerStart", zap.Error(err), zap.String("ctrID", ctrID))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot start container %s", ctrID)
	}
	return nil
}
