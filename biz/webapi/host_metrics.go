package webapi

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

// HostMetricsAPI reads the OS counters behind the dashboard's system panel.
// Unlike container enrichment, any failed read here fails the whole snapshot:
// derived percentages are meaningless without the host totals.
type HostMetricsAPI struct {
	RootPath string
}

func NewHostMetricsAPI() *HostMetricsAPI {
	return &HostMetricsAPI{RootPath: "/"}
}

func (h *HostMetricsAPI) Snapshot(ctx context.Context) (*domain.HostMetrics, error) {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		zap.L().Error("cpu.Counts (Snapshot) (HostMetricsAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot read cpu count")
	}
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		zap.L().Error("load.Avg (Snapshot) (HostMetricsAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot read load averages")
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		zap.L().Error("mem.VirtualMemory (Snapshot) (HostMetricsAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot read memory")
	}
	du, err := disk.UsageWithContext(ctx, h.RootPath)
	if err != nil {
		zap.L().Error("disk.Usage (Snapshot) (HostMetricsAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot read disk usage")
	}
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		zap.L().Error("host.Uptime (Snapshot) (HostMetricsAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "cannot read uptime")
	}

	return &domain.HostMetrics{
		CPU: domain.CPUMetrics{
			Cores:     cores,
			LoadAvg1m: avg.Load1,
			LoadAvg5m: avg.Load5,
			LoadAvg15: avg.Load15,
		},
		Memory: domain.MemoryMetrics{
			Total:     vm.Total,
			Used:      vm.Used,
			Available: vm.Available,
		},
		Disk: domain.DiskMetrics{
			Total:     du.Total,
			Used:      du.Used,
			Available: du.Free,
		},
		UptimeSeconds: float64(uptime),
	}, nil
}
