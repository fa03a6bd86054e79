package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"drape/leon/admin-service/biz/dal"
	"drape/leon/admin-service/biz/dal/db"
	"drape/leon/admin-service/biz/router"
	"drape/leon/admin-service/biz/service"
	"drape/leon/admin-service/biz/webapi"
	"drape/leon/admin-service/config"
	"drape/leon/admin-service/di"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	initLogger(cfg)

	pg := dal.InitPg(cfg)
	rmq := dal.InitRmq(cfg)

	diagSvc := di.InitDiagnosticsService(pg, cfg)
	presenceSvc := di.InitPresenceService(pg, rmq, cfg)

	h := server.Default(
		server.WithHostPorts(cfg.HTTP.Port),
		server.WithExitWaitTime(3*time.Second),
	)
	router.MyRouter(h, cfg, diagSvc, presenceSvc)

	schedCtx, cancelSched := context.WithCancel(context.Background())

	// The recurring snapshot runs on dkron when a cluster is configured,
	// otherwise on an in-process ticker. Either way one snapshot is taken at
	// startup so a restart never loses a whole interval.
	dkron := webapi.CreateDkronAPI(cfg)
	if dkron.Enabled() {
		if _, _, err := presenceSvc.LogSnapshot(schedCtx); err != nil {
			zap.L().Error("presenceSvc.LogSnapshot (main)", zap.Error(err))
		}
		if err := dkron.RegisterPresenceLogJob(schedCtx, cfg.PresenceLog.IntervalMinutes); err != nil {
			zap.L().Warn("dkron.RegisterPresenceLogJob (main)", zap.Error(err))
		}
	} else {
		go presenceLogLoop(schedCtx, presenceSvc, time.Duration(cfg.PresenceLog.IntervalMinutes)*time.Minute)
	}

	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		cancelSched()
		if err := rmq.Close(); err != nil {
			zap.L().Error("rmq.Close (main)", zap.Error(err))
		}
		if err := db.ClosePostgres(pg.Pool); err != nil {
			zap.L().Error("db.ClosePostgres (main)", zap.Error(err))
		}
	})

	h.Spin()
}

// presenceLogLoop takes one snapshot right away so a restart never loses a
// whole interval, then keeps going on the ticker until shutdown.
func presenceLogLoop(ctx context.Context, svc *service.PresenceService, interval time.Duration) {
	snapshot := func() {
		date, count, err := svc.LogSnapshot(ctx)
		if err != nil {
			zap.L().Error("svc.LogSnapshot (presenceLogLoop)", zap.Error(err))
			return
		}
		zap.L().Info("presence snapshot logged",
			zap.String("date", date), zap.Int("count", count))
	}

	snapshot()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot()
		}
	}
}

func initLogger(cfg *config.Config) {
	ws := zapcore.NewMultiWriteSyncer(
		zapcore.AddSync(os.Stdout),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     10, // days
		}),
	)
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	core := zapcore.NewCore(enc, ws, zap.InfoLevel)
	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))

	hlog.SetLogger(hertzzap.NewLogger(
		hertzzap.WithCoreEnc(enc),
		hertzzap.WithCoreWs(ws),
		hertzzap.WithCoreLevel(zap.NewAtomicLevelAt(zapcore.InfoLevel)),
	))
}
