//go:build wireinject
// +build wireinject

package di

import (
	"drape/leon/admin-service/biz/dal/db"
	"drape/leon/admin-service/biz/dal/messagebroker"
	"drape/leon/admin-service/biz/dal/sessionledger"
	"drape/leon/admin-service/biz/router"
	"drape/leon/admin-service/biz/service"
	"drape/leon/admin-service/biz/webapi"
	"drape/leon/admin-service/config"

	"github.com/google/wire"
)

var DiagnosticsSet wire.ProviderSet = wire.NewSet(
	service.NewDiagnosticsService,
	webapi.CreateNewDockerEngineAPI,
	webapi.NewHostMetricsAPI,
	webapi.NewAuthAPI,
	sessionledger.NewReader,
	db.NewProjectRepo,

	wire.Bind(new(router.DiagnosticsService), new(*service.DiagnosticsService)),
	wire.Bind(new(service.HostMetricsAPI), new(*webapi.HostMetricsAPI)),
	wire.Bind(new(service.ContainerInventory), new(*webapi.DockerEngineAPI)),
	wire.Bind(new(service.SessionLedger), new(*sessionledger.Reader)),
	wire.Bind(new(service.ProjectRepository), new(*db.ProjectRepository)),
	wire.Bind(new(service.AuthDirectory), new(*webapi.AuthAPI)),
)

var PresenceSet wire.ProviderSet = wire.NewSet(
	service.NewPresenceService,
	service.NewLocationCache,
	webapi.NewAuthAPI,
	webapi.NewGeoIPResolver,
	webapi.NewMinioAPI,
	db.NewPresenceRepo,
	db.NewUserRepo,
	db.NewPresenceLogRepo,
	messagebroker.NewReportingPublisher,

	wire.Bind(new(router.PresenceService), new(*service.PresenceService)),
	wire.Bind(new(service.PresenceRepository), new(*db.PresenceRepository)),
	wire.Bind(new(service.UserRepository), new(*db.UserRepository)),
	wire.Bind(new(service.PresenceLogRepository), new(*db.PresenceLogRepository)),
	wire.Bind(new(service.AuthDirectory), new(*webapi.AuthAPI)),
	wire.Bind(new(service.GeoResolver), new(*webapi.GeoIPResolver)),
	wire.Bind(new(service.ReportingPublisher), new(*messagebroker.ReportingPublisher)),
	wire.Bind(new(service.ReportExporter), new(*webapi.MinioAPI)),
)

func InitDiagnosticsService(pg *db.Postgres, cfg *config.Config) *service.DiagnosticsService {
	wire.Build(
		DiagnosticsSet,
	)
	return nil
}

func InitPresenceService(pg *db.Postgres, rmq *messagebroker.RabbitMQ, cfg *config.Config) *service.PresenceService {
	wire.Build(
		PresenceSet,
	)
	return nil
}
