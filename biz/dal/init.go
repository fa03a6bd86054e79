package dal

import (
	"drape/leon/admin-service/biz/dal/db"
	"drape/leon/admin-service/biz/dal/messagebroker"
	"drape/leon/admin-service/config"
)

func InitPg(cfg *config.Config) *db.Postgres {
	pg := db.NewPostgres(cfg)
	return pg
}
func InitRmq(cfg *config.Config) *messagebroker.RabbitMQ {
	rmq := messagebroker.NewRabbitMQ(cfg)

	return rmq
}
