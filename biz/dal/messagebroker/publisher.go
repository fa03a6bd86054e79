package messagebroker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

// DailyActivityMessage is what downstream reporting consumes after every
// presence-log merge.
type DailyActivityMessage struct {
	Date        string `json:"date"`
	ActiveCount int    `json:"active_count"`
	Snapshot    int    `json:"snapshot_emails"`
	LastUpdated string `json:"last_updated"`
}

type ReportingPublisher struct {
	rmq *RabbitMQ
}

func NewReportingPublisher(rmq *RabbitMQ) *ReportingPublisher {
	return &ReportingPublisher{rmq: rmq}
}

// PublishDailyActivity emits the merged day onto the admin-reporting
// exchange. Best effort: the logger does not care whether anyone listens.
func (p *ReportingPublisher) PublishDailyActivity(ctx context.Context, entry *domain.PresenceLogEntry, snapshotSize int) error {
	payload, err := json.Marshal(DailyActivityMessage{
		Date:        entry.Date,
		ActiveCount: entry.ActiveCount,
		Snapshot:    snapshotSize,
		LastUpdated: entry.LastUpdated,
	})
	if err != nil {
		zap.L().Error("Marshal JSON (PublishDailyActivity) (ReportingPublisher)", zap.Error(err))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}

	err = p.rmq.Channel.Publish(
		"admin-reporting",
		"presence.daily",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.New().String(),
			Body:        payload,
		},
	)
	if err != nil {
		zap.L().Error("Channel.Publish (PublishDailyActivity) (ReportingPublisher)", zap.Error(err), zap.String("date", entry.Date))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	return nil
}
