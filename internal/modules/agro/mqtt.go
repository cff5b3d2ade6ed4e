package agro

import (
	"context"
	"log/slog"

	"stationdesk-server/internal/modules/agro/service"
	"stationdesk-server/internal/mqtt"
)

// RegisterMQTTHandler stores sensor telemetry through the agro service.
func RegisterMQTTHandler(subscriber mqtt.MQTTSubscriber, svc *service.Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	subscriber.SetMessageHandler(func(ctx context.Context, t mqtt.Telemetry) error {
		logger.Debug("processing telemetry message",
			"station_no", t.StationNo,
			"kind", t.Kind,
			"timestamp", t.Timestamp,
		)
		if err := svc.IngestTelemetry(ctx, t); err != nil {
			return err
		}
		logger.Debug("stored telemetry", "station_no", t.StationNo, "kind", t.Kind)
		return nil
	})
}
