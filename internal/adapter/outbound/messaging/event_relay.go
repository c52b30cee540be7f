package messaging

import (
	"context"
	"encoding/json"

	"entitysync/internal/application/common/slogger"
	"entitysync/internal/application/service"
	"entitysync/internal/port/outbound"
)

// RelayJobEvents subscribes to every lifecycle event on the bus and
// forwards it to the publisher as JSON. Publish failures are logged and
// dropped so a broker outage never blocks job execution.
func RelayJobEvents(bus *service.EventBus, publisher outbound.EventPublisher) {
	bus.SubscribeAll(func(ctx context.Context, event service.JobEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			slogger.ErrorWithError(ctx, err, "failed to encode job event", slogger.Field("event", event.Name))
			return
		}
		if err := publisher.PublishJobEvent(ctx, event.Name, payload); err != nil {
			slogger.ErrorWithError(ctx, err, "failed to relay job event", slogger.Fields2(
				"event", event.Name,
				"job_id", event.JobID,
			))
		}
	})
}
