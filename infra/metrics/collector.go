package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/solischarge/core/metrics"
	"github.com/kilianp07/solischarge/core/model"
	"github.com/kilianp07/solischarge/infra/logger"
	"github.com/kilianp07/solischarge/internal/eventbus"
)

// StartScheduleCollector records every schedule published on bus until ctx
// is cancelled. The returned channel closes when collection stops.
func StartScheduleCollector(ctx context.Context, bus *eventbus.Bus[model.Schedule], sink coremetrics.MetricsSink) <-chan struct{} {
	if bus == nil || sink == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	return bus.Handle(ctx, func(_ context.Context, s model.Schedule) {
		if err := sink.RecordSchedule(coremetrics.NewScheduleEvent(s)); err != nil {
			log.Errorf("record schedule %s: %v", s.RunID, err)
		}
	})
}
