package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends the registry to a Prometheus Pushgateway, replacing the
// series previously pushed under job.
func Push(ctx context.Context, gatewayURL, job string, m *Metrics) error {
	if err := push.New(gatewayURL, job).Gatherer(m.Registry()).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
