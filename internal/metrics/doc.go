// Package metrics records what a run did as Prometheus series.
//
// Callers emit MetricEvent values on the Collector's channel; a single
// goroutine applies them to a private registry. After a run the registry can
// be pushed to a Pushgateway, and the preview server exposes it on /metrics.
//
//	collector := metrics.NewCollector(1024, logger)
//	collector.Start(ctx)
//
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:    metrics.EventProbeCompleted,
//		Tier:    probe.TierDirect,
//		Success: true,
//		Latency: 0.12,
//	}
//
//	collector.Flush()
//	err := metrics.Push(ctx, gatewayURL, "linkpulse", collector.Metrics())
package metrics
