package core

import "context"

const (
	MetricTransportRequestTotal    = "transport.request.total"
	MetricTransportRequestDuration = "transport.request.duration_ms"
	MetricStoreOperationTotal      = "store.operation.total"
	MetricStoreOperationDuration   = "store.operation.duration_ms"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
