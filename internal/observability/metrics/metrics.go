// Package metrics names and tags the metrics authweb emits.
package metrics

import (
	"maps"
	"strconv"
	"time"

	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected" // local validation or an API 4xx
	ResultError    = "error"
)

// Metric names.
const (
	MetricAccountAction   = "account.action"
	MetricAccountDuration = "account.duration"
	MetricAPIRequest      = "authapi.request"
	MetricAPIDuration     = "authapi.duration"
)

// AccountMetric describes one register, login or logout attempt.
type AccountMetric struct {
	Action   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitAccountAction counts the attempt and, when it reached the API, times it.
func EmitAccountAction(sink statsd.Sink, in AccountMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"action": in.Action, "result": in.Result}
	if code := errorCode(in.Err); code != "" {
		tags["error_code"] = code
	}
	sink.Count(MetricAccountAction, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricAccountDuration, in.Duration, maps.Clone(tags))
	}
}

// APICallMetric describes one outbound call to the auth API. Status is 0 when
// no response arrived.
type APICallMetric struct {
	Path     string
	Method   string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitAPICall counts and times an outbound call.
func EmitAPICall(sink statsd.Sink, in APICallMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"path":   in.Path,
		"method": in.Method,
		"status": strconv.Itoa(in.Status),
		"result": ResultSuccess,
	}
	if in.Err != nil {
		tags["result"] = ResultError
		if code := errorCode(in.Err); code != "" {
			tags["error_code"] = code
		}
	}
	sink.Count(MetricAPIRequest, 1, tags)
	sink.Timing(MetricAPIDuration, in.Duration, maps.Clone(tags))
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return "unknown"
}
