package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront-browse/pkg/logger"
)

// logOnce serves req through RequestLogger and returns the single JSON line
// the handler logged.
func logOnce(t *testing.T, req *http.Request) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	h := RequestLogger(logger.NewWithWriter("browse-test", "info", &buf))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Info("view assembled")
		}),
	)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestRequestLogger_Fields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	traced := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	tests := []struct {
		name    string
		ctx     context.Context
		session string
		want    map[string]string
		absent  []string
	}{
		{
			name:   "correlation id from context",
			ctx:    logger.WithCorrelationID(context.Background(), "corr-test-123"),
			want:   map[string]string{"correlation_id": "corr-test-123", "service": "browse-test"},
			absent: []string{"session_id", "trace_id"},
		},
		{
			name:    "session id from header",
			ctx:     context.Background(),
			session: "0b6f7c8e-3f0c-4c51-9a57-1f1b0c3b6a11",
			want:    map[string]string{"session_id": "0b6f7c8e-3f0c-4c51-9a57-1f1b0c3b6a11"},
			absent:  []string{"correlation_id"},
		},
		{
			name: "trace fields",
			ctx:  traced,
			want: map[string]string{"trace_id": "4bf92f3577b34da6a3ce929d0e0e4736", "span_id": "00f067aa0ba902b7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/browse/categories", nil).WithContext(tt.ctx)
			if tt.session != "" {
				req.Header.Set(SessionHeader, tt.session)
			}

			line := logOnce(t, req)
			assert.Equal(t, "view assembled", line["msg"])
			for k, v := range tt.want {
				assert.Equal(t, v, line[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, line, k)
			}
		})
	}
}
