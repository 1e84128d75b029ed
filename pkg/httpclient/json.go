package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/storefront-browse/pkg/httpclient"

// GetJSON issues a GET to base+path with the given query, propagates the
// trace context, and decodes a 2xx JSON body into out. Non-2xx responses are
// translated with ParseResponseError.
func GetJSON(ctx context.Context, d Doer, service, base, path string, query url.Values, out any) error {
	target, err := url.JoinPath(base, path)
	if err != nil {
		return fmt.Errorf("build %s url: %w", service, err)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, service+" GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", path),
			attribute.String("peer.service", service),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := d.Do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s GET %s: %w", service, path, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := ParseResponseError(resp, service)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer drain(resp)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode %s %s response: %w", service, path, err)
	}
	return nil
}
