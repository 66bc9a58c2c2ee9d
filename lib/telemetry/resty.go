package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// form fields that never make it into span attributes
var redactedFields = []string{"password", "date1", "txtcap"}

// InstrumentResty opens a span per request made by the client, the span
// is closed in the response or error hook.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method, trace.WithSpanKind(trace.SpanKindClient))
		req.SetContext(ctx)
		return nil
	}
}

func headerAttributes(prefix string, headers http.Header) []attribute.KeyValue {
	var out []attribute.KeyValue
	for header, values := range headers {
		if strings.EqualFold(header, "cookie") || strings.EqualFold(header, "set-cookie") {
			out = append(out, attribute.Int(fmt.Sprintf("%s/header: %s (count)", prefix, header), len(values)))
			continue
		}
		out = append(out, attribute.StringSlice(fmt.Sprintf("%s/header: %s", prefix, header), values))
	}
	return out
}

func redactForm(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	for key := range values {
		for _, field := range redactedFields {
			if strings.EqualFold(key, field) {
				values.Set(key, "<redacted>")
			}
		}
	}
	return values.Encode()
}

func requestBodyAttribute(req *http.Request) attribute.KeyValue {
	if req.GetBody == nil {
		return attribute.String("request/body", "")
	}
	reader, err := req.GetBody()
	if err != nil {
		return attribute.String("request/body", fmt.Sprintf("failed to get request body: %s", err.Error()))
	}
	// bodyless requests get a GetBody that returns nil
	if reader == nil {
		return attribute.String("request/body", "")
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return attribute.String("request/body", fmt.Sprintf("failed to read request body: %s", err.Error()))
	}
	return attribute.String("request/body", redactForm(string(body)))
}

func requestAttributes(req *http.Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL.String()),
		semconv.ServerAddress(req.URL.Hostname()),
	}
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// res.Request.RawRequest is nil in onBeforeRequest, so request attributes are set here
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	if res.Request.RawRequest != nil {
		span.SetAttributes(requestAttributes(res.Request.RawRequest)...)
		span.SetAttributes(requestBodyAttribute(res.Request.RawRequest))
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode()))
	span.SetAttributes(headerAttributes("request", res.Request.Header)...)
	span.SetAttributes(headerAttributes("response", res.Header())...)
	span.SetAttributes(attribute.Int("response/length", len(res.Body())))

	if res.StatusCode() >= 500 {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(headerAttributes("request", req.Header)...)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(requestAttributes(req.RawRequest)...)
}
