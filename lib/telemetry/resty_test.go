package telemetry

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRedactForm(t *testing.T) {
	body := url.Values{
		"MemberCode": {"211B123"},
		"Password":   {"hunter2"},
		"DATE1":      {"01-01-2003"},
		"txtcap":     {"aB3f9"},
	}.Encode()

	redacted, err := url.ParseQuery(redactForm(body))
	require.NoError(t, err)
	require.Equal(t, "211B123", redacted.Get("MemberCode"))
	require.Equal(t, "<redacted>", redacted.Get("Password"))
	require.Equal(t, "<redacted>", redacted.Get("DATE1"))
	require.Equal(t, "<redacted>", redacted.Get("txtcap"))

	require.Equal(t, "not a form %%", redactForm("not a form %%"))
}

func spanBody(t testing.TB, span sdktrace.ReadOnlySpan) string {
	for _, attr := range span.Attributes() {
		if attr.Key == attribute.Key("request/body") {
			return attr.Value.AsString()
		}
	}
	t.Fatalf("span %q has no request body attribute", span.Name())
	return ""
}

func TestInstrumentResty(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(previous)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer server.Close()

	client := resty.New()
	InstrumentResty(client, "test:telemetry/resty")

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	res, err = client.R().
		SetFormData(map[string]string{"MemberCode": "211B123", "Password": "hunter2"}).
		Post(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "http GET", spans[0].Name())
	require.Equal(t, "", spanBody(t, spans[0]))

	require.Equal(t, "http POST", spans[1].Name())
	posted, err := url.ParseQuery(spanBody(t, spans[1]))
	require.NoError(t, err)
	require.Equal(t, "211B123", posted.Get("MemberCode"))
	require.Equal(t, "<redacted>", posted.Get("Password"))
}
