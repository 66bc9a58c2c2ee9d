package restyutil

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock     sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id, contents string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.messages[id] = contents
}

func TestInstrumentClient(t *testing.T) {
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(previous)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, out)

	_, err := client.R().
		SetContext(context.Background()).
		SetFormData(map[string]string{
			"MemberCode": "211B123",
			"Password":   "hunter2",
		}).
		Post(server.URL + "/login")
	require.NoError(t, err)

	require.Len(t, out.messages, 1)
	message := out.messages["1"]
	require.Contains(t, message, "POST "+server.URL+"/login")
	require.Contains(t, message, "MemberCode=211B123")
	require.Contains(t, message, "<html>ok</html>")
	require.False(t, strings.Contains(message, "hunter2"))
}
