package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.messages == nil {
		o.messages = map[string]string{}
	}
	o.messages[id] = contents
}

func TestInstrumentClientWritesMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	output := &memoryOutput{}
	client := resty.New()
	InstrumentClient(client, nil, output)

	_, err := client.R().
		SetHeader("Authorization", "Bearer secret-token").
		SetHeader("X-Request-Source", "test").
		Get(server.URL + "/items")
	require.NoError(t, err)

	require.Len(t, output.messages, 1)
	msg := output.messages["1"]
	require.Contains(t, msg, "---- REQUEST ----")
	require.Contains(t, msg, "---- RESPONSE ----")
	require.Contains(t, msg, "GET "+server.URL+"/items")
	require.Contains(t, msg, "X-Request-Source: test")
	require.Contains(t, msg, "Authorization: "+redacted)
	require.NotContains(t, msg, "secret-token")
	require.True(t, strings.HasSuffix(msg, `{"ok":true}`))
}

func TestInstrumentClientError(t *testing.T) {
	output := &memoryOutput{}
	client := resty.New()
	InstrumentClient(client, nil, output)

	_, err := client.R().Get("http://127.0.0.1:1/unreachable")
	require.Error(t, err)
}

func TestFormatHeadersSorted(t *testing.T) {
	headers := http.Header{}
	headers.Set("B-Header", "2")
	headers.Set("A-Header", "1")
	headers.Set("X-Api-Key", "hunter2")

	require.Equal(
		t,
		"A-Header: 1\nB-Header: 2\nX-Api-Key: "+redacted,
		formatHeaders(headers),
	)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("7", "contents")

	written, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}
