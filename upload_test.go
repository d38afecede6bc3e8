package campfire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, baseURL string) *Account {
	t.Helper()
	conf := &Config{
		Subdomain:  "test",
		Token:      "secret",
		BaseURL:    baseURL,
		ExportRoot: t.TempDir(),
		Logger:     testLogger(),
	}
	exporter, err := NewLocalExporter(conf)
	require.NoError(t, err)
	t.Cleanup(func() { exporter.Close() })
	return NewAccount(conf, NewClient(conf), exporter, time.UTC)
}

func uploadTranscript(account *Account) (*Transcript, string) {
	room := &Room{ID: "1", Name: "Den", account: account}
	date := time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC)
	transcript := &Transcript{
		Room: room,
		Date: date,
		Messages: []*Message{
			{ID: "100", Type: TypeUpload, User: "alice", Body: "my pic.png"},
		},
	}
	return transcript, account.exporter.ExportDir(room, date)
}

func TestExportUploads(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches metadata and content and verifies the write", func(t *testing.T) {
		var contentPath string
		mux := http.NewServeMux()
		mux.HandleFunc("/room/1/messages/100/upload.xml", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<upload><id>99</id><name>my pic.png</name><byte-size>5</byte-size></upload>`))
		})
		mux.HandleFunc("/room/1/uploads/99/", func(w http.ResponseWriter, r *http.Request) {
			contentPath = r.URL.EscapedPath()
			w.Write([]byte("hello"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		account := newTestAccount(t, srv.URL)
		transcript, dir := uploadTranscript(account)
		transcript.exportUploads(ctx, dir)

		assert.Equal(t, "/room/1/uploads/99/my%20pic.png", contentPath)
		got, err := os.ReadFile(filepath.Join(dir, "uploads", "99", "my pic.png"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
		assert.Equal(t, 0, account.exporter.failures)
		assert.Equal(t, 1, account.summary.Uploads)
	})

	t.Run("404 metadata means deleted, not failed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		account := newTestAccount(t, srv.URL)
		transcript, dir := uploadTranscript(account)
		transcript.exportUploads(ctx, dir)

		assert.Equal(t, 0, account.exporter.failures)
		assert.Equal(t, 0, account.summary.Uploads)
	})

	t.Run("404 content means deleted, not failed", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/room/1/messages/100/upload.xml", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<upload><id>99</id><name>gone.png</name><byte-size>5</byte-size></upload>`))
		})
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		account := newTestAccount(t, srv.URL)
		transcript, dir := uploadTranscript(account)
		transcript.exportUploads(ctx, dir)

		assert.Equal(t, 0, account.exporter.failures)
	})

	t.Run("other failures are logged and skip only that upload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		account := newTestAccount(t, srv.URL)
		transcript, dir := uploadTranscript(account)
		transcript.exportUploads(ctx, dir)

		assert.Equal(t, 1, account.exporter.failures)

		logBody, err := os.ReadFile(filepath.Join(account.exporter.root, "export_errors.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(logBody), "upload Den 2020-01-05 message 100")
	})

	t.Run("size mismatches fail verification", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/room/1/messages/100/upload.xml", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<upload><id>99</id><name>short.png</name><byte-size>9000</byte-size></upload>`))
		})
		mux.HandleFunc("/room/1/uploads/99/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("tiny"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		account := newTestAccount(t, srv.URL)
		transcript, dir := uploadTranscript(account)
		transcript.exportUploads(ctx, dir)

		assert.Equal(t, 1, account.exporter.failures)
		assert.Equal(t, 0, account.summary.Uploads)
	})
}
