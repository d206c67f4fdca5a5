package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsMultipartForm(t *testing.T) {
	var gotPath string
	var gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		gotFile = header.Filename
		require.Equal(t, "8.27", r.FormValue("paperWidth"))
		w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	pdf, err := client.RenderHTML(context.Background(), "<html><body>invoice</body></html>")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	require.Equal(t, "/forms/chromium/convert/html", gotPath)
	require.Equal(t, "index.html", gotFile)
}

func TestRenderHTMLErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RenderHTML(context.Background(), "<html></html>")
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).Ping(context.Background()))
}
