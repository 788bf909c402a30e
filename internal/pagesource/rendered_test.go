package pagesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aags-annotator/internal/components/telemetry"
	"aags-annotator/lib/htmlutil"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/require"
)

func TestRenderedUnreachableBrowser(t *testing.T) {
	debugger := httptest.NewServer(http.NotFoundHandler())
	controlURL := "ws://" + strings.TrimPrefix(debugger.URL, "http://")
	debugger.Close()

	rec := &telemetry.Recorder{}
	source := NewRendered("https://student.mit.edu/catalog/m6a.html", BrowserOptions{
		DebuggerURL: controlURL,
		Timeout:     5 * time.Second,
	}, rec)

	_, err := Load(context.Background(), source)
	require.Error(t, err)
	require.ErrorContains(t, err, "connect to browser")
	require.True(t, rec.Has("broken", "pagesource: "+report_rendered_read))
}

func TestRenderedReadsScriptedContent(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no local browser")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Take 6.1200 this term</p><script>
			const p = document.createElement("p");
			p.textContent = ["Also", "6.100A"].join(" ");
			document.body.appendChild(p);
		</script></body></html>`))
	}))
	defer server.Close()

	rec := &telemetry.Recorder{}
	source := NewRendered(server.URL+"/catalog", BrowserOptions{
		Bin:     bin,
		Timeout: 30 * time.Second,
	}, rec)
	require.Equal(t, server.URL+"/catalog", source.Location())

	root, err := Load(context.Background(), source)
	require.NoError(t, err)
	text := htmlutil.GetText(root)
	require.Contains(t, text, "Take 6.1200 this term")
	require.Contains(t, text, "Also 6.100A")
	require.Empty(t, rec.Reports("broken"))
}
