package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type testServer struct {
	url   string
	calls *atomic.Int32
	rec   *telemetry.Recorder
}

func newTestServer(t *testing.T, subjects []string, err error) testServer {
	t.Helper()

	calls := &atomic.Int32{}
	rec := &telemetry.Recorder{}
	cache := aagslist.NewCache(aagslist.ProviderFunc(func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		return subjects, err
	}), aagslist.CacheOptions{Telemetry: rec})

	server := httptest.NewServer(NewService(cache, Options{HighlightMentions: true}, rec).Handler())
	t.Cleanup(server.Close)

	return testServer{url: server.URL, calls: calls, rec: rec}
}

func TestList(t *testing.T) {
	cases := []struct {
		name     string
		subjects []string
		err      error
		status   int
		expected aagslist.Result
	}{
		{
			name:     "success",
			subjects: []string{"6.5210", "6.5060"},
			status:   http.StatusOK,
			expected: aagslist.Result{Success: true, Subjects: []string{"6.5060", "6.5210"}},
		},
		{
			name:   "provider failure",
			err:    errors.New("connection refused"),
			status: http.StatusBadGateway,
		},
		{
			name:     "empty list",
			subjects: []string{},
			status:   http.StatusBadGateway,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			server := newTestServer(t, test.subjects, test.err)

			res, err := http.Get(server.url + "/v1/aags")
			require.NoError(t, err)
			defer res.Body.Close()
			require.Equal(t, test.status, res.StatusCode)

			var result aagslist.Result
			require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
			if test.status == http.StatusOK {
				require.Equal(t, test.expected, result)
				return
			}
			require.False(t, result.Success)
			require.NotEmpty(t, result.Error)
		})
	}
}

func TestListCachedAndInvalidated(t *testing.T) {
	server := newTestServer(t, []string{"6.5060"}, nil)

	for i := 0; i < 3; i++ {
		res, err := http.Get(server.url + "/v1/aags")
		require.NoError(t, err)
		res.Body.Close()
	}
	require.Equal(t, int32(1), server.calls.Load())

	res, err := http.Post(server.url+"/v1/aags/invalidate", "", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, err = http.Get(server.url + "/v1/aags")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, int32(2), server.calls.Load())
}

func postPage(t *testing.T, url, page string) (*http.Response, string) {
	t.Helper()
	res, err := http.Post(url, "text/html", strings.NewReader(page))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestAnnotate(t *testing.T) {
	server := newTestServer(t, []string{"6.100A", "6.100B"}, nil)

	res, body := postPage(t, server.url+"/v1/annotate", `<html><body><p>Take 6.1000/A/B this term.</p></body></html>`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "1", res.Header.Get(HeaderMarkers))
	require.Empty(t, res.Header.Get(HeaderWarning))
	require.Contains(t, res.Header.Get("content-type"), "text/html")
	require.Equal(t, 1, strings.Count(body, "data-aags-marker"))
	require.Contains(t, body, "6.1000/A/B<sup")

	// posting the output again changes nothing
	res, again := postPage(t, server.url+"/v1/annotate", body)
	require.Equal(t, "0", res.Header.Get(HeaderMarkers))
	require.Equal(t, 1, strings.Count(again, "data-aags-marker"))
}

func TestAnnotateTable(t *testing.T) {
	server := newTestServer(t, []string{"6.5060"}, nil)

	page := `<html><body><table>
		<thead><tr><th>Area</th><th>Subject</th><th>Instructor</th></tr></thead>
		<tbody><tr><td>AI</td><td>6.5060</td><td>Shun</td></tr></tbody>
	</table></body></html>`
	res, body := postPage(t, server.url+"/v1/annotate?layout=table", page)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "1", res.Header.Get(HeaderMarkers))
	require.Contains(t, body, "aags-column")
	require.NotContains(t, body, "data-aags-marker")
}

func TestAnnotateListUnavailable(t *testing.T) {
	server := newTestServer(t, nil, errors.New("connection refused"))

	res, body := postPage(t, server.url+"/v1/annotate", `<html><body><p>Take 6.1200.</p></body></html>`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "0", res.Header.Get(HeaderMarkers))
	require.Contains(t, res.Header.Get(HeaderWarning), "Failed to load AAGS list")
	require.Contains(t, body, `id="aags-error-banner"`)
}

func TestAnnotateTooLarge(t *testing.T) {
	cache := aagslist.NewCache(aagslist.ProviderFunc(func(ctx context.Context) ([]string, error) {
		return []string{"6.5060"}, nil
	}), aagslist.CacheOptions{Telemetry: &telemetry.Recorder{}})
	server := httptest.NewServer(NewService(cache, Options{MaxBodyBytes: 16}, &telemetry.Recorder{}).Handler())
	defer server.Close()

	res, _ := postPage(t, server.URL+"/v1/annotate", "<html><body>"+strings.Repeat("6.5060 ", 100)+"</body></html>")
	require.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
}

func TestCheck(t *testing.T) {
	server := newTestServer(t, []string{"6.5060", "6.5210"}, nil)

	cases := []struct {
		name     string
		query    string
		status   int
		subjects []string
		flagged  []string
		suggests bool
	}{
		{name: "flagged", query: "6.5060", status: http.StatusOK, subjects: []string{"6.5060"}, flagged: []string{"6.5060"}},
		{name: "not flagged", query: "6.5061", status: http.StatusOK, subjects: []string{"6.5061"}, flagged: []string{}, suggests: true},
		{name: "slash list", query: "6.5060/1", status: http.StatusOK, subjects: []string{"6.5060", "6.5061"}, flagged: []string{"6.5060"}},
		{name: "empty", query: "", status: http.StatusBadRequest, subjects: []string{}, flagged: []string{}},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			res, err := http.Get(server.url + "/v1/check?subject=" + test.query)
			require.NoError(t, err)
			defer res.Body.Close()
			require.Equal(t, test.status, res.StatusCode)

			var body CheckResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			require.Equal(t, test.subjects, body.Subjects)
			require.Equal(t, test.flagged, body.Flagged)
			require.Equal(t, test.suggests, len(body.Suggestions) > 0)
		})
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, nil, errors.New("unused"))

	res, err := http.Get(server.url + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Zero(t, server.calls.Load())
}
