package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/annotate"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/lib/htmlutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, source string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(source))
	require.NoError(t, err)
	return root
}

func render(t *testing.T, root *html.Node) string {
	t.Helper()
	out, err := htmlutil.Render(root)
	require.NoError(t, err)
	return out
}

func newList(subjects []string, err error) *aagslist.Cache {
	return aagslist.NewCache(aagslist.ProviderFunc(func(ctx context.Context) ([]string, error) {
		return subjects, err
	}), aagslist.CacheOptions{Telemetry: &telemetry.Recorder{}})
}

func TestProcessInline(t *testing.T) {
	rec := &telemetry.Recorder{}
	p := NewProcessor(newList([]string{"6.100A", "6.100B"}, nil), Options{
		HighlightMentions: true,
	}, rec)

	root := parse(t, `<html><body><p>Take 6.1000/A/B this term.</p><p>Counts for AAGS.</p></body></html>`)
	out, err := p.Process(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, out.ListErr)
	require.Equal(t, 1, out.Annotation.Markers)
	require.Equal(t, 1, out.Mentions)
	require.Equal(t, "", out.Warning())
	require.True(t, rec.Has("count", "catalog: "+report_processor_markers))

	rendered := render(t, root)
	require.Contains(t, rendered, `6.1000/A/B<sup`)
	require.Contains(t, rendered, `aags-mention`)
	require.NotContains(t, rendered, "aags-error-banner")
}

func TestProcessListUnavailable(t *testing.T) {
	cases := []struct {
		name     string
		subjects []string
		err      error
		expected error
	}{
		{name: "provider fails", err: errors.New("connection refused"), expected: aagslist.ErrProviderUnavailable},
		{name: "empty list", subjects: []string{}, expected: aagslist.ErrEmptyList},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			rec := &telemetry.Recorder{}
			p := NewProcessor(newList(test.subjects, test.err), Options{HighlightMentions: true}, rec)

			root := parse(t, `<html><body><p>Take 6.1200 this term, it counts for AAGS.</p></body></html>`)
			out, err := p.Process(context.Background(), root)
			require.NoError(t, err)
			require.ErrorIs(t, out.ListErr, test.expected)
			require.True(t, out.Banner)
			require.Zero(t, out.Annotation.Markers)
			require.Zero(t, out.Mentions)
			require.True(t, rec.Has("warning", "catalog: "+report_processor_list))

			rendered := render(t, root)
			require.Contains(t, rendered, `id="aags-error-banner"`)
			require.Contains(t, rendered, "Failed to load AAGS list")
			require.NotContains(t, rendered, "<sup")
			require.NotContains(t, rendered, "aags-mention")
		})
	}
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(newList(nil, context.Canceled), Options{}, &telemetry.Recorder{})
	_, err := p.Process(ctx, parse(t, `<html><body></body></html>`))
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessTable(t *testing.T) {
	rec := &telemetry.Recorder{}
	table := annotate.DefaultTableOptions()
	p := NewProcessor(newList([]string{"6.5060"}, nil), Options{Table: &table}, rec)

	root := parse(t, `<html><body><table>
		<thead><tr><th>Area</th><th>Subject</th><th>Instructor</th></tr></thead>
		<tbody>
			<tr><td>AI</td><td>6.5060</td><td>Shun</td></tr>
			<tr><td>Systems</td><td>6.1800</td><td>Morris</td></tr>
		</tbody>
	</table></body></html>`)

	out, err := p.Process(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, annotate.TableReport{Rows: 2, Flagged: 1}, out.Table)
	require.Zero(t, out.Annotation.Markers)

	_, err = p.Process(context.Background(), parse(t, `<html><body><p>6.5060</p></body></html>`))
	require.NoError(t, err)
	require.True(t, rec.Has("warning", "catalog: "+report_processor_table))
}
