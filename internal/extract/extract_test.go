package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/news-scraper/internal/news"
)

const origin = "https://www.yahoo.com/news/"

func TestExtractFullItems(t *testing.T) {
	t.Parallel()

	html := `<html><body><ul>
<li class="js-stream-content"><h3> First headline </h3><p>First summary</p><a href="first-story.html">read</a></li>
<li class="other"><h3>Ignored</h3></li>
<li class="js-stream-content featured"><div><h3>Second</h3><p>
  Second summary
</p><a href="second.html">x</a><a href="later.html">y</a></div></li>
</ul></body></html>`

	got := New(origin).Extract([]byte(html))

	require.Equal(t, []news.Record{
		{Title: "First headline", Summary: "First summary", Link: origin + "first-story.html"},
		{Title: "Second", Summary: "Second summary", Link: origin + "second.html"},
	}, got)
}

func TestExtractMissingParts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want news.Record
	}{
		{
			name: "no heading",
			html: `<li class="js-stream-content"><p>B</p><a href="y">l</a></li>`,
			want: news.Record{Title: "", Summary: "B", Link: origin + "y"},
		},
		{
			name: "no summary",
			html: `<li class="js-stream-content"><h3>A</h3><a href="y">l</a></li>`,
			want: news.Record{Title: "A", Summary: "", Link: origin + "y"},
		},
		{
			name: "no anchor",
			html: `<li class="js-stream-content"><h3>A</h3><p>B</p></li>`,
			want: news.Record{Title: "A", Summary: "B", Link: origin},
		},
		{
			name: "anchor without href",
			html: `<li class="js-stream-content"><h3>A</h3><a name="x">l</a></li>`,
			want: news.Record{Title: "A", Summary: "", Link: origin},
		},
		{
			name: "empty item",
			html: `<li class="js-stream-content"></li>`,
			want: news.Record{Link: origin},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := New(origin).Extract([]byte(tt.html))
			require.Len(t, got, 1)
			require.Equal(t, tt.want, got[0])
		})
	}
}

func TestExtractCountMatchesItems(t *testing.T) {
	t.Parallel()

	html := ""
	for i := 0; i < 25; i++ {
		html += `<li class="js-stream-content"><h3>h</h3></li>`
	}
	require.Len(t, New(origin).Extract([]byte(html)), 25)
}

func TestExtractMalformedInput(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"not html at all",
		`<li class="js-stream-content"><h3>Unclosed <p>dangling`,
		"<<<>>>",
	}
	for _, in := range inputs {
		got := New(origin).Extract([]byte(in))
		require.NotNil(t, got)
	}

	got := New(origin).Extract([]byte(`<li class="js-stream-content"><h3>Unclosed <p>dangling`))
	require.Len(t, got, 1)
	require.Equal(t, origin, got[0].Link)
}

func FuzzExtract(f *testing.F) {
	f.Add(`<li class="js-stream-content"><h3>a</h3><p>b</p><a href="c">d</a></li>`)
	f.Add("<html>")
	f.Fuzz(func(t *testing.T, in string) {
		for _, rec := range New(origin).Extract([]byte(in)) {
			if len(rec.Link) < len(origin) || rec.Link[:len(origin)] != origin {
				t.Fatalf("link %q lost the origin prefix", rec.Link)
			}
		}
	})
}
