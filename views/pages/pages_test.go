package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesummary/views/models"
)

var sample = models.NoteView{
	ID:          "abc-123",
	Title:       `Plan <"Q3">`,
	Content:     "<script>alert(1)</script>",
	SummaryHTML: "<p>Ship it.</p>\n",
	CreatedAt:   time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
}

func TestHomePage(t *testing.T) {
	var buf bytes.Buffer
	err := HomePage(models.StatusView{Model: "llama3.2:3b", Connected: true, Total: 1}, []models.NoteView{sample}).
		Render(context.Background(), &buf)
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!doctype html><html lang=\"en\">"))
	assert.Contains(t, out, "<title>Notes</title>")
	assert.Contains(t, out, "Model llama3.2:3b (connected)")
	assert.Contains(t, out, `<a href="/notes/abc-123">Plan &lt;&#34;Q3&#34;&gt;</a>`)
	assert.Contains(t, out, "<p>Ship it.</p>")
	assert.Contains(t, out, "May 1, 2024 10:30")
	assert.NotContains(t, out, "<script>")
}

func TestHomePage_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HomePage(models.StatusView{Model: "m"}, nil).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "No notes yet")
	assert.Contains(t, buf.String(), "(disconnected)")
}

func TestNotePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NotePage(sample).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `<a href="/">`)
	assert.Contains(t, out, `<li class="note"><h2>Plan &lt;&#34;Q3&#34;&gt;</h2>`, "no link to itself")
	assert.True(t, strings.HasSuffix(out, "</pre></main></body></html>"))
}

func TestNotePage_Untitled(t *testing.T) {
	n := sample
	n.Title = ""

	var buf bytes.Buffer
	require.NoError(t, NotePage(n).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<title>Untitled note</title>")
}

func TestStatusBanner(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, statusBanner(models.StatusView{Model: "qwen<2>", Connected: true, Total: 3}).Render(context.Background(), &buf))

	assert.Equal(t, `<p class="status" data-state="connected">Model qwen&lt;2&gt; (connected) &middot; 3 notes</p>`, buf.String())
}

func TestNoteCard_Markup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, noteCard(sample, true).Render(context.Background(), &buf))

	assert.Equal(t, `<li class="note"><h2><a href="/notes/abc-123">Plan &lt;&#34;Q3&#34;&gt;</a></h2>`+
		`<time datetime="2024-05-01T10:30:00Z">May 1, 2024 10:30</time>`+
		"<div class=\"summary\"><p>Ship it.</p>\n</div></li>", buf.String())
}

func TestHomePage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := HomePage(models.StatusView{Model: "m"}, []models.NoteView{sample}).Render(ctx, &buf)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}
