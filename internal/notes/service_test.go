package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesummary/internal/metrics"
	"notesummary/internal/summary"
)

// fakeSummarizer replays a queue of generate errors, then succeeds.
type fakeSummarizer struct {
	mu          sync.Mutex
	genErrs     []error
	ensureErr   error
	healthy     bool
	generates   int
	ensures     int
	lastContent string
}

func (f *fakeSummarizer) Generate(_ context.Context, content string) (summary.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generates++
	f.lastContent = content
	if len(f.genErrs) > 0 {
		err := f.genErrs[0]
		f.genErrs = f.genErrs[1:]
		if err != nil {
			return summary.Result{}, err
		}
	}
	return summary.Result{Title: "Groceries", Summary: "Buy milk and eggs.", Tier: summary.TierJSON}, nil
}

func (f *fakeSummarizer) EnsureModelLoaded(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensures++
	return f.ensureErr
}

func (f *fakeSummarizer) CheckHealth(context.Context) bool { return f.healthy }

func (f *fakeSummarizer) Model() string { return "test-model" }

func newTestService(t *testing.T, sum Summarizer) (*Service, *Store) {
	t.Helper()
	store := openTestStore(t)
	svc := NewService(store, sum, discardLogger(), metrics.New())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC) }
	svc.newID = func() string { return "id-1" }
	return svc, store
}

func modelMissing() error {
	return fmt.Errorf("%w: status 404", summary.ErrModelNotFound)
}

func TestService_Create(t *testing.T) {
	sum := &fakeSummarizer{}
	svc, store := newTestService(t, sum)

	note, err := svc.Create(context.Background(), CreateNoteInput{Content: "  buy milk and eggs\n"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", note.ID)
	assert.Equal(t, "buy milk and eggs", note.Content)
	assert.Equal(t, "buy milk and eggs", sum.lastContent)
	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, "Buy milk and eggs.", note.Summary)
	assert.Equal(t, "2024-05-01T10:30:00.123Z", note.CreatedAt)
	assert.Equal(t, 1, store.Len())

	got, err := svc.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, *note, *got)
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"empty", "", "Note content is required and cannot be empty"},
		{"whitespace only", "  \n\t ", "Note content is required and cannot be empty"},
		{"too long", strings.Repeat("a", MaxContentLen+1), "Note content is too long (max 10000 characters)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := &fakeSummarizer{}
			svc, store := newTestService(t, sum)

			_, err := svc.Create(context.Background(), CreateNoteInput{Content: tt.content})

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.Zero(t, sum.generates, "no model call on invalid input")
			assert.Zero(t, store.Len())
		})
	}
}

func TestService_CreateAtLengthLimit(t *testing.T) {
	svc, _ := newTestService(t, &fakeSummarizer{})

	// Multi-byte runes count once each.
	_, err := svc.Create(context.Background(), CreateNoteInput{Content: strings.Repeat("é", MaxContentLen)})
	require.NoError(t, err)
}

func TestService_CreateRetriesOnceAfterPull(t *testing.T) {
	sum := &fakeSummarizer{genErrs: []error{modelMissing()}}
	svc, store := newTestService(t, sum)

	note, err := svc.Create(context.Background(), CreateNoteInput{Content: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, 2, sum.generates)
	assert.Equal(t, 1, sum.ensures)
	assert.Equal(t, 1, store.Len())
}

func TestService_CreateRecoveryFailures(t *testing.T) {
	t.Run("pull fails", func(t *testing.T) {
		sum := &fakeSummarizer{
			genErrs:   []error{modelMissing()},
			ensureErr: fmt.Errorf("%w: status 500", summary.ErrModelPullFailed),
		}
		svc, store := newTestService(t, sum)

		_, err := svc.Create(context.Background(), CreateNoteInput{Content: "notes"})
		require.ErrorIs(t, err, ErrModelNotReady)
		assert.ErrorIs(t, err, summary.ErrModelPullFailed)
		assert.Equal(t, 1, sum.generates)
		assert.Zero(t, store.Len())
	})

	t.Run("retry fails", func(t *testing.T) {
		sum := &fakeSummarizer{genErrs: []error{modelMissing(), modelMissing()}}
		svc, store := newTestService(t, sum)

		_, err := svc.Create(context.Background(), CreateNoteInput{Content: "notes"})
		require.ErrorIs(t, err, ErrModelNotReady)
		assert.Equal(t, 2, sum.generates, "retried exactly once")
		assert.Equal(t, 1, sum.ensures)
		assert.Zero(t, store.Len())
	})
}

func TestService_CreateBackendUnavailable(t *testing.T) {
	sum := &fakeSummarizer{genErrs: []error{fmt.Errorf("%w: connection refused", summary.ErrBackendUnavailable)}}
	svc, store := newTestService(t, sum)

	_, err := svc.Create(context.Background(), CreateNoteInput{Content: "notes"})
	require.ErrorIs(t, err, summary.ErrBackendUnavailable)
	assert.False(t, errors.Is(err, ErrModelNotReady))
	assert.Zero(t, sum.ensures, "only a missing model triggers a pull")
	assert.Zero(t, store.Len())
}

func TestService_ListAndMissing(t *testing.T) {
	sum := &fakeSummarizer{}
	svc, _ := newTestService(t, sum)
	ids := []string{"a", "b"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	for range 2 {
		_, err := svc.Create(context.Background(), CreateNoteInput{Content: "x"})
		require.NoError(t, err)
	}

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 2, svc.Count())

	_, err = svc.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestService_RenderMarkdown(t *testing.T) {
	svc, _ := newTestService(t, &fakeSummarizer{})

	html := svc.RenderMarkdown("**bold** <script>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>", "raw HTML is not passed through")
}
