package ollama

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns its chunks one Read at a time.
type chunkReader struct {
	chunks []string
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestLineDecoder(t *testing.T) {
	t.Run("keeps partial line across writes", func(t *testing.T) {
		var d LineDecoder
		var got []string
		emit := func(line []byte) bool {
			got = append(got, string(line))
			return true
		}

		d.Write([]byte(`{"status":"pull`), emit)
		assert.Empty(t, got)

		d.Write([]byte("ing\"}\n{\"status\":\"a\"}\n{\"sta"), emit)
		assert.Equal(t, []string{`{"status":"pulling"}`, `{"status":"a"}`}, got)

		d.Flush(emit)
		assert.Equal(t, `{"sta`, got[2])
	})

	t.Run("skips blank lines", func(t *testing.T) {
		var d LineDecoder
		var got []string
		d.Write([]byte("\n\n  \nx\r\n"), func(line []byte) bool {
			got = append(got, string(line))
			return true
		})
		assert.Equal(t, []string{"x"}, got)
	})

	t.Run("stops when emit returns false", func(t *testing.T) {
		var d LineDecoder
		calls := 0
		ok := d.Write([]byte("a\nb\nc\n"), func([]byte) bool {
			calls++
			return false
		})
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})
}

func TestReadProgress(t *testing.T) {
	tests := []struct {
		name       string
		chunks     []string
		wantDone   bool
		wantStatus []string
	}{
		{
			name:       "multiple objects in one chunk",
			chunks:     []string{"{\"status\":\"pulling manifest\"}\n{\"status\":\"downloading\"}\n{\"done\":true}\n"},
			wantDone:   true,
			wantStatus: []string{"pulling manifest", "downloading", ""},
		},
		{
			name:       "object split across chunks",
			chunks:     []string{`{"status":"down`, "loading\"}\n{\"stat", "us\":\"success\",\"done\":true}\n"},
			wantDone:   true,
			wantStatus: []string{"downloading", "success"},
		},
		{
			name:       "malformed lines are skipped",
			chunks:     []string{"garbage\n{\"status\":\"ok\"}\n{broken\n{\"done\":true}\n"},
			wantDone:   true,
			wantStatus: []string{"ok", ""},
		},
		{
			name:       "stream ends without done",
			chunks:     []string{"{\"status\":\"pulling\"}\n"},
			wantDone:   false,
			wantStatus: []string{"pulling"},
		},
		{
			name:       "single body without trailing newline",
			chunks:     []string{`{"status":"success","done":true}`},
			wantDone:   true,
			wantStatus: []string{"success"},
		},
		{
			name:       "stops reading after done",
			chunks:     []string{"{\"done\":true}\n{\"status\":\"late\"}\n"},
			wantDone:   true,
			wantStatus: []string{""},
		},
		{
			name:     "empty body",
			chunks:   nil,
			wantDone: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var statuses []string
			done, err := ReadProgress(&chunkReader{chunks: tt.chunks}, func(p PullProgress) {
				statuses = append(statuses, p.Status)
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDone, done)
			assert.Equal(t, tt.wantStatus, statuses)
		})
	}
}

func TestReadProgress_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	done, err := ReadProgress(&chunkReader{chunks: []string{"{\"status\":\"x\"}\n"}, err: boom}, nil)
	assert.False(t, done)
	assert.ErrorIs(t, err, boom)
}

func TestReadProgress_LargeLine(t *testing.T) {
	status := strings.Repeat("x", readChunkSize*3)
	body := `{"status":"` + status + `","done":true}` + "\n"

	var got string
	done, err := ReadProgress(strings.NewReader(body), func(p PullProgress) { got = p.Status })
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, status, got)
}
