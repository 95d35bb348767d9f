package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not set", keyStatus(""))
	assert.Equal(t, "configured", keyStatus("short"))
	assert.Equal(t, "sk-a...wxyz (configured)", keyStatus("sk-abcdefgh-tuvwxyz"))
}

func writeIndexFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadIndexFile(t *testing.T) {
	t.Parallel()

	t.Run("parses documents", func(t *testing.T) {
		t.Parallel()
		path := writeIndexFile(t, `{"id":"d1","content":"العاصمة هي الرباط","metadata":{"topic":"geo"}}
{"content":"وثيقة بدون معرف"}

{"id":"d3","content":"ثالثة"}
`)

		docs, err := readIndexFile(path)
		require.NoError(t, err)
		require.Len(t, docs, 3, "blank lines are skipped")

		assert.Equal(t, "d1", docs[0].ID)
		assert.Equal(t, "العاصمة هي الرباط", docs[0].Content)
		assert.Equal(t, map[string]string{"topic": "geo"}, docs[0].Metadata)
		assert.Empty(t, docs[1].ID)
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()
		_, err := readIndexFile(filepath.Join(t.TempDir(), "absent.jsonl"))
		assert.Error(t, err)
	})

	t.Run("malformed line reports line number", func(t *testing.T) {
		t.Parallel()
		path := writeIndexFile(t, `{"content":"سليمة"}
{broken json}
`)

		_, err := readIndexFile(path)
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("missing content reports line number", func(t *testing.T) {
		t.Parallel()
		path := writeIndexFile(t, `{"id":"no-content"}`)

		_, err := readIndexFile(path)
		assert.ErrorContains(t, err, "content is required")
		assert.ErrorContains(t, err, "line 1")
	})
}
