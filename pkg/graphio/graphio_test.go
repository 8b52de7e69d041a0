package graphio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/satgirg-clustering/pkg/clustering"
)

func sampleList() *EdgeList {
	// Clauses 3 and 4 both contain variables 0 and 1.
	return &EdgeList{N: 3, M: 2, Edges: [][2]int{{0, 3}, {1, 3}, {2, 3}, {0, 4}, {1, 4}}}
}

func TestSaveAndLoadEdgeList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveEdgeList(&buf, sampleList()))
	assert.True(t, strings.HasPrefix(buf.String(), "3 2 5\n0 3\n"))

	loaded, err := LoadEdgeList(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleList(), loaded)
}

func TestLoadEdgeListSkipsCommentsAndBlankLines(t *testing.T) {
	input := "# generated\n\n2 1 2\n0 2\n# middle\n1 2\n\n"
	list, err := LoadEdgeList(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, &EdgeList{N: 2, M: 1, Edges: [][2]int{{0, 2}, {1, 2}}}, list)
}

func TestLoadEdgeListErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only comments", "# nothing\n"},
		{"short header", "2 1\n0 2\n"},
		{"negative header", "2 -1 0\n"},
		{"bad integer", "2 1 1\n0 x\n"},
		{"three fields", "2 1 1\n0 2 1\n"},
		{"count mismatch", "2 1 2\n0 2\n"},
		{"absurd edge count", "1 1 9000000000000000000\n0 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEdgeList(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestSaveFileFormats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	list := sampleList()

	for _, name := range []string{"graph.edgelist", "graph.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveFile(list, path, 1))

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, list, loaded)

			got, err := clustering.Compute(loaded.N, loaded.M, loaded.Edges)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.FourCycles)
		})
	}

	path := filepath.Join(dir, "graph.cnf")
	require.NoError(t, SaveFile(list, path, 1))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "p cnf 3 2\n")

	_, err = LoadFile(filepath.Join(dir, "missing.edgelist"))
	assert.Error(t, err)
}

func TestWriteDIMACS(t *testing.T) {
	list := &EdgeList{N: 3, M: 3, Edges: [][2]int{{0, 3}, {2, 3}, {1, 5}, {0, 3}}}

	var buf bytes.Buffer
	require.NoError(t, WriteDIMACS(&buf, list, 42))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "c "))
	assert.Equal(t, "p cnf 3 3", lines[1])

	literals := strings.Fields(lines[2])
	require.Len(t, literals, 3)
	assert.Contains(t, []string{"1", "-1"}, literals[0])
	assert.Contains(t, []string{"3", "-3"}, literals[1])
	assert.Equal(t, "0", literals[2])
	assert.Equal(t, "0", lines[3])
	assert.Contains(t, []string{"2 0", "-2 0"}, lines[4])

	var again bytes.Buffer
	require.NoError(t, WriteDIMACS(&again, list, 42))
	assert.Equal(t, buf.String(), again.String())
}

func TestWriteDIMACSRejectsOutOfRange(t *testing.T) {
	list := &EdgeList{N: 2, M: 1, Edges: [][2]int{{0, 5}}}
	err := WriteDIMACS(&bytes.Buffer{}, list, 0)
	assert.True(t, errors.Is(err, clustering.ErrInputRange))
	assert.Error(t, WriteDIMACS(&bytes.Buffer{}, nil, 0))
	assert.Error(t, SaveEdgeList(&bytes.Buffer{}, nil))
}
