// Package graphio stores SAT graph instances on disk: a plain edge list that
// round-trips through the clustering tools, JSON, and DIMACS CNF export.
package graphio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxPrealloc caps the edge capacity reserved from an untrusted header.
const maxPrealloc = 1 << 20

// EdgeList is a bipartite SAT graph with clauses numbered from N on.
type EdgeList struct {
	N     int      `json:"n"`
	M     int      `json:"m"`
	Edges [][2]int `json:"edges"`
}

// SaveEdgeList writes the header "n m edges", then one "variable clause" line per edge.
func SaveEdgeList(w io.Writer, list *EdgeList) error {
	if list == nil {
		return fmt.Errorf("edge list cannot be nil")
	}
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%d %d %d\n", list.N, list.M, len(list.Edges)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range list.Edges {
		if _, err := fmt.Fprintf(bw, "%d %d\n", e[0], e[1]); err != nil {
			return fmt.Errorf("failed to write edge: %w", err)
		}
	}
	return bw.Flush()
}

// LoadEdgeList parses the SaveEdgeList format. Blank lines and lines starting
// with '#' are ignored. Indices are not range-checked here; clustering does that.
func LoadEdgeList(r io.Reader) (*EdgeList, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	var list *EdgeList
	expected := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if list == nil {
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: header must be \"n m edges\", got %q", lineNum, line)
			}
			values, err := parseInts(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			if values[0] < 0 || values[1] < 0 || values[2] < 0 {
				return nil, fmt.Errorf("line %d: negative count in header", lineNum)
			}
			list = &EdgeList{N: values[0], M: values[1], Edges: make([][2]int, 0, min(values[2], maxPrealloc))}
			expected = values[2]
			continue
		}

		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: edge must be \"variable clause\", got %q", lineNum, line)
		}
		values, err := parseInts(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		list.Edges = append(list.Edges, [2]int{values[0], values[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}

	if list == nil {
		return nil, fmt.Errorf("edge list is empty")
	}
	if len(list.Edges) != expected {
		return nil, fmt.Errorf("header announces %d edges, found %d", expected, len(list.Edges))
	}
	return list, nil
}

func parseInts(fields []string) ([]int, error) {
	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", f)
		}
		values[i] = v
	}
	return values, nil
}

// SaveFile saves an instance to path, creating parent directories.
// The format follows the extension: .json, .cnf (DIMACS, polarities drawn from
// seed), anything else is an edge list.
func SaveFile(list *EdgeList, path string, seed int64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(list); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case ".cnf", ".dimacs":
		err = WriteDIMACS(file, list, seed)
	default:
		err = SaveEdgeList(file, list)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// LoadFile reads an instance written by SaveFile in edge list or JSON format.
func LoadFile(path string) (*EdgeList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var list EdgeList
		if err := json.NewDecoder(file).Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return &list, nil
	}
	return LoadEdgeList(file)
}
