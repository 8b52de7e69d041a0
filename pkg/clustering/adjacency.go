package clustering

import (
	"fmt"
	"slices"
)

// Adjacency holds both incidence views of a bipartite variable/clause graph.
// Clause indices are offset-corrected, so they run over [0, NumClauses).
type Adjacency struct {
	NumVariables int
	NumClauses   int
	VariableAdj  [][]int // VariableAdj[v] = sorted, duplicate-free clauses touching v
	ClauseAdj    [][]int // ClauseAdj[c] = variables of c in edge-list order
}

// BuildAdjacency creates both views from an edge list whose clause endpoints use
// the combined numbering [n, n+m). Repeated edges are kept once.
func BuildAdjacency(n, m int, edges [][2]int) (*Adjacency, error) {
	if n < 0 || m < 0 {
		return nil, fmt.Errorf("node counts must be non-negative: n=%d, m=%d", n, m)
	}

	adj := &Adjacency{
		NumVariables: n,
		NumClauses:   m,
		VariableAdj:  make([][]int, n),
		ClauseAdj:    make([][]int, m),
	}

	seen := make(map[[2]int]struct{}, len(edges))
	for i, edge := range edges {
		variable, clause := edge[0], edge[1]-n
		if variable < 0 || variable >= n || clause < 0 || clause >= m {
			return nil, &InputRangeError{Edge: i, Variable: edge[0], Clause: edge[1], N: n, M: m}
		}

		key := [2]int{variable, clause}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		adj.VariableAdj[variable] = append(adj.VariableAdj[variable], clause)
		adj.ClauseAdj[clause] = append(adj.ClauseAdj[clause], variable)
	}

	for _, clauses := range adj.VariableAdj {
		slices.Sort(clauses)
	}

	return adj, nil
}

// NumEdges returns the number of distinct incidences.
func (a *Adjacency) NumEdges() int {
	total := 0
	for _, vars := range a.ClauseAdj {
		total += len(vars)
	}
	return total
}

// VariableDegree returns the number of clauses containing v.
func (a *Adjacency) VariableDegree(v int) int { return len(a.VariableAdj[v]) }

// ClauseDegree returns the number of variables in clause c.
func (a *Adjacency) ClauseDegree(c int) int { return len(a.ClauseAdj[c]) }

// SharedClauses returns |VariableAdj[v1] ∩ VariableAdj[v2]| by a linear merge.
func (a *Adjacency) SharedClauses(v1, v2 int) int {
	left, right := a.VariableAdj[v1], a.VariableAdj[v2]
	shared := 0
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch {
		case left[i] < right[j]:
			i++
		case left[i] > right[j]:
			j++
		default:
			shared++
			i++
			j++
		}
	}
	return shared
}

// CheckTranspose verifies that VariableAdj and ClauseAdj describe the same
// incidence set, each incidence appearing exactly once on both sides.
func (a *Adjacency) CheckTranspose() error {
	if len(a.VariableAdj) != a.NumVariables || len(a.ClauseAdj) != a.NumClauses {
		return fmt.Errorf("view sizes %d/%d do not match counts %d/%d",
			len(a.VariableAdj), len(a.ClauseAdj), a.NumVariables, a.NumClauses)
	}

	variableSide := 0
	for v, clauses := range a.VariableAdj {
		for i, c := range clauses {
			if c < 0 || c >= a.NumClauses {
				return fmt.Errorf("variable %d lists invalid clause %d", v, c)
			}
			if i > 0 && clauses[i-1] >= c {
				return fmt.Errorf("clauses of variable %d are not strictly increasing", v)
			}
		}
		variableSide += len(clauses)
	}

	// lastSeen[v] = 1 + last clause that listed v
	lastSeen := make([]int, a.NumVariables)
	clauseSide := 0
	for c, vars := range a.ClauseAdj {
		for _, v := range vars {
			if v < 0 || v >= a.NumVariables {
				return fmt.Errorf("clause %d lists invalid variable %d", c, v)
			}
			if lastSeen[v] == c+1 {
				return fmt.Errorf("clause %d lists variable %d twice", c, v)
			}
			lastSeen[v] = c + 1
			if _, found := slices.BinarySearch(a.VariableAdj[v], c); !found {
				return fmt.Errorf("incidence (%d, %d) missing from variable view", v, c)
			}
		}
		clauseSide += len(vars)
	}

	if variableSide != clauseSide {
		return fmt.Errorf("variable view has %d incidences, clause view has %d", variableSide, clauseSide)
	}
	return nil
}
