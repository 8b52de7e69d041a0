package graphio

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/gilchrisn/satgirg-clustering/pkg/clustering"
)

// WriteDIMACS exports the instance as a CNF formula. Each clause lists its
// variables (1-based) in edge order with a polarity drawn from seed; a clause
// without variables is written as a lone "0".
func WriteDIMACS(w io.Writer, list *EdgeList, seed int64) error {
	if list == nil {
		return fmt.Errorf("edge list cannot be nil")
	}
	adj, err := clustering.BuildAdjacency(list.N, list.M, list.Edges)
	if err != nil {
		return fmt.Errorf("invalid instance: %w", err)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0x434e46))
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "c satgirg instance, %d edges\n", adj.NumEdges())
	fmt.Fprintf(bw, "p cnf %d %d\n", list.N, list.M)
	for _, vars := range adj.ClauseAdj {
		for _, v := range vars {
			lit := v + 1
			if rng.IntN(2) == 0 {
				lit = -lit
			}
			fmt.Fprintf(bw, "%d ", lit)
		}
		fmt.Fprintln(bw, "0")
	}
	return bw.Flush()
}
