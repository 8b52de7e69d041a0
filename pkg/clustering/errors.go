package clustering

import (
	"errors"
	"fmt"
)

// ErrInputRange is matched by every *InputRangeError via errors.Is.
var ErrInputRange = errors.New("edge index out of range")

// InputRangeError reports an edge whose endpoints fall outside the declared
// node counts. Clause is in combined numbering, i.e. valid values are [N, N+M).
type InputRangeError struct {
	Edge     int `json:"edge"`
	Variable int `json:"variable"`
	Clause   int `json:"clause"`
	N        int `json:"n"`
	M        int `json:"m"`
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("edge %d (%d, %d) out of range: variables must be in [0,%d), clauses in [%d,%d)",
		e.Edge, e.Variable, e.Clause, e.N, e.N, e.N+e.M)
}

func (e *InputRangeError) Unwrap() error {
	return ErrInputRange
}
