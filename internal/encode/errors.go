package encode

import "fmt"

// RecursiveCallError is returned when inlining would re-enter a function
// already on the active call stack. Call-inlining gives up rather than
// risk unsoundness: the driver turns this into an Unknown verdict instead
// of attempting to bound or unroll the recursion.
type RecursiveCallError struct {
	Callee string
	Stack  []string
}

func (e *RecursiveCallError) Error() string {
	return fmt.Sprintf("recursive call to %q (active call stack: %v)", e.Callee, e.Stack)
}

// UnsupportedWidthError marks an integer width outside {8,16,32,64}.
type UnsupportedWidthError struct {
	Width int
}

func (e *UnsupportedWidthError) Error() string {
	return fmt.Sprintf("unsupported integer width i%d", e.Width)
}

// CyclicCFGError marks a function whose control-flow graph contains a
// cycle. Loops are out of scope; the driver turns this into an Unknown
// verdict rather than attempting to bound or unroll the loop.
type CyclicCFGError struct {
	Function string
}

func (e *CyclicCFGError) Error() string {
	return fmt.Sprintf("function %q has a cyclic control-flow graph (loops are unsupported)", e.Function)
}
