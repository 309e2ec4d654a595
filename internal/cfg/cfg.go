// Package cfg derives per-function forward/backward edge maps and
// topological orders from the IR, inserting a synthetic common-end node
// that every return and every unreachable terminator flows into.
package cfg

import (
	"fmt"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/ir"
)

// CommonEndNode is the reserved name of the synthetic sink joining every
// return and every unreachable terminator.
const CommonEndNode = "common_end_node"

// EdgeSet maps a block name to the ordered, de-duplicated list of names it
// is adjacent to. Ordered (rather than a bare map[string]struct{}) so that
// repeated extraction of the same function is reproducible: encoding a
// function with the same namespace twice yields the same set of
// assertions.
type EdgeSet map[string][]string

func (s EdgeSet) add(from, to string) {
	for _, existing := range s[from] {
		if existing == to {
			return
		}
	}
	s[from] = append(s[from], to)
}

// Contains reports whether `to` is one of `from`'s adjacent names.
func (s EdgeSet) Contains(from, to string) bool {
	for _, existing := range s[from] {
		if existing == to {
			return true
		}
	}
	return false
}

// Graph is the CFG extracted for one namespaced copy of a function: forward
// and backward edge maps plus both topological orders.
type Graph struct {
	Forward  EdgeSet
	Backward EdgeSet
	// ForwardOrder lists every block name (including CommonEndNode) in
	// topological order; BackwardOrder is its reverse. The block encoder
	// (internal/encode) reads only Cyclic and encodes blocks in their
	// declared order, which its order-independent assertions allow.
	ForwardOrder  []string
	BackwardOrder []string
	// Cyclic is true when Kahn's algorithm could not emit every node; the
	// driver (internal/verify) must treat the function as unverifiable and
	// return "unknown".
	Cyclic bool
}

// Extract builds the CFG for fn's blocks, namespaced by prefix, with every
// return/unreachable terminator routed to returnTarget (internal/encode
// passes CommonEndNode; its call inlining rewrites the IR before extraction,
// so no caller routes returns to a call site's post-node).
func Extract(fn *ir.Function, prefix string, returnTarget string, sink diagnostics.Sink) *Graph {
	forward := make(EdgeSet)
	for _, b := range fn.Blocks {
		name := prefix + b.Label
		forward[name] = nil
		switch term := b.Terminator.(type) {
		case *ir.ReturnTerminator:
			forward.add(name, returnTarget)
		case *ir.UnreachableTerminator:
			forward.add(name, returnTarget)
		case *ir.BranchTerminator:
			if term.Cond == nil {
				forward.add(name, prefix+term.TrueLabel)
			} else {
				forward.add(name, prefix+term.TrueLabel)
				forward.add(name, prefix+term.FalseLabel)
			}
		case *ir.SwitchTerminator:
			forward.add(name, prefix+term.DefaultLabel)
			for _, c := range term.Cases {
				forward.add(name, prefix+c.Label)
			}
		case *ir.UnsupportedTerminator:
			sink.Warnf("block %s: terminator opcode %q is not supported for edge generation; function is effectively unverifiable", name, term.Opcode)
		default:
			sink.Warnf("block %s: terminator %T is not supported for edge generation", name, b.Terminator)
		}
	}

	backward := make(EdgeSet)
	for node := range forward {
		if _, ok := backward[node]; !ok {
			backward[node] = nil
		}
	}
	if _, ok := backward[returnTarget]; !ok {
		backward[returnTarget] = nil
	}
	for _, b := range fn.Blocks {
		name := prefix + b.Label
		for _, dst := range forward[name] {
			backward.add(dst, name)
		}
	}

	g := &Graph{Forward: forward, Backward: backward}
	g.ForwardOrder, g.Cyclic = kahnSort(forward, backward, returnTarget)
	g.BackwardOrder = reverse(g.ForwardOrder)
	if g.Cyclic {
		sink.Warnf("CFG rooted at %s is cyclic, which is not supported", prefix)
	}
	return g
}

// kahnSort runs Kahn's algorithm (in-degree elimination) over every node
// reachable in forward/backward, including the synthetic sink.
func kahnSort(forward, backward EdgeSet, sink string) (order []string, cyclic bool) {
	nodes := make([]string, 0, len(backward))
	indegree := make(map[string]int, len(backward))
	for node, preds := range backward {
		nodes = append(nodes, node)
		indegree[node] = len(preds)
	}
	if _, ok := indegree[sink]; !ok {
		nodes = append(nodes, sink)
		indegree[sink] = 0
	}

	emitted := make(map[string]bool, len(nodes))
	for len(order) < len(nodes) {
		progressed := false
		for _, node := range nodes {
			if emitted[node] || indegree[node] != 0 {
				continue
			}
			emitted[node] = true
			order = append(order, node)
			progressed = true
			for _, dst := range forward[node] {
				indegree[dst]--
			}
		}
		if !progressed {
			return order, true
		}
	}
	return order, false
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// String renders a Graph for debugging/tracing.
func (g *Graph) String() string {
	return fmt.Sprintf("forward=%v backward=%v order=%v cyclic=%v", g.Forward, g.Backward, g.ForwardOrder, g.Cyclic)
}
