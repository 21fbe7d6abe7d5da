package detect

// tarjanSCC computes the strongly connected components of ig using an
// explicit work stack rather than recursion — call depths on financial
// transaction graphs can exceed what a recursive implementation safely
// handles. Each returned SCC is a slice of interned node indices; iteration
// order over starting nodes follows ig.accountOf's insertion order, so the
// result is deterministic for a given input.
func tarjanSCC(ig *internedGraph) [][]int {
	n := len(ig.accountOf)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int // the Tarjan "on-path" stack, distinct from the work stack below
	var sccs [][]int
	nextIndex := 0

	// frame is one explicit call frame of strongconnect(v), replacing the
	// recursive version's call stack. childIdx tracks how far through v's
	// adjacency list we've iterated so the frame can be resumed after a
	// simulated recursive call into a neighbor returns.
	type frame struct {
		node     int
		childIdx int
	}

	for start := 0; start < n; start++ {
		if index[start] != -1 {
			continue
		}

		work := []frame{{node: start, childIdx: 0}}

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.node

			if top.childIdx == 0 {
				index[v] = nextIndex
				lowlink[v] = nextIndex
				nextIndex++
				stack = append(stack, v)
				onStack[v] = true
			}

			recursed := false
			for top.childIdx < len(ig.adj[v]) {
				w := ig.adj[v][top.childIdx]
				top.childIdx++

				if index[w] == -1 {
					work = append(work, frame{node: w, childIdx: 0})
					recursed = true
					break
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
			}
			if recursed {
				continue
			}

			// All of v's neighbors are processed; pop v's frame and, if v
			// is an SCC root, peel its component off the on-path stack.
			work = work[:len(work)-1]

			if len(work) > 0 {
				parent := work[len(work)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}

			if lowlink[v] == index[v] {
				var scc []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}

	return sccs
}
