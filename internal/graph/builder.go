package graph

// Builder turns a validated edge list into a Graph. It performs a single
// linear pass over the edges, as required by the builder contract: no
// re-scans, no lookahead.
type Builder struct{}

// NewBuilder returns a graph builder. It carries no state of its own — a
// Graph is produced fresh per invocation and discarded at the end of the
// pipeline run.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs a Graph from a cleaned, validated edge list. The caller
// (internal/ingest) is responsible for rejecting malformed rows before this
// is called; Build itself has no other failure mode than an empty input,
// which yields a valid, empty Graph rather than an error.
func (b *Builder) Build(edges []Edge) *Graph {
	g := New()
	for _, e := range edges {
		g.AddEdge(e)
	}
	return g
}
