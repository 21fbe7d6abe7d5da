// Package graph holds the transaction multigraph and its derived per-account
// statistics. A Graph is built once per pipeline invocation and never
// mutated afterward — downstream detectors hold read-only views.
package graph

import "time"

// Edge is a single transaction between two accounts. Immutable once built.
type Edge struct {
	TransactionID string
	Sender        string
	Receiver      string
	Amount        float64
	Timestamp     time.Time
}

// NodeStats aggregates everything the detectors need about one account.
type NodeStats struct {
	AccountID        string
	TotalSent        float64
	TotalReceived    float64
	InDegree         int
	OutDegree        int
	UniqueSenders    map[string]struct{}
	UniqueReceivers  map[string]struct{}
	TransactionCount int
	FirstTx          time.Time
	LastTx           time.Time
	hasFirstTx       bool
}

// recompute sets TransactionCount to in_degree + out_degree, the definition
// the scorer and guard use for "transaction_count".
func (s *NodeStats) recompute() {
	s.TransactionCount = s.InDegree + s.OutDegree
}

// Graph is the single shared structure passed read-only between stages.
type Graph struct {
	// Adjacency preserves input (insertion) order per account, as required
	// for deterministic SCC discovery and cycle-start selection.
	Adjacency        map[string][]Edge
	ReverseAdjacency map[string][]Edge
	EdgeIndex        map[EdgeKey][]Edge
	Nodes            map[string]struct{}
	Stats            map[string]*NodeStats
	RawTransactions  []Edge

	// NodeOrder preserves the order in which accounts were first seen, used
	// wherever "insertion order" tie-breaking is required.
	NodeOrder []string
}

// EdgeKey identifies a (sender, receiver) ordered pair in EdgeIndex.
type EdgeKey struct {
	Sender   string
	Receiver string
}

// New returns an empty Graph ready for Builder.Build to populate.
func New() *Graph {
	return &Graph{
		Adjacency:        make(map[string][]Edge),
		ReverseAdjacency: make(map[string][]Edge),
		EdgeIndex:        make(map[EdgeKey][]Edge),
		Nodes:            make(map[string]struct{}),
		Stats:            make(map[string]*NodeStats),
	}
}

func (g *Graph) statsFor(account string) *NodeStats {
	s, ok := g.Stats[account]
	if !ok {
		s = &NodeStats{
			AccountID:       account,
			UniqueSenders:   make(map[string]struct{}),
			UniqueReceivers: make(map[string]struct{}),
		}
		g.Stats[account] = s
	}
	return s
}

func (g *Graph) addNode(account string) {
	if _, ok := g.Nodes[account]; !ok {
		g.Nodes[account] = struct{}{}
		g.NodeOrder = append(g.NodeOrder, account)
	}
}

// AddEdge performs the single linear-pass update described by the graph
// builder contract: adjacency, reverse adjacency, edge index, node set, and
// both endpoints' stats.
func (g *Graph) AddEdge(e Edge) {
	g.Adjacency[e.Sender] = append(g.Adjacency[e.Sender], e)
	g.ReverseAdjacency[e.Receiver] = append(g.ReverseAdjacency[e.Receiver], e)

	key := EdgeKey{Sender: e.Sender, Receiver: e.Receiver}
	g.EdgeIndex[key] = append(g.EdgeIndex[key], e)

	g.addNode(e.Sender)
	g.addNode(e.Receiver)
	g.RawTransactions = append(g.RawTransactions, e)

	sender := g.statsFor(e.Sender)
	sender.TotalSent += e.Amount
	sender.OutDegree++
	sender.UniqueReceivers[e.Receiver] = struct{}{}
	sender.recompute()
	updateTemporalExtent(sender, e.Timestamp)

	receiver := g.statsFor(e.Receiver)
	receiver.TotalReceived += e.Amount
	receiver.InDegree++
	receiver.UniqueSenders[e.Sender] = struct{}{}
	receiver.recompute()
	updateTemporalExtent(receiver, e.Timestamp)
}

// updateTemporalExtent keeps FirstTx/LastTx monotonic across every edge
// touching this account, sender or receiver side alike.
func updateTemporalExtent(s *NodeStats, ts time.Time) {
	if !s.hasFirstTx || ts.Before(s.FirstTx) {
		s.FirstTx = ts
		s.hasFirstTx = true
	}
	if ts.After(s.LastTx) {
		s.LastTx = ts
	}
}

// NumNodes returns the number of distinct accounts seen.
func (g *Graph) NumNodes() int { return len(g.Nodes) }

// NumEdges returns the number of transactions ingested.
func (g *Graph) NumEdges() int { return len(g.RawTransactions) }
