package graph

// FraudRing is a detected cycle: an ordered, rotation-canonical sequence of
// member accounts along which funds circulate back to the originator.
type FraudRing struct {
	Members          []string
	TotalFlow        float64
	TransactionCount int
	RiskScore        float64
	CycleLength      int
}

// FlowAlongRing sums every edge amount and transaction count for each
// consecutive directed pair in the ring (wrapping from the last member back
// to the first), across every parallel edge in EdgeIndex.
func FlowAlongRing(g *Graph, members []string) (totalFlow float64, txCount int, amounts []float64) {
	n := len(members)
	for i := 0; i < n; i++ {
		sender := members[i]
		receiver := members[(i+1)%n]
		edges := g.EdgeIndex[EdgeKey{Sender: sender, Receiver: receiver}]
		for _, e := range edges {
			totalFlow += e.Amount
			amounts = append(amounts, e.Amount)
			txCount++
		}
	}
	return totalFlow, txCount, amounts
}
