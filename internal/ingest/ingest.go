// Package ingest parses, validates, and cleans the incoming transaction CSV
// before it reaches graph construction.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rawblock/fraudring-engine/internal/graph"
)

var requiredColumns = []string{"transaction_id", "sender_id", "receiver_id", "amount", "timestamp"}

// ValidationError reports one or more issues found while reading a CSV
// upload. It is always a client-visible, 4xx-class failure.
type ValidationError struct {
	Message string
	Issues  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Issues, "; "))
}

// QualityReport summarizes the cleaning pass, produced only when validation
// is explicitly requested.
type QualityReport struct {
	TotalTransactions   int
	UniqueAccounts      int
	DateRangeStart      time.Time
	DateRangeEnd        time.Time
	DateRangeDays       int
	AmountMin           float64
	AmountMax           float64
	AmountMean          float64
	DuplicatesRemoved   int
	SelfTxRemoved       int
	NullValuesRemoved   int
}

// Parse reads a CSV stream into a slice of graph.Edge, applying the cleaning
// rules: trimmed/upper-cased account IDs, duplicate-transaction-ID removal
// (first occurrence kept), self-transaction removal, non-positive-amount
// removal, and a stable sort by timestamp. enableValidation additionally
// runs the stricter §7 checks and returns a QualityReport.
func Parse(r io.Reader, enableValidation bool) ([]graph.Edge, *QualityReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, &ValidationError{Message: "CSV file is empty", Issues: []string{"no data rows found in the CSV file"}}
	}
	if err != nil {
		return nil, nil, &ValidationError{Message: "failed to read CSV header", Issues: []string{err.Error()}}
	}

	colIdx, missing := indexColumns(header)
	if len(missing) > 0 {
		return nil, nil, &ValidationError{
			Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
			Issues:  []string{fmt.Sprintf("required columns: %s", strings.Join(requiredColumns, ", "))},
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &ValidationError{Message: "failed to parse CSV body", Issues: []string{err.Error()}}
	}
	if len(rows) == 0 {
		return nil, nil, &ValidationError{Message: "CSV file is empty", Issues: []string{"no data rows found in the CSV file"}}
	}

	var issues []string
	seenTxIDs := make(map[string]struct{}, len(rows))
	var edges []graph.Edge
	duplicates, selfTx, nulls := 0, 0, 0

	for i, row := range rows {
		txID := strings.TrimSpace(row[colIdx["transaction_id"]])
		sender := strings.ToUpper(strings.TrimSpace(row[colIdx["sender_id"]]))
		receiver := strings.ToUpper(strings.TrimSpace(row[colIdx["receiver_id"]]))
		amountRaw := strings.TrimSpace(row[colIdx["amount"]])
		tsRaw := strings.TrimSpace(row[colIdx["timestamp"]])

		if txID == "" || sender == "" || receiver == "" || amountRaw == "" || tsRaw == "" {
			nulls++
			issues = append(issues, fmt.Sprintf("row %d: null/missing required field", i+2))
			continue
		}

		amount, err := strconv.ParseFloat(amountRaw, 64)
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d: non-numeric amount %q", i+2, amountRaw))
			continue
		}
		if amount <= 0 {
			issues = append(issues, fmt.Sprintf("row %d: non-positive amount %v", i+2, amount))
			continue
		}

		ts, err := parseTimestamp(tsRaw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d: unparseable timestamp %q", i+2, tsRaw))
			continue
		}

		if _, dup := seenTxIDs[txID]; dup {
			duplicates++
			continue
		}
		seenTxIDs[txID] = struct{}{}

		if sender == receiver {
			selfTx++
			issues = append(issues, fmt.Sprintf("row %d: self-transaction (sender = receiver = %s)", i+2, sender))
			continue
		}

		edges = append(edges, graph.Edge{
			TransactionID: txID,
			Sender:        sender,
			Receiver:      receiver,
			Amount:        amount,
			Timestamp:     ts,
		})
	}

	if enableValidation && len(issues) > 0 {
		return nil, nil, &ValidationError{Message: "data validation failed", Issues: issues}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Timestamp.Before(edges[j].Timestamp)
	})

	var report *QualityReport
	if enableValidation {
		report = buildQualityReport(edges, duplicates, selfTx, nulls)
	}

	return edges, report, nil
}

func indexColumns(header []string) (map[string]int, []string) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return idx, missing
}

// parseTimestamp accepts RFC3339 first (the documented wire format), falling
// back to a couple of common loose layouts the original pandas-based reader
// tolerated.
func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func buildQualityReport(edges []graph.Edge, duplicates, selfTx, nulls int) *QualityReport {
	if len(edges) == 0 {
		return &QualityReport{DuplicatesRemoved: duplicates, SelfTxRemoved: selfTx, NullValuesRemoved: nulls}
	}

	accounts := make(map[string]struct{})
	var sum, min, max float64
	min = edges[0].Amount
	for i, e := range edges {
		accounts[e.Sender] = struct{}{}
		accounts[e.Receiver] = struct{}{}
		sum += e.Amount
		if e.Amount < min {
			min = e.Amount
		}
		if e.Amount > max || i == 0 {
			max = e.Amount
		}
	}

	start, end := edges[0].Timestamp, edges[0].Timestamp
	for _, e := range edges {
		if e.Timestamp.Before(start) {
			start = e.Timestamp
		}
		if e.Timestamp.After(end) {
			end = e.Timestamp
		}
	}

	return &QualityReport{
		TotalTransactions: len(edges),
		UniqueAccounts:    len(accounts),
		DateRangeStart:    start,
		DateRangeEnd:      end,
		DateRangeDays:     int(end.Sub(start).Hours() / 24),
		AmountMin:         min,
		AmountMax:         max,
		AmountMean:        sum / float64(len(edges)),
		DuplicatesRemoved: duplicates,
		SelfTxRemoved:     selfTx,
		NullValuesRemoved: nulls,
	}
}

// DetectAccountType classifies an account by ID substring first, falling
// back to degree-shape heuristics — a direct, non-gating port of
// AccountEnricher.detect_account_type. Never influences detection or
// scoring; purely descriptive enrichment on the output.
func DetectAccountType(accountID string, inDegree, outDegree int) string {
	upper := strings.ToUpper(accountID)

	switch {
	case containsAny(upper, "MERCHANT", "STORE", "SHOP", "MARKET"):
		return "merchant"
	case containsAny(upper, "BANK", "CREDIT", "SAVINGS"):
		return "bank"
	case containsAny(upper, "PAYROLL", "SALARY", "WAGE"):
		return "payroll"
	case containsAny(upper, "CRYPTO", "BITCOIN", "EXCHANGE"):
		return "crypto"
	}

	switch {
	case inDegree > 50 && outDegree < 10:
		return "likely_merchant"
	case outDegree > 50 && inDegree < 10:
		return "likely_payroll"
	case inDegree > 20 && outDegree > 20:
		return "likely_exchange"
	}

	return "individual"
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
