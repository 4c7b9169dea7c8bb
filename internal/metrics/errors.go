package metrics

import "sort"

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorTimeout
	ErrorNetwork
	ErrorUnknown
)

var kindNames = map[ErrorKind]string{
	ErrorNone:    "none",
	ErrorTimeout: "timeout",
	ErrorNetwork: "network",
	ErrorUnknown: "unknown",
}

var kindLabels = map[ErrorKind]string{
	ErrorNone:    "No error",
	ErrorTimeout: "Request timeout",
	ErrorNetwork: "Network error",
	ErrorUnknown: "Unknown error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[ErrorUnknown]
}

// Label returns a human-friendly name for the kind.
func (k ErrorKind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return kindLabels[ErrorUnknown]
}

// ErrorCount is a single row of an error breakdown.
type ErrorCount struct {
	Message string
	Count   int
}

// SortedErrors converts an error map into rows sorted by descending count,
// then by message for stability.
func SortedErrors(errs map[string]int) []ErrorCount {
	if len(errs) == 0 {
		return nil
	}
	rows := make([]ErrorCount, 0, len(errs))
	for msg, count := range errs {
		rows = append(rows, ErrorCount{Message: msg, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Message < rows[j].Message
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
