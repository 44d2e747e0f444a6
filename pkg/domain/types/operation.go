package types

import "fmt"

// Operation identifies one of the generative operations run per document
type Operation string

const (
	OperationSummarize       Operation = "summarize"
	OperationExtract         Operation = "extract"
	OperationClassifyUrgency Operation = "classify_urgency"
	OperationForecast        Operation = "forecast"
)

// AllOperations returns all generative operations in dispatch order
func AllOperations() []Operation {
	return []Operation{
		OperationSummarize,
		OperationExtract,
		OperationClassifyUrgency,
		OperationForecast,
	}
}

// IsValid checks if the operation is valid
func (o Operation) IsValid() bool {
	switch o {
	case OperationSummarize,
		OperationExtract,
		OperationClassifyUrgency,
		OperationForecast:
		return true
	default:
		return false
	}
}

// String returns the string representation of the operation
func (o Operation) String() string {
	return string(o)
}

// ParseOperation parses a string into an Operation
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.IsValid() {
		return "", fmt.Errorf("invalid operation: %s", s)
	}
	return op, nil
}
