package types

// ResultStatus is the outcome of a single sub-operation attempt
type ResultStatus string

const (
	ResultStatusOK           ResultStatus = "ok"
	ResultStatusServiceError ResultStatus = "service_error"
	ResultStatusParseError   ResultStatus = "parse_error"
	ResultStatusTimeout      ResultStatus = "timeout"
	ResultStatusNotFound     ResultStatus = "not_found"
)

// IsValid checks if the result status is valid
func (s ResultStatus) IsValid() bool {
	switch s {
	case ResultStatusOK,
		ResultStatusServiceError,
		ResultStatusParseError,
		ResultStatusTimeout,
		ResultStatusNotFound:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the attempt produced a usable value
func (s ResultStatus) Succeeded() bool {
	return s == ResultStatusOK
}

// String returns the string representation of the result status
func (s ResultStatus) String() string {
	return string(s)
}
