package types

// RecordStatus is the overall status of a DocumentIntelligenceRecord.
// It is derived from the per-field statuses and never set directly:
// complete iff every field is ok, failed iff every field failed,
// partial otherwise.
type RecordStatus string

const (
	RecordStatusComplete RecordStatus = "complete"
	RecordStatusPartial  RecordStatus = "partial"
	RecordStatusFailed   RecordStatus = "failed"
)

// DeriveRecordStatus computes the overall status from per-field statuses.
// An empty map derives to failed: a record with no resolved fields has
// nothing usable to report.
func DeriveRecordStatus(fields map[Operation]ResultStatus) RecordStatus {
	if len(fields) == 0 {
		return RecordStatusFailed
	}

	var okCount int
	for _, st := range fields {
		if st.Succeeded() {
			okCount++
		}
	}

	switch okCount {
	case len(fields):
		return RecordStatusComplete
	case 0:
		return RecordStatusFailed
	default:
		return RecordStatusPartial
	}
}

// String returns the string representation of the record status
func (s RecordStatus) String() string {
	return string(s)
}
