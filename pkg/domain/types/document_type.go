package types

// DocumentType classifies a legal document
type DocumentType string

const (
	DocumentTypeContract DocumentType = "contract"
	DocumentTypeBrief    DocumentType = "brief"
	DocumentTypeCaseFile DocumentType = "case_file"
	DocumentTypeStatute  DocumentType = "statute"
	DocumentTypeOther    DocumentType = "other"
)

// AllDocumentTypes returns all known document types
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeContract,
		DocumentTypeBrief,
		DocumentTypeCaseFile,
		DocumentTypeStatute,
		DocumentTypeOther,
	}
}

// IsKnown checks if the document type is one of the known values.
// Unknown types are accepted at ingestion but flagged, never rejected.
func (t DocumentType) IsKnown() bool {
	switch t {
	case DocumentTypeContract,
		DocumentTypeBrief,
		DocumentTypeCaseFile,
		DocumentTypeStatute,
		DocumentTypeOther:
		return true
	default:
		return false
	}
}

// Normalize returns the type, treating empty as DocumentTypeOther
func (t DocumentType) Normalize() DocumentType {
	if t == "" {
		return DocumentTypeOther
	}
	return t
}

// String returns the string representation of the document type
func (t DocumentType) String() string {
	return string(t)
}
