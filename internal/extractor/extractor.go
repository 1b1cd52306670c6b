package extractor

import "context"

// Product is a single structured record produced by the extraction service.
// Fields are free-form; the intake service stores and forwards them untouched.
type Product map[string]any

// Result is the extraction outcome for one document.
type Result struct {
	Products             []Product `json:"products"`
	ProcessingSummary    string    `json:"processing_summary,omitempty"`
	ProcessingExceptions []string  `json:"processing_exceptions,omitempty"`
}

// Partial reports whether the extraction completed with exceptions, meaning
// fallback values were substituted for fields that could not be read.
func (r Result) Partial() bool {
	return len(r.ProcessingExceptions) > 0
}

// Request carries a document to the extraction service.
type Request struct {
	DocumentID string `json:"document_id"`
	Channel    string `json:"channel"`
	Filename   string `json:"filename,omitempty"`
	Sender     string `json:"sender,omitempty"`
	Subject    string `json:"subject,omitempty"`
	// Content is the raw document bytes, base64-encoded on the wire.
	Content []byte `json:"content"`
}

// Extractor sends a document to the external extraction service and returns
// its structured result.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}
