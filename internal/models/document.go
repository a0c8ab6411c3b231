package models

// Extraction status values recorded on a DocumentRef.
const (
	ExtractionSuccess        = "success"
	ExtractionDownloadFailed = "download_failed"
	ExtractionFailed         = "extraction_failed"
	ExtractionNoURL          = "no_url"
)

// DocumentRef is a downloadable document linked from a site record.
// ID is the position in the discovery output and is not stable across calls.
type DocumentRef struct {
	ID          int    `json:"id"`
	DownloadURL string `json:"download_url"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	ActionCode  string `json:"action_code"`
	Name        string `json:"name"`
	Comment     string `json:"comment"`
	DocSeqNo    string `json:"doc_seq_no,omitempty"`

	// Set by extraction only.
	ExtractedText    string `json:"extracted_text,omitempty"`
	ExtractionStatus string `json:"extraction_status,omitempty"`
	TextLength       int    `json:"text_length,omitempty"`
}

// Succeeded reports whether text extraction completed for the document.
func (d *DocumentRef) Succeeded() bool {
	return d.ExtractionStatus == ExtractionSuccess
}

// ExtractionSummary counts per-status outcomes of a batch extraction.
type ExtractionSummary struct {
	Total           int `json:"total"`
	Successful      int `json:"successful"`
	Failed          int `json:"failed"`
	TotalTextLength int `json:"total_text_length"`
}
