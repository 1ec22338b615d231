package models

import "time"

// Proposal statuses, in lifecycle order. FAILED is terminal and carries
// ErrorDetails for the reviewer-facing UI.
const (
	StatusValidating = "VALIDATING"
	StatusAccepted   = "ACCEPTED"
	StatusExtracting = "EXTRACTING"
	StatusExtracted  = "EXTRACTED"
	StatusEvaluating = "EVALUATING"
	StatusEvaluated  = "EVALUATED"
	StatusFailed     = "FAILED"
)

// Proposal is the master record for one uploaded proposal in Firestore.
// It tracks the file's identity, the pipeline status, and the GCS locations
// of the derived artifacts.
type Proposal struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	ContentType         string    `firestore:"contentType,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	CharCount           int       `firestore:"charCount,omitempty"`
	ExtractedTextGCSUri string    `firestore:"extractedTextGcsUri,omitempty"`
	AnalysisGCSUri      string    `firestore:"analysisGcsUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}
