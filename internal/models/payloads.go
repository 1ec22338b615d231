package models

// These structs define the JSON payloads for HTTP requests and responses
// between the evaluation Cloud Workflow and the worker Cloud Functions.

// TextExtractorRequest is the input for the text-extractor function.
type TextExtractorRequest struct {
	ProposalID   string `json:"proposalId"`
	SourceGCSUri string `json:"sourceGcsUri"`
	ContentType  string `json:"contentType"`
	ExecutionID  string `json:"executionId"`
}

// TextExtractorResponse is the output of the text-extractor function.
type TextExtractorResponse struct {
	Status              string `json:"status"`
	ExtractedTextGCSUri string `json:"extractedTextGcsUri"`
	CharCount           int    `json:"charCount"`
}

// ProposalEvaluatorRequest is the input for the proposal-evaluator function.
type ProposalEvaluatorRequest struct {
	ProposalID          string `json:"proposalId"`
	ExtractedTextGCSUri string `json:"extractedTextGcsUri"`
	ExecutionID         string `json:"executionId"`
}

// ProposalEvaluatorResponse is the output of the proposal-evaluator function.
type ProposalEvaluatorResponse struct {
	Status         string `json:"status"`
	AnalysisGCSUri string `json:"analysisGcsUri"`
}
