package services

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/proposalflow/internal/extract"
	"github.com/Lllllllleong/proposalflow/internal/gcp"
	"github.com/Lllllllleong/proposalflow/internal/models"
)

// ExtractorConfig holds configuration for the text-extractor service.
type ExtractorConfig struct {
	ProjectID           string
	ExtractedTextBucket string
	CollectionName      string
}

// ExtractorFunction holds dependencies for the text extraction step.
type ExtractorFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	chain           extract.Chain
	config          ExtractorConfig
}

// NewExtractor creates a new ExtractorFunction instance.
func NewExtractor(ctx context.Context) (*ExtractorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := ExtractorConfig{
		ProjectID:           projectID,
		ExtractedTextBucket: gcp.GetEnv("EXTRACTED_TEXT_BUCKET", ""),
		CollectionName:      gcp.GetEnv("FIRESTORE_COLLECTION", "proposals"),
	}
	if config.ExtractedTextBucket == "" {
		return nil, fmt.Errorf("EXTRACTED_TEXT_BUCKET must be set")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &ExtractorFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		chain:           extract.NewChain(),
		config:          config,
	}, nil
}

// Process downloads the uploaded proposal, runs the extraction chain, and
// stores the resulting text for the evaluator step. An empty extraction is a
// user-facing failure: the proposal record is marked FAILED with a message
// the reviewer UI can show, and the workflow step errors out.
func (f *ExtractorFunction) Process(ctx context.Context, req *models.TextExtractorRequest) (*models.TextExtractorResponse, error) {
	logCtx := slog.With("proposalId", req.ProposalID, "executionId", req.ExecutionID)
	logCtx.Info("Starting text extraction.", "sourceGcsUri", req.SourceGCSUri, "contentType", req.ContentType)

	docRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(req.ProposalID)
	if err := updateStatus(ctx, docRef, models.StatusExtracting, ""); err != nil {
		logCtx.Error("Failed to update status to EXTRACTING", "error", err)
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	bucket, object, err := gcp.ParseObjectURI(req.SourceGCSUri)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "invalid source URI", err)
	}
	data, err := gcp.ReadObject(ctx, f.storageClient, bucket, object)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to download proposal", err)
	}

	text := f.chain.Extract(data, req.ContentType)
	if text == "" {
		// Deliberately phrased for the reviewer UI, not for operators.
		err := fmt.Errorf("could not extract text from the uploaded proposal: %w", extract.ErrEmptyExtraction)
		return nil, f.handleError(ctx, logCtx, docRef, "extraction produced no text", err)
	}
	charCount := utf8.RuneCountInString(text)
	logCtx.Info("Extraction complete.", "charCount", charCount)

	objectName := fmt.Sprintf("%s/proposal.txt", req.ProposalID)
	bucketHandle := f.storageClient.Bucket(f.config.ExtractedTextBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, text); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to save extracted text", err)
	}
	outputGCSUri := gcp.ObjectURI(f.config.ExtractedTextBucket, objectName)

	updates := []firestore.Update{
		{Path: "status", Value: models.StatusExtracted},
		{Path: "charCount", Value: charCount},
		{Path: "extractedTextGcsUri", Value: outputGCSUri},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to update status to EXTRACTED", err)
	}

	logCtx.Info("Text extraction step complete.", "outputGcsUri", outputGCSUri)
	return &models.TextExtractorResponse{
		Status:              "success",
		ExtractedTextGCSUri: outputGCSUri,
		CharCount:           charCount,
	}, nil
}

func (f *ExtractorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}
