package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/proposalflow/internal/extract"
	"github.com/Lllllllleong/proposalflow/internal/gcp"
	"github.com/Lllllllleong/proposalflow/internal/models"
)

type IntakeConfig struct {
	ProjectID        string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
}

// IntakeFunction handles a newly uploaded proposal file: it deduplicates by
// content hash, validates PDFs, records the proposal in Firestore, and hands
// off to the evaluation workflow.
type IntakeFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	config           IntakeConfig
}

// GCSEvent is the payload of a GCS object-finalized event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewIntake(ctx context.Context) (*IntakeFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := IntakeConfig{
		ProjectID:        projectID,
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "proposals"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "proposal-evaluation-orchestrator"),
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	f := &IntakeFunction{
		firestoreClient:  firestoreClient,
		storageClient:    storageClient,
		executionsClient: executionsClient,
		config:           config,
	}
	slog.Info("Proposal intake logic initialized.", "workflowId", config.WorkflowID)
	return f, nil
}

func (f *IntakeFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new proposal upload.")

	tempDir, err := os.MkdirTemp("", "proposal-intake-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, "upload"+strings.ToLower(filepath.Ext(e.Name)))
	if err := f.downloadUpload(ctx, e.Bucket, e.Name, localPath); err != nil {
		logCtx.Error("Failed to download uploaded proposal", "error", err)
		return err
	}

	fileHash, err := calculateFileHash(localPath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	isDuplicate, existingID, err := f.isDuplicate(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate proposal detected. Skipping.", "existingProposalId", existingID)
		return nil // Clean exit for a duplicate
	}

	contentType := ContentTypeForObject(e.Name)
	docRef, err := f.createInitialProposal(ctx, fileHash, e.Name, contentType)
	if err != nil {
		logCtx.Error("Failed to create initial Firestore record", "error", err)
		return err
	}
	logCtx = logCtx.With("proposalId", docRef.ID)
	logCtx.Info("Created proposal record in Firestore.", "contentType", contentType)

	// PDFs get a structural check before the pipeline spends a model call on
	// them. A validation failure here is not fatal: extraction has its own
	// fallback chain, so we record zero pages and carry on.
	var pageCount int
	if contentType == extract.MediaTypePDF {
		pageCount, err = pdfPageCount(localPath, tempDir)
		if err != nil {
			logCtx.Warn("PDF validation failed; extraction will rely on fallbacks.", "error", err)
			pageCount = 0
		}
	}

	if err := f.acceptProposal(ctx, docRef, pageCount); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to update status to ACCEPTED", err)
	}

	if err := f.triggerWorkflow(ctx, logCtx, docRef, e, contentType); err != nil {
		// Error is already logged and handled in triggerWorkflow
		return err
	}

	logCtx.Info("Hand-off to evaluation workflow complete.")
	return nil
}

func (f *IntakeFunction) isDuplicate(ctx context.Context, fileHash string) (bool, string, error) {
	docs, err := f.firestoreClient.Collection(f.config.CollectionName).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return true, docs[0].Ref.ID, nil
	}
	return false, "", nil
}

func (f *IntakeFunction) createInitialProposal(ctx context.Context, fileHash, filename, contentType string) (*firestore.DocumentRef, error) {
	newProposal := models.Proposal{
		FileHash:         fileHash,
		OriginalFilename: filename,
		ContentType:      contentType,
		Status:           models.StatusValidating,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, newProposal)
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal record: %w", err)
	}
	return docRef, nil
}

func (f *IntakeFunction) acceptProposal(ctx context.Context, docRef *firestore.DocumentRef, pageCount int) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusAccepted},
	}
	if pageCount > 0 {
		updates = append(updates, firestore.Update{Path: "pageCount", Value: pageCount})
	}
	_, err := docRef.Update(ctx, updates)
	return err
}

func (f *IntakeFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, e GCSEvent, contentType string) error {
	logCtx.Info("Triggering evaluation workflow.")
	workflowPayload := map[string]interface{}{
		"proposalId":   docRef.ID,
		"sourceGcsUri": gcp.ObjectURI(e.Bucket, e.Name),
		"contentType":  contentType,
	}
	payloadBytes, err := json.Marshal(workflowPayload)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to marshal workflow payload", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	execution, err := f.executionsClient.CreateExecution(ctx, req)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to trigger workflow execution", err)
	}
	if _, err := docRef.Update(ctx, []firestore.Update{
		{Path: "workflowExecutionId", Value: execution.GetName()},
	}); err != nil {
		// The workflow is already running; a missing traceability field is
		// not worth failing the intake over.
		logCtx.Warn("Failed to record workflow execution ID.", "error", err)
	}
	return nil
}

func (f *IntakeFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}

func (f *IntakeFunction) downloadUpload(ctx context.Context, bucket, object, destPath string) error {
	gcsReader, err := f.storageClient.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()
	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()
	if _, err := io.Copy(localFile, gcsReader); err != nil {
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	return nil
}

// pdfPageCount validates the PDF with relaxed settings and returns its page
// count. Optimizing into a scratch file doubles as a structural check.
func pdfPageCount(sourcePath, tempDir string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	optimizedPath := filepath.Join(tempDir, "optimized.pdf")
	if err := api.OptimizeFile(sourcePath, optimizedPath, cfg); err != nil {
		return 0, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}
	pageCount, err := api.PageCountFile(optimizedPath)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return pageCount, nil
}

// ContentTypeForObject maps an uploaded object's extension to the media type
// the extraction chain keys on. Anything unrecognized goes down the
// plain-text path.
func ContentTypeForObject(objectName string) string {
	switch strings.ToLower(filepath.Ext(objectName)) {
	case ".pdf":
		return extract.MediaTypePDF
	case ".docx":
		return extract.MediaTypeDocx
	case ".doc":
		return extract.MediaTypeMsWord
	default:
		return extract.MediaTypePlainText
	}
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// updateStatus is shared by all workers that own a proposal docRef.
func updateStatus(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	_, err := docRef.Update(ctx, updates)
	return err
}
