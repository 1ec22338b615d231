package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/proposalflow/internal/gcp"
	"github.com/Lllllllleong/proposalflow/internal/models"
	"github.com/Lllllllleong/proposalflow/internal/prompt"
)

// EvaluatorConfig holds configuration for the proposal-evaluator service.
type EvaluatorConfig struct {
	ProjectID      string
	VertexAIRegion string
	AnalysesBucket string
	CollectionName string
}

// EvaluatorFunction holds dependencies for the evaluation step.
type EvaluatorFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	vertexClient    *gcp.VertexClient
	config          EvaluatorConfig
}

// NewEvaluator creates a new EvaluatorFunction instance.
func NewEvaluator(ctx context.Context) (*EvaluatorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := EvaluatorConfig{
		ProjectID:      projectID,
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		AnalysesBucket: gcp.GetEnv("ANALYSES_BUCKET", ""),
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "proposals"),
	}
	if config.AnalysesBucket == "" {
		return nil, fmt.Errorf("ANALYSES_BUCKET must be set")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &EvaluatorFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		vertexClient:    vertexClient,
		config:          config,
	}, nil
}

// Process builds the evaluation prompt from the extracted text, performs the
// single model call, and stores the analysis Markdown. The analysis is
// descriptive only; no score or funding decision is derived from it anywhere
// in the pipeline.
func (f *EvaluatorFunction) Process(ctx context.Context, req *models.ProposalEvaluatorRequest) (*models.ProposalEvaluatorResponse, error) {
	logCtx := slog.With("proposalId", req.ProposalID, "executionId", req.ExecutionID)
	logCtx.Info("Starting proposal evaluation.", "extractedTextGcsUri", req.ExtractedTextGCSUri)

	docRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(req.ProposalID)

	// The extracted text and the proposal record live in different systems;
	// fetch both concurrently.
	var proposalText string
	var proposal models.Proposal
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		bucket, object, err := gcp.ParseObjectURI(req.ExtractedTextGCSUri)
		if err != nil {
			return fmt.Errorf("invalid extracted text URI: %w", err)
		}
		data, err := gcp.ReadObject(egCtx, f.storageClient, bucket, object)
		if err != nil {
			return fmt.Errorf("failed to fetch extracted text: %w", err)
		}
		proposalText = string(data)
		return nil
	})
	eg.Go(func() error {
		snap, err := docRef.Get(egCtx)
		if err != nil {
			return fmt.Errorf("failed to fetch proposal record: %w", err)
		}
		if err := snap.DataTo(&proposal); err != nil {
			return fmt.Errorf("failed to decode proposal record: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to load evaluation inputs", err)
	}

	// Workflow retries can re-run this step after a successful evaluation.
	if proposal.Status == models.StatusEvaluated && proposal.AnalysisGCSUri != "" {
		logCtx.Info("Proposal already evaluated. Skipping.", "analysisGcsUri", proposal.AnalysisGCSUri)
		return &models.ProposalEvaluatorResponse{Status: "success", AnalysisGCSUri: proposal.AnalysisGCSUri}, nil
	}

	if err := updateStatus(ctx, docRef, models.StatusEvaluating, ""); err != nil {
		logCtx.Error("Failed to update status to EVALUATING", "error", err)
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	evaluationPrompt := prompt.Build(proposalText)
	logCtx.Info("Prompt built.", "originalFilename", proposal.OriginalFilename, "promptChars", len(evaluationPrompt))

	geminiResp, err := f.vertexClient.EvaluatorModel.GenerateContent(ctx, genai.Text(evaluationPrompt))
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "call to Vertex AI for evaluation failed", err)
	}

	analysis := extractAnalysis(geminiResp)
	if phrase, refused := detectRefusal(analysis); refused {
		err := fmt.Errorf("model response indicates refusal to analyse proposal (matched %q)", phrase)
		logCtx.Error("LLM refusal detected", "error", err, "response", analysis)
		return nil, f.handleError(ctx, logCtx, docRef, "model refused evaluation", err)
	}
	if analysis == "" {
		err := fmt.Errorf("model returned an empty analysis for proposal %s", req.ProposalID)
		return nil, f.handleError(ctx, logCtx, docRef, "empty analysis from model", err)
	}

	objectName := fmt.Sprintf("%s/analysis.md", req.ProposalID)
	bucketHandle := f.storageClient.Bucket(f.config.AnalysesBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, analysis); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to save analysis", err)
	}
	outputGCSUri := gcp.ObjectURI(f.config.AnalysesBucket, objectName)

	updates := []firestore.Update{
		{Path: "status", Value: models.StatusEvaluated},
		{Path: "analysisGcsUri", Value: outputGCSUri},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to update status to EVALUATED", err)
	}

	logCtx.Info("Proposal evaluation complete.", "analysisGcsUri", outputGCSUri)
	return &models.ProposalEvaluatorResponse{
		Status:         "success",
		AnalysisGCSUri: outputGCSUri,
	}, nil
}

func (f *EvaluatorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}

// extractAnalysis robustly pulls the text content out of the model response,
// concatenating parts and stripping stray code fences.
func extractAnalysis(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var contentBuilder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			contentBuilder.WriteString(string(txt))
		}
	}

	contentStr := strings.TrimSpace(contentBuilder.String())
	contentStr = strings.TrimPrefix(contentStr, "```markdown")
	contentStr = strings.TrimPrefix(contentStr, "```")
	contentStr = strings.TrimSuffix(contentStr, "```")
	return strings.TrimSpace(contentStr)
}

// refusalPhrases are stock openings of a model declining the task. An
// analysis that leads with one of these is a failed step, not an artifact.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// detectRefusal reports whether the analysis contains a refusal phrase, and
// which one matched.
func detectRefusal(analysis string) (string, bool) {
	lower := strings.ToLower(analysis)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
