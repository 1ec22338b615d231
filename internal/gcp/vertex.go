package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"

	"github.com/Lllllllleong/proposalflow/internal/prompt"
)

// evaluatorModelName pins the Gemini model used for proposal analysis.
const evaluatorModelName = "gemini-1.5-pro"

// VertexClient holds the pre-configured generative model for proposal
// evaluation. Project and region are explicit constructor parameters;
// nothing here reads credentials from ambient process state.
type VertexClient struct {
	EvaluatorModel *genai.GenerativeModel
	baseClient     *genai.Client
}

// NewVertexClient creates a client with the evaluator model configured:
// analyst persona as system instruction, low temperature for a consistent
// analytical register, and a bounded output length.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	evaluatorModel := baseClient.GenerativeModel(evaluatorModelName)
	evaluatorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.EvaluatorSystemPrompt)},
	}
	evaluatorModel.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: genai.Ptr[int32](1024),
	}
	// Proposals routinely discuss medical or societal problems; leave the
	// judgement of that content to the analysis rather than the filter.
	evaluatorModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		EvaluatorModel: evaluatorModel,
		baseClient:     baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
