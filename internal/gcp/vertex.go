package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// OCRPrompt is the fixed extraction prompt for fanzine pages. The response
// must be strict JSON so the worker can parse it without heuristics.
const OCRPrompt = `ACT AS AN ARCHIVIST. Perform a deep spatial OCR on this fanzine page for archival and indexing purposes.
This is historical content for inclusion in a community-driven database.
1. Extract all text, maintaining the reading order of multi-column layouts and floating boxes.
2. Identify and extract names of people, groups, and entities mentioned.
3. Output strictly as JSON with this structure:
   {"text": "full extracted markdown text", "entities": ["Name 1", "Name 2"]}
Do not truncate, summarize, or omit any text from the page. If the page is long, provide the full transcription.`

// VertexClient calls Vertex AI generative models for page OCR. Safety
// thresholds are permissive since the content is archival.
type VertexClient struct {
	baseClient *genai.Client
}

// NewVertexClient creates the shared Vertex AI client.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &VertexClient{baseClient: baseClient}, nil
}

// Generate sends one page document to the named model and returns the raw
// response text and the reported finish reason.
func (c *VertexClient) Generate(ctx context.Context, model string, page []byte) (string, string, error) {
	m := c.baseClient.GenerativeModel(model)
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	resp, err := m.GenerateContent(ctx,
		genai.Blob{MIMEType: "application/pdf", Data: page},
		genai.Text(OCRPrompt),
	)
	if err != nil {
		return "", "", fmt.Errorf("model %s: %w", model, err)
	}

	if len(resp.Candidates) == 0 {
		return "", "", nil
	}

	candidate := resp.Candidates[0]
	finishReason := fmt.Sprintf("%v", candidate.FinishReason)

	if candidate.Content == nil {
		return "", finishReason, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(text.String()), finishReason, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
