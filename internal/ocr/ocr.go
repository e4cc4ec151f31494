package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/fanzineflow/internal/textutil"
)

// recitationMarker identifies a content-recitation block in either a finish
// reason or an error message, regardless of SDK enum naming.
const recitationMarker = "RECITATION"

// ErrContentPolicy marks a response blocked by the model's recitation policy.
// The adapter retries such a block once against the fallback model; a repeat
// block propagates like any other transient failure.
var ErrContentPolicy = errors.New("content policy recitation block")

// EmptyResponseError reports a model call that succeeded but carried no text.
type EmptyResponseError struct {
	Model        string
	FinishReason string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("model %s returned empty response (finish reason: %s)", e.Model, e.FinishReason)
}

// Generator is the external generative capability. Implementations call a
// named model with a page document and return the raw response text and the
// reported finish reason.
type Generator interface {
	Generate(ctx context.Context, model string, page []byte) (text string, finishReason string, err error)
}

// Result is a fully parsed OCR response. ModelUsed records provenance so
// callers can persist which model actually produced the text.
type Result struct {
	Text      string
	Entities  []string
	ModelUsed string
}

// Adapter invokes the OCR capability with a primary model and falls back to a
// secondary model exactly once on a recitation block.
type Adapter struct {
	gen           Generator
	primaryModel  string
	fallbackModel string
}

func NewAdapter(gen Generator, primaryModel, fallbackModel string) *Adapter {
	return &Adapter{
		gen:           gen,
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
	}
}

// Invoke runs the extraction call and parses the strict-JSON response. It
// returns either a complete Result or a typed error, never a partial parse.
func (a *Adapter) Invoke(ctx context.Context, page []byte) (*Result, error) {
	model := a.primaryModel
	text, finishReason, err := a.gen.Generate(ctx, model, page)

	if err == nil && isRecitation(finishReason) {
		err = fmt.Errorf("%w: finish reason %s in %s", ErrContentPolicy, finishReason, model)
	}

	if err != nil {
		if !isRecitation(err.Error()) {
			return nil, fmt.Errorf("ocr call to %s failed: %w", model, err)
		}
		slog.Warn("Primary model hit recitation block. Falling back.",
			"primaryModel", model, "fallbackModel", a.fallbackModel)

		model = a.fallbackModel
		text, finishReason, err = a.gen.Generate(ctx, model, page)
		if err != nil {
			return nil, fmt.Errorf("fallback ocr call to %s failed: %w", model, err)
		}
		if isRecitation(finishReason) {
			return nil, fmt.Errorf("%w: finish reason %s in fallback %s", ErrContentPolicy, finishReason, model)
		}
	}

	if text == "" {
		if finishReason == "" {
			finishReason = "Unknown"
		}
		return nil, &EmptyResponseError{Model: model, FinishReason: finishReason}
	}

	var payload struct {
		Text     string   `json:"text"`
		Entities []string `json:"entities"`
	}
	if err := textutil.ExtractJSON(text, &payload); err != nil {
		return nil, fmt.Errorf("parsing response from %s: %w", model, err)
	}

	return &Result{
		Text:      payload.Text,
		Entities:  payload.Entities,
		ModelUsed: model,
	}, nil
}

func isRecitation(s string) bool {
	return strings.Contains(strings.ToUpper(s), recitationMarker)
}
