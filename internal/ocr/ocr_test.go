package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator scripts one response per call, in order.
type fakeGenerator struct {
	responses []fakeResponse
	calls     []string
}

type fakeResponse struct {
	text         string
	finishReason string
	err          error
}

func (g *fakeGenerator) Generate(_ context.Context, model string, _ []byte) (string, string, error) {
	g.calls = append(g.calls, model)
	if len(g.responses) == 0 {
		return "", "", errors.New("no scripted response")
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r.text, r.finishReason, r.err
}

func TestInvokeSuccess(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{text: `{"text": "page text", "entities": ["Dr. John Smith"]}`, finishReason: "FinishReasonStop"},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	res, err := a.Invoke(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "page text", res.Text)
	assert.Equal(t, []string{"Dr. John Smith"}, res.Entities)
	assert.Equal(t, "primary-model", res.ModelUsed)
	assert.Equal(t, []string{"primary-model"}, gen.calls)
}

func TestInvokeRecitationFallback(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{finishReason: "FinishReasonRecitation"},
		{text: `{"text": "recovered", "entities": []}`, finishReason: "FinishReasonStop"},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	res, err := a.Invoke(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.Text)
	assert.Equal(t, "fallback-model", res.ModelUsed)
	// Exactly one fallback call, no more.
	assert.Equal(t, []string{"primary-model", "fallback-model"}, gen.calls)
}

func TestInvokeRecitationErrorFallback(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: errors.New("generation stopped: RECITATION")},
		{text: `{"text": "ok", "entities": []}`},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	res, err := a.Invoke(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "fallback-model", res.ModelUsed)
}

func TestInvokeRecitationTwiceFails(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{finishReason: "FinishReasonRecitation"},
		{finishReason: "FinishReasonRecitation"},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	_, err := a.Invoke(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentPolicy)
	assert.Len(t, gen.calls, 2)
}

func TestInvokeOtherErrorNotRetried(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: errors.New("deadline exceeded")},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	_, err := a.Invoke(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.Equal(t, []string{"primary-model"}, gen.calls)
}

func TestInvokeEmptyResponse(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{text: "", finishReason: "FinishReasonSafety"},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	_, err := a.Invoke(context.Background(), []byte("pdf"))
	require.Error(t, err)

	var emptyErr *EmptyResponseError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "FinishReasonSafety", emptyErr.FinishReason)
	assert.Equal(t, "primary-model", emptyErr.Model)
}

func TestInvokeParseError(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{text: "this is not json", finishReason: "FinishReasonStop"},
	}}
	a := NewAdapter(gen, "primary-model", "fallback-model")

	_, err := a.Invoke(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "this is not json")
}
