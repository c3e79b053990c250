package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	text    string
	err     error
	lastReq LLMRequest
}

func (s *scriptedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text}, nil
}

func TestParseExtractsFields(t *testing.T) {
	llm := &scriptedLLM{text: `{
		"name": "Jane Smith",
		"dob": "1990-03-12",
		"doctor": "Dr. Johnson",
		"location": "Clinic A"
	}`}
	parser := NewParser(llm, "model-id", nil)

	rec, err := parser.Parse(context.Background(), "Jane Smith, DOB 1990-03-12, wants Dr. Johnson at Clinic A")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", rec.Name)
	assert.Equal(t, "1990-03-12", rec.DOB)
	assert.Equal(t, "Dr. Johnson", rec.Doctor)
	assert.Equal(t, "Clinic A", rec.Location)
	assert.Empty(t, rec.RawText)

	require.Len(t, llm.lastReq.System, 1)
	assert.Contains(t, llm.lastReq.System[0], "insurance_group")
}

func TestParseToleratesCodeFences(t *testing.T) {
	llm := &scriptedLLM{text: "```json\n{\"name\": \"Jane Smith\"}\n```"}
	parser := NewParser(llm, "model-id", nil)

	rec, err := parser.Parse(context.Background(), "request")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", rec.Name)
}

func TestParseDegradesToRawTextOnBadJSON(t *testing.T) {
	llm := &scriptedLLM{text: "Sure! The patient's name is Jane."}
	parser := NewParser(llm, "model-id", nil)

	rec, err := parser.Parse(context.Background(), "original request text")
	require.NoError(t, err, "malformed output is a degraded success, not an error")
	assert.Equal(t, "original request text", rec.RawText)
	assert.Empty(t, rec.Name)
}

func TestParsePropagatesTransportErrors(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("model unavailable")}
	parser := NewParser(llm, "model-id", nil)

	_, err := parser.Parse(context.Background(), "request")
	assert.Error(t, err)
}

func TestFallbackClientUsesSecondary(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("throttled")}
	secondary := &scriptedLLM{text: `{"name":"Jane"}`}
	client := NewFallbackLLMClient(primary, secondary, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Jane"}`, resp.Text)
}

func TestFallbackClientReturnsPrimaryErrorWithoutSecondary(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("throttled")}
	client := NewFallbackLLMClient(primary, nil, nil)

	_, err := client.Complete(context.Background(), LLMRequest{Model: "m"})
	assert.Error(t, err)
}
