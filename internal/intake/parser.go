package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/pkg/logging"
)

const extractionInstruction = `You are a medical intake assistant. Extract structured patient data
from the request below. Always return valid JSON with keys:
name, dob, mrn, email, phone, doctor, location, insurance_carrier,
insurance_member_id, insurance_group.`

// Parser turns a free-text appointment request into a structured
// PatientRecord with a single LLM call.
type Parser struct {
	llm    LLMClient
	model  string
	logger *logging.Logger
}

// NewParser constructs an intake parser.
func NewParser(llm LLMClient, model string, logger *logging.Logger) *Parser {
	if llm == nil {
		panic("intake: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Parser{llm: llm, model: model, logger: logger}
}

// Parse extracts patient fields from the request text. A transport failure of
// the model call is returned as an error; malformed model output degrades to
// a record carrying only the raw text, which is a success.
func (p *Parser) Parse(ctx context.Context, request string) (patients.PatientRecord, error) {
	resp, err := p.llm.Complete(ctx, LLMRequest{
		Model:       p.model,
		System:      []string{extractionInstruction},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "Request: " + request}},
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		return patients.PatientRecord{}, fmt.Errorf("intake: completion: %w", err)
	}

	var rec patients.PatientRecord
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Text)), &rec); err != nil {
		p.logger.Warn("intake output was not valid JSON, keeping raw text", "error", err)
		return patients.PatientRecord{RawText: request}, nil
	}
	return rec, nil
}

// stripCodeFences removes a surrounding markdown code fence, which chat
// models often wrap JSON in despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
