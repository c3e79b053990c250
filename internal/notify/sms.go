package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/clinicflow/scheduler/pkg/logging"
)

// SMSSender sends a short text message to one phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioSender posts SMS messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender with sane defaults.
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SendSMS dispatches a single SMS via Twilio.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" {
		return errors.New("notify: twilio credentials missing")
	}
	if to == "" {
		return errors.New("notify: sms recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("notify: sms body required")
	}

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", s.from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return fmt.Errorf("notify: build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: twilio send: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: twilio send failed: %s", formatTwilioError(resp.StatusCode, respBody))
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	_ = json.Unmarshal(respBody, &parsed)
	s.logger.Info("twilio sms sent", "to", to, "sid", parsed.SID)
	return nil
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}

// SimulatedSMSSender appends each message as one line to a local log file
// instead of delivering it. Used for testing and demos without a provider;
// it never fails for transport reasons.
type SimulatedSMSSender struct {
	path   string
	mu     sync.Mutex
	logger *logging.Logger
}

// NewSimulatedSMSSender creates a simulated sender writing to path.
func NewSimulatedSMSSender(path string, logger *logging.Logger) *SimulatedSMSSender {
	if path == "" {
		path = "sms_log.txt"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedSMSSender{path: path, logger: logger}
}

// SendSMS appends exactly one line containing the message to the log.
func (s *SimulatedSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("notify: open sms log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] To: %s | Msg: %s\n",
		time.Now().Format(time.RFC3339), to, strings.ReplaceAll(body, "\n", " "))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("notify: append sms log: %w", err)
	}

	s.logger.Info("simulated sms", "to", to, "status", "simulated")
	return nil
}

var _ SMSSender = (*TwilioSender)(nil)
var _ SMSSender = (*SimulatedSMSSender)(nil)
