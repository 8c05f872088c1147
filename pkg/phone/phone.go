// Package phone wraps the Twilio REST API and TwiML rendering. It is the
// transport collaborator: the conversational core never talks to Twilio
// directly.
package phone

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type Config struct {
	AccountSID string `envconfig:"ACCOUNT_SID" split_words:"true" required:"true"`
	AuthToken  string `envconfig:"AUTH_TOKEN" split_words:"true" required:"true"`
	FromNumber string `envconfig:"PHONE_NUMBER" split_words:"true" required:"true"`
	// ToNumber is the clinic test line the simulated patient dials.
	ToNumber string `envconfig:"TEST_LINE_NUMBER" split_words:"true" required:"true"`
	// BaseURL is the public HTTPS base where Twilio reaches the webhook
	// server (e.g. an ngrok tunnel).
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

type Client struct {
	api        *twilio.RestClient
	httpClient *http.Client
	accountSID string
	authToken  string
	from       string
	to         string
	baseURL    string
}

func New(cfg Config) (*Client, error) {
	accountSID := strings.TrimSpace(cfg.AccountSID)
	authToken := strings.TrimSpace(cfg.AuthToken)
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio credentials are required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("webhook base url is required")
	}
	if !strings.HasPrefix(baseURL, "https://") {
		log.Warn().Str("base_url", baseURL).Msg("webhook base url should be HTTPS for Twilio callbacks")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		httpClient: &http.Client{Timeout: timeout},
		accountSID: accountSID,
		authToken:  authToken,
		from:       strings.TrimSpace(cfg.FromNumber),
		to:         strings.TrimSpace(cfg.ToNumber),
		baseURL:    baseURL,
	}, nil
}

// PlaceCall dials the clinic line with the named scenario and returns the
// call SID. Recording and lifecycle callbacks point back at the webhook
// server.
func (c *Client) PlaceCall(scenarioName string) (string, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(c.to)
	params.SetFrom(c.from)
	params.SetUrl(fmt.Sprintf("%s/voice?scenario=%s", c.baseURL, scenarioName))
	params.SetRecord(true)
	params.SetRecordingStatusCallback(c.baseURL + "/recording-complete")
	params.SetStatusCallback(c.baseURL + "/call-status")

	resp, err := c.api.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("create call: %w", err)
	}
	if resp.Sid == nil || *resp.Sid == "" {
		return "", errors.New("create call: no sid returned")
	}

	log.Info().Str("call_sid", *resp.Sid).Str("scenario", scenarioName).Msg("call initiated")
	return *resp.Sid, nil
}

// EndCall asks Twilio to tear a live call down.
func (c *Client) EndCall(callSID string) error {
	params := &openapi.UpdateCallParams{}
	params.SetStatus("completed")

	if _, err := c.api.Api.UpdateCall(callSID, params); err != nil {
		return fmt.Errorf("end call %s: %w", callSID, err)
	}
	return nil
}

// DownloadRecording fetches the call recording as MP3 into dir and returns
// the local path.
func (c *Client) DownloadRecording(callSID, recordingURL, dir string) (string, error) {
	if strings.TrimSpace(recordingURL) == "" {
		return "", errors.New("empty recording url")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, recordingURL+".mp3", nil)
	if err != nil {
		return "", fmt.Errorf("build recording request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch recording: status %d", resp.StatusCode)
	}

	path := filepath.Join(dir, callSID+".mp3")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create recording file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("write recording file: %w", err)
	}
	return path, nil
}
