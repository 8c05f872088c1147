// Package openaiclient wraps the OpenAI SDK behind the contract.Completer
// and contract.Transcriber boundaries. No retries here: a turn that fails
// is substituted upstream, and a retry would stall the live call.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/cliniccall/patientsim/call/contract"
)

type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey       string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model        string        `envconfig:"MODEL" split_words:"true" default:"gpt-4.1-mini"`
	WhisperModel string        `envconfig:"WHISPER_MODEL" split_words:"true" default:"whisper-1"`
	MaxTokens    int64         `envconfig:"MAX_TOKENS" split_words:"true" default:"256"`
	Temperature  float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.4"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client implements contract.Completer and contract.Transcriber.
type Client struct {
	api          openaisdk.Client
	model        string
	whisperModel string
	maxTokens    int64
	temperature  float64
}

var (
	_ contractx.Completer   = (*Client)(nil)
	_ contractx.Transcriber = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		api:          openaisdk.NewClient(opts...),
		model:        strings.TrimSpace(cfg.Model),
		whisperModel: strings.TrimSpace(cfg.WhisperModel),
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Complete sends one chat completion and returns the raw candidate text.
func (c *Client) Complete(ctx context.Context, messages []contractx.Message) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    toSDKMessages(messages),
		Temperature: openaisdk.Float(c.temperature),
		MaxTokens:   openaisdk.Int(c.maxTokens),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", contractx.ErrGenerationFailed)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: blank completion", contractx.ErrEmptyReply)
	}
	return text, nil
}

// Transcribe runs Whisper over a downloaded recording file.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (contractx.Transcription, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return contractx.Transcription{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	resp, err := c.api.Audio.Transcriptions.New(ctx, openaisdk.AudioTranscriptionNewParams{
		Model: openaisdk.AudioModel(c.whisperModel),
		File:  f,
	})
	if err != nil {
		return contractx.Transcription{}, fmt.Errorf("whisper transcription: %w", err)
	}

	return contractx.Transcription{
		Text:     resp.Text,
		Language: "en",
	}, nil
}

func toSDKMessages(messages []contractx.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case contractx.RoleSystem:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case contractx.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			out = append(out, openaisdk.UserMessage(msg.Content))
		}
	}
	return out
}
