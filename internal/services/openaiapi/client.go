// Package openaiapi implements recognition and translation on an
// OpenAI-compatible API, as an alternative to the Gradio Spaces.
package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"kari/internal/language"
)

const (
	defaultAudioModel = openai.Whisper1
	defaultChatModel  = "gpt-4o-mini"
)

// Config captures the settings used to build a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	AudioModel string
	ChatModel  string
}

// Client wraps the go-openai client.
type Client struct {
	cli        *openai.Client
	audioModel string
	chatModel  string
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) *Client {
	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}
	c := &Client{
		cli:        openai.NewClientWithConfig(clientConfig),
		audioModel: strings.TrimSpace(cfg.AudioModel),
		chatModel:  strings.TrimSpace(cfg.ChatModel),
	}
	if c.audioModel == "" {
		c.audioModel = defaultAudioModel
	}
	if c.chatModel == "" {
		c.chatModel = defaultChatModel
	}
	return c
}

// Recognize transcribes audioPath. The recognition model id selects the
// language hint passed as the prompt.
func (c *Client) Recognize(ctx context.Context, modelID, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    c.audioModel,
		FilePath: audioPath,
		Prompt:   recognitionPrompt(modelID),
	}
	resp, err := c.cli.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", modelID, err)
	}
	return resp.Text, nil
}

// Translate converts text into the target language with a chat completion.
func (c *Client) Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translationPrompt(sourceCode, targetCode)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}
	resp, err := c.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("translate %s: %w", sourceCode, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translate: response has no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("translate: empty content (finish_reason=%q)", resp.Choices[0].FinishReason)
	}
	return out, nil
}

// ResolveSourceCode maps an ethnonym to the profile key used as the source
// code in translation prompts. No remote lookup is needed.
func (c *Client) ResolveSourceCode(_ context.Context, ethnonym string) (string, error) {
	profile, ok := language.Lookup(ethnonym)
	if !ok {
		return "", fmt.Errorf("unknown language %q", ethnonym)
	}
	return profile.Key, nil
}

func recognitionPrompt(modelID string) string {
	if profile, ok := language.Lookup(modelID); ok {
		return fmt.Sprintf("Speech in %s (%s), a Formosan language of Taiwan.", profile.Name, profile.NativeName)
	}
	return ""
}

func translationPrompt(sourceCode, targetCode string) string {
	source := sourceCode
	if profile, ok := language.Lookup(sourceCode); ok {
		source = fmt.Sprintf("%s (%s)", profile.Name, profile.NativeName)
	}
	target := targetCode
	if targetCode == language.TargetCode {
		target = "Traditional Chinese as used in Taiwan"
	}
	return fmt.Sprintf("Translate the user's text from %s into %s. Reply with the translation only, without notes or quotation marks.", source, target)
}
