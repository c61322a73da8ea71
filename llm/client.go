// Package llm turns a user prompt into a finished email body.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"staggermail/utils"
)

const (
	systemPrompt = "You write clear, professional, polite emails. " +
		"You only return the email body without any explanation."
	userPromptPrefix = "Write an email based on these instructions:\n\n"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("model returned an empty email")

// Generator writes an email body from instructions.
type Generator interface {
	GenerateEmail(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) GenerateEmail(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// OpenAIClient calls the chat completions API
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTP        *http.Client
}

func NewOpenAIClient(apiKey, baseURL, model string, temperature float64) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4.1-mini"
	}
	return &OpenAIClient{
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: temperature,
		HTTP:        &http.Client{Timeout: 2 * time.Minute},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

func (c *OpenAIClient) GenerateEmail(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY is not set")
	}

	reqBody := openAIRequest{
		Model: c.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPromptPrefix + prompt},
		},
		Temperature: c.Temperature,
	}

	var res openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}
	if err := postJSON(ctx, c.HTTP, c.BaseURL+"/chat/completions", headers, reqBody, &res); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	return finish(res.Choices[0].Message.Content)
}

// OllamaClient calls a local Ollama server
type OllamaClient struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) GenerateEmail(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:  c.Model,
		System: systemPrompt,
		Prompt: userPromptPrefix + prompt,
	}

	var res ollamaResponse
	if err := postJSON(ctx, c.HTTP, c.BaseURL+"/api/generate", nil, reqBody, &res); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return finish(res.Response)
}

func finish(raw string) (string, error) {
	body := utils.CleanEmailBody(raw)
	if body == "" {
		return "", ErrEmptyCompletion
	}
	return body, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
