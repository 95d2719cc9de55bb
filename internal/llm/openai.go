package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Tools is the narrow, validated surface the reasoning engine may touch.
// Implementations bridge to the record store and transcript history; the
// engine never sees raw storage.
type Tools interface {
	GetCustomerInfo(customerID string) string
	UpdateCustomerInfo(customerID string, updates map[string]any) string
	AddComplaint(customerID, complaint string) string
	ConversationHistory() string
}

// OpenAIClient drives the chat-completions API with function calling. It
// implements the orchestrator's Responder interface.
type OpenAIClient struct {
	HTTPClient   *http.Client
	APIKey       string
	Model        string
	SystemPrompt string
	Tools        Tools

	// MaxToolRounds bounds the tool-call loop per utterance.
	MaxToolRounds int
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type toolSpec struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []toolSpec    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

func NewOpenAIClient(apiKey, model, systemPrompt string, tools Tools) *OpenAIClient {
	return &OpenAIClient{
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		APIKey:        apiKey,
		Model:         model,
		SystemPrompt:  systemPrompt,
		Tools:         tools,
		MaxToolRounds: 5,
	}
}

func makeToolSpec(name, description, params string) toolSpec {
	var spec toolSpec
	spec.Type = "function"
	spec.Function.Name = name
	spec.Function.Description = description
	spec.Function.Parameters = json.RawMessage(params)
	return spec
}

func (c *OpenAIClient) toolSpecs() []toolSpec {
	return []toolSpec{
		makeToolSpec("get_customer_info", "Get customer information by customer ID",
			`{"type":"object","properties":{"customer_id":{"type":"string"}},"required":["customer_id"]}`),
		makeToolSpec("update_customer_info", "Update allow-listed customer fields with new data",
			`{"type":"object","properties":{"customer_id":{"type":"string"},"updates":{"type":"object"}},"required":["customer_id","updates"]}`),
		makeToolSpec("add_complaint", "Record a complaint for a customer",
			`{"type":"object","properties":{"customer_id":{"type":"string"},"complaint":{"type":"string"}},"required":["customer_id","complaint"]}`),
		makeToolSpec("get_conversation_history", "Get the current conversation history",
			`{"type":"object","properties":{}}`),
	}
}

// Generate produces one assistant reply for the prompt, resolving tool calls
// against the configured Tools along the way.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("openai api key missing")
	}

	messages := []chatMessage{
		{Role: "system", Content: c.SystemPrompt},
		{Role: "user", Content: prompt},
	}

	rounds := c.MaxToolRounds
	if rounds <= 0 {
		rounds = 5
	}
	for round := 0; round <= rounds; round++ {
		msg, err := c.complete(ctx, messages)
		if err != nil {
			return "", err
		}
		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}
		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			result := c.executeTool(call)
			messages = append(messages, chatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
	return "", fmt.Errorf("openai: tool-call rounds exhausted")
}

func (c *OpenAIClient) complete(ctx context.Context, messages []chatMessage) (*chatMessage, error) {
	endpoint := "https://api.openai.com/v1/chat/completions"
	reqBody, _ := json.Marshal(chatCompletionsRequest{
		Model:       c.Model,
		Messages:    messages,
		Tools:       c.toolSpecs(),
		Temperature: 0.7,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}
	return &cr.Choices[0].Message, nil
}

// executeTool dispatches one tool call. Tool failures become result strings
// rather than errors so the model can recover within the same turn.
func (c *OpenAIClient) executeTool(call toolCall) string {
	if c.Tools == nil {
		return "no tools available"
	}
	var args struct {
		CustomerID string         `json:"customer_id"`
		Updates    map[string]any `json:"updates"`
		Complaint  string         `json:"complaint"`
	}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "Invalid tool arguments format"
		}
	}
	switch call.Function.Name {
	case "get_customer_info":
		return c.Tools.GetCustomerInfo(args.CustomerID)
	case "update_customer_info":
		return c.Tools.UpdateCustomerInfo(args.CustomerID, args.Updates)
	case "add_complaint":
		return c.Tools.AddComplaint(args.CustomerID, args.Complaint)
	case "get_conversation_history":
		return c.Tools.ConversationHistory()
	default:
		log.Printf("openai: unknown tool requested: %s", call.Function.Name)
		return fmt.Sprintf("unknown tool: %s", call.Function.Name)
	}
}
