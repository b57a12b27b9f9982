package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ChatGPT represents a client for the OpenAI ChatGPT API. It is the task
// content oracle: it produces practice sentences and scores user answers.
type ChatGPT struct {
	apiKey      string
	apiURL      string
	client      *http.Client
	maxTokens   int
	temperature float64
}

// New creates a new ChatGPT client
func New(apiKey string) (*ChatGPT, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not set")
	}

	return &ChatGPT{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		client:      &http.Client{Timeout: 30 * time.Second},
		maxTokens:   300,
		temperature: 0.7,
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnswerCheck is the oracle's verdict on a user's translation.
type AnswerCheck struct {
	Correct     bool   `json:"correct"`
	Quality     int    `json:"quality"` // 0-100
	Explanation string `json:"explanation"`
}

var difficultyNames = map[int]string{
	1: "A1",
	2: "A2",
	3: "B1",
	4: "B2",
	5: "C1",
}

// GenerateTask produces one practice sentence in Russian and its reference
// German translation for the given difficulty and optional topic.
func (c *ChatGPT) GenerateTask(ctx context.Context, difficulty int, topic string) (string, string, error) {
	level, ok := difficultyNames[difficulty]
	if !ok {
		level = "A1"
	}

	prompt := fmt.Sprintf(
		"Составь одно предложение на русском языке для перевода на немецкий, уровень %s.", level)
	if topic != "" {
		prompt += fmt.Sprintf(" Тема: %s.", topic)
	}
	prompt += ` Верни строго JSON вида {"sentence": "...", "translation": "..."}, где sentence - предложение на русском, translation - эталонный перевод на немецкий. Без пояснений.`

	messages := []Message{
		{Role: "system", Content: "Ты - помощник для изучения немецкого языка. Твоя задача - составлять качественные предложения для тренировки перевода."},
		{Role: "user", Content: prompt},
	}

	content, err := c.complete(ctx, messages, c.maxTokens, c.temperature)
	if err != nil {
		return "", "", err
	}

	var task struct {
		Sentence    string `json:"sentence"`
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &task); err != nil {
		return "", "", fmt.Errorf("failed to parse task payload: %w", err)
	}
	if task.Sentence == "" || task.Translation == "" {
		return "", "", fmt.Errorf("oracle returned an empty task")
	}

	return task.Sentence, task.Translation, nil
}

// CheckAnswer scores a user's translation against the reference.
func (c *ChatGPT) CheckAnswer(ctx context.Context, prompt, reference, answer string) (*AnswerCheck, error) {
	request := fmt.Sprintf(
		"Исходное предложение: %s\nЭталонный перевод: %s\nПеревод ученика: %s\n\n"+
			`Оцени перевод ученика. Верни строго JSON вида {"correct": true/false, "quality": 0-100, "explanation": "..."}. `+
			"Перевод считается correct, если он грамматически верен и передаёт смысл, даже если отличается от эталона. "+
			"Explanation - короткое пояснение ошибок на русском, пустая строка если ошибок нет.",
		prompt, reference, answer,
	)

	messages := []Message{
		{Role: "system", Content: "Ты - преподаватель немецкого языка. Твоя задача - объективно оценивать переводы учеников."},
		{Role: "user", Content: request},
	}

	// Lower temperature for more consistent grading
	content, err := c.complete(ctx, messages, c.maxTokens, 0.3)
	if err != nil {
		return nil, err
	}

	var check AnswerCheck
	if err := json.Unmarshal([]byte(extractJSON(content)), &check); err != nil {
		return nil, fmt.Errorf("failed to parse answer check: %w", err)
	}
	if check.Quality < 0 {
		check.Quality = 0
	}
	if check.Quality > 100 {
		check.Quality = 100
	}
	return &check, nil
}

// complete performs one chat completion round trip.
func (c *ChatGPT) complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	request := ChatRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// extractJSON cuts the first {...} block out of a model reply, tolerating
// replies wrapped in markdown fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
