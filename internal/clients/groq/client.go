package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

// Message is one chat-completion turn. Content is a string for text turns
// and a part list for multimodal turns.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// ImageNote pairs an image URL with what the vision model saw in it. An
// empty note means the image could not be described.
type ImageNote struct {
	URL  string `json:"url"`
	Note string `json:"note"`
}

// Client talks to the Groq chat-completions API.
type Client interface {
	// ChatComplete runs the messages through the configured text models in
	// order, falling through on model-level rejections.
	ChatComplete(ctx context.Context, messages []Message) (string, error)

	// ClassifyOnTopic returns ON_TOPIC or OFF_TOPIC for the user message.
	ClassifyOnTopic(ctx context.Context, message string) (string, error)

	// DescribeImages captions each URL with the vision model. Failures are
	// skipped per image rather than failing the batch.
	DescribeImages(ctx context.Context, urls []string, hint string) []ImageNote
}

type client struct {
	log         *logger.Logger
	apiURL      string
	apiKey      string
	textModels  []string
	visionModel string
	httpClient  *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GROQ_API_KEY")
	}

	apiURL := strings.TrimSpace(os.Getenv("GROQ_API_URL"))
	if apiURL == "" {
		apiURL = "https://api.groq.com/openai/v1/chat/completions"
	}

	// Candidate order matters: the env override is tried first, then the
	// hardcoded fallbacks.
	models := []string{}
	if m := strings.TrimSpace(os.Getenv("GROQ_TEXT_MODEL")); m != "" {
		models = append(models, m)
	}
	models = append(models,
		"llama-3.1-70b-versatile",
		"llama-3.1-8b-instant",
		"mixtral-8x7b-32768",
	)

	visionModel := strings.TrimSpace(os.Getenv("GROQ_VISION_MODEL"))
	if visionModel == "" {
		visionModel = "llama-3.2-11b-vision-instruct"
	}

	timeoutSec := 60
	if v := os.Getenv("GROQ_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:         log.With("service", "GroqClient"),
		apiURL:      apiURL,
		apiKey:      apiKey,
		textModels:  models,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("groq status %d: %s", e.status, e.body)
}

// modelRejected reports request-shape failures worth retrying on the next
// model candidate, as opposed to auth or transport errors.
func modelRejected(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	return se.status == http.StatusBadRequest ||
		se.status == http.StatusNotFound ||
		se.status == http.StatusUnprocessableEntity
}

func (c *client) call(ctx context.Context, req completionRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode != http.StatusOK {
		return "", &statusError{status: res.StatusCode, body: string(body)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("groq invalid json: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq empty choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *client) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	var lastErr error
	for _, model := range c.textModels {
		out, err := c.call(ctx, completionRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   500,
			Temperature: 0.6,
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if modelRejected(err) {
			c.log.Warn("text model rejected; trying next", "model", model, "error", err)
			continue
		}
		break
	}
	return "", fmt.Errorf("groq chat failed: %w", lastErr)
}

const classifierModel = "meta-llama/llama-4-scout-17b-16e-instruct"

const classifierPrompt = "You are a classifier. Answer with exactly ONE word: ON_TOPIC or OFF_TOPIC.\n" +
	"ON_TOPIC means the user is asking about the Adopaw app: adopting, browsing/listing pets, profiles, " +
	"comments, maps, scheduling, AI chat advice, etc. Otherwise answer OFF_TOPIC."

func (c *client) ClassifyOnTopic(ctx context.Context, message string) (string, error) {
	out, err := c.call(ctx, completionRequest{
		Model: classifierModel,
		Messages: []Message{
			{Role: "system", Content: classifierPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens:   2,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *client) DescribeImages(ctx context.Context, urls []string, hint string) []ImageNote {
	out := make([]ImageNote, 0, len(urls))
	for _, raw := range urls {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		note, err := c.describeOne(ctx, url, hint)
		if err != nil {
			c.log.Warn("describe image failed", "url", url, "error", err)
			note = ""
		}
		out = append(out, ImageNote{URL: url, Note: note})
	}
	return out
}

func (c *client) describeOne(ctx context.Context, url, hint string) (string, error) {
	lines := []string{
		"You are describing a user-supplied image for a pet-adoption app.",
		"If the image fails to load, reply exactly: UNAVAILABLE.",
	}
	if hint != "" {
		lines = append(lines, fmt.Sprintf("User context: %q", hint))
	}
	lines = append(lines,
		"Describe what you SEE (do not make up details).",
		"Focus on: species, coat color/pattern, approx age/size, posture/mood, any visible health issues, background clues relevant to adoption.",
		"Limit to 1-2 sentences.",
	)

	note, err := c.call(ctx, completionRequest{
		Model: c.visionModel,
		Messages: []Message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: strings.Join(lines, "\n")},
				{Type: "image_url", ImageURL: &imageURL{URL: url}},
			},
		}},
		MaxTokens:   180,
		Temperature: 0.1,
		TopP:        0.2,
	})
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToUpper(note), "UNAVAILABLE") {
		return "", nil
	}
	return note, nil
}
