package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/adopaw/adopaw-backend/internal/clients/groq"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

const historyWindow = 10

const pawloSystemPrompt = `You are Pawlo, Adopaw's friendly pet-care assistant.

Behavior
- If any system message contains VISUAL_CONTEXT, treat it exactly as if you personally viewed the image(s).
- NEVER mention or imply "notes," "URLs," "vision," "analysis," or that you cannot view images. Speak naturally, as if you saw the photo(s).
- Do not include links unless the user explicitly asks.

Goals
- Answer clearly and concisely about pet adoption & care (nutrition, behavior, grooming, training) and Adopaw features.
- For Adopaw questions, give exact in-app steps (browse pets, message owners, schedule visits, etc.).

Style & Safety
- Match the user's language (Arabic or English). If unsure, default to English.
- Keep answers tight (1-3 short paragraphs or bullets).
- Avoid medical diagnoses; suggest seeing a veterinarian for urgent/serious issues.
- If uncertain, ask one brief follow-up question instead of apologizing.`

const offTopicReply = "I can help with Adopaw and pet-care questions—adoption, listings, profiles, care tips, and app features. 🐾"

// HistoryTurn is one prior turn the client replays with its request.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ReplyInput struct {
	Message   string
	History   []HistoryTurn
	ImageURLs []string
}

type AssistantService interface {
	Reply(ctx context.Context, in ReplyInput) (string, error)
}

type assistantService struct {
	log            *logger.Logger
	groq           groq.Client
	classifyEnable bool
	visionEnable   bool
}

func NewAssistantService(log *logger.Logger, groqClient groq.Client, classifyEnable, visionEnable bool) AssistantService {
	return &assistantService{
		log:            log.With("service", "AssistantService"),
		groq:           groqClient,
		classifyEnable: classifyEnable,
		visionEnable:   visionEnable,
	}
}

func (s *assistantService) Reply(ctx context.Context, in ReplyInput) (string, error) {
	message := strings.TrimSpace(in.Message)
	images := make([]string, 0, len(in.ImageURLs))
	for _, u := range in.ImageURLs {
		if strings.TrimSpace(u) != "" {
			images = append(images, strings.TrimSpace(u))
		}
	}
	if message == "" && len(images) == 0 {
		return "", apierr.BadRequest("empty_request", fmt.Errorf("message or imageUrls required"))
	}

	// The classifier is a best-effort gate: when it errors the turn proceeds.
	if s.classifyEnable {
		probe := message
		if probe == "" {
			probe = "User sent pet-related image(s)."
		}
		label, err := s.groq.ClassifyOnTopic(ctx, probe)
		if err != nil {
			s.log.Warn("topic classify failed; continuing", "error", err)
		} else if strings.ToUpper(strings.TrimSpace(label)) != "ON_TOPIC" {
			return offTopicReply, nil
		}
	}

	var visualContext string
	if s.visionEnable && len(images) > 0 {
		notes := s.groq.DescribeImages(ctx, images, message)
		lines := make([]string, 0, len(notes))
		for _, n := range notes {
			if t := strings.TrimSpace(n.Note); t != "" {
				lines = append(lines, "- "+t)
			}
		}
		if len(lines) > 0 {
			visualContext = "VISUAL_CONTEXT (from analyzed images):\n" +
				strings.Join(lines, "\n") + "\n\n" +
				"Rules for assistant:\n" +
				"- Speak as if you personally inspected the images.\n" +
				"- NEVER mention notes, URLs, \"vision,\" \"image notes,\" or say you cannot see images.\n" +
				"- Do not include or reference any links unless the user explicitly asks.\n" +
				"- If uncertain, ask one brief follow-up question."
		}
	}

	userText := message
	if userText == "" {
		userText = "Please help the user based on the uploaded photo(s)."
	}

	history := in.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]groq.Message, 0, len(history)+3)
	messages = append(messages, groq.Message{Role: "system", Content: pawloSystemPrompt})
	for _, turn := range history {
		role := turn.Role
		if role != "user" && role != "assistant" && role != "system" {
			continue
		}
		messages = append(messages, groq.Message{Role: role, Content: turn.Content})
	}
	if visualContext != "" {
		messages = append(messages, groq.Message{Role: "system", Content: visualContext})
	}
	messages = append(messages, groq.Message{Role: "user", Content: userText})

	reply, err := s.groq.ChatComplete(ctx, messages)
	if err != nil {
		return "", apierr.Unavailable(fmt.Errorf("assistant reply: %w", err))
	}
	if strings.TrimSpace(reply) == "" {
		if len(images) > 0 {
			return "I'm looking at the photo(s). What would you like me to focus on?", nil
		}
		return "I'm here to help!", nil
	}
	return reply, nil
}
