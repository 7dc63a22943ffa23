package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/abhishekrajdhar/ai-pashu/internal/config"
	"github.com/abhishekrajdhar/ai-pashu/internal/model/chat"
)

// Reply is the post-processed model output returned to the farmer.
type Reply struct {
	Answer  string
	Context string
}

// FallbackReply stands in whenever the provider call fails. The pair is part
// of the user-facing contract and is returned with HTTP 200, never as an
// error status.
var FallbackReply = Reply{
	Answer:  "Sorry, I am unable to answer your query right now.",
	Context: "Try again later or consult a nearby veterinary expert.",
}

// Service encapsulates the Gemini-backed husbandry assistant.
type Service struct {
	chatModel model.BaseChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt/model chain around the supplied chat model.
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile assistant chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Answer runs one best-effort model call and splits the reply into its
// answer/context parts. Provider failures collapse to FallbackReply; the
// caller records the exchange either way.
func (s *Service) Answer(ctx context.Context, sessionID, query string, history []chat.Exchange) Reply {
	input := s.buildChainInput(query, history)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		log.Printf("[ai] model call failed for session=%s: %v", sessionID, err)
		return FallbackReply
	}

	answer, contextText := SplitReply(response.Content)
	log.Printf("[ai] generated response for session=%s, length=%d", sessionID, len(response.Content))
	return Reply{Answer: answer, Context: contextText}
}

// Stream exposes raw model output chunks for the SSE endpoint.
func (s *Service) Stream(ctx context.Context, query string, history []chat.Exchange) (*schema.StreamReader[*schema.Message], error) {
	input := s.buildChainInput(query, history)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream assistant output: %w", err)
	}

	return stream, nil
}

func (s *Service) buildChainInput(query string, history []chat.Exchange) map[string]any {
	return map[string]any{
		"prompt": BuildPrompt(query, s.windowed(history)),
	}
}

// windowed caps the transcript to the configured limit, keeping the most
// recent exchanges. A zero limit keeps the full transcript.
func (s *Service) windowed(history []chat.Exchange) []chat.Exchange {
	limit := s.cfg.HistoryLimit
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
