package service

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/sashabaranov/go-openai"

	"compliance-rag/types"
)

// OpenAIService generates answers through an OpenAI-compatible chat API.
// Works against api.openai.com or any local server speaking the same protocol.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(baseURL, apiKey, model string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (s *OpenAIService) Model() string {
	return s.model
}

func (s *OpenAIService) Generate(ctx context.Context, question string, chunks []types.RetrievedChunk) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: complianceSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, chunks)},
			},
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream streams the answer incrementally through streamHandler and
// returns the full answer once the stream ends.
func (s *OpenAIService) GenerateStream(ctx context.Context, question string, chunks []types.RetrievedChunk, streamHandler types.StreamHandler) (string, error) {
	stream, err := s.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: complianceSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, chunks)},
			},
		},
	)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var answer string
	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return answer, nil
			}
			log.Println("Error receiving response from stream:", err)
			return answer, err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		answer += delta
		streamHandler(delta)
	}
}
