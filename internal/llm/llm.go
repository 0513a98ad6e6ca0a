// Package llm implements the responder over an OpenAI-compatible
// completion API.
package llm

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/configuration"
)

const systemPrompt = "You are TejastraX, a versatile assistant for research, writing and code. Be concise and adapt to the user's style."

// Client generates assistant replies.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient instantiates and returns a new client.
func NewClient(config *configuration.Config) *Client {
	clientConfig := openai.DefaultConfig(config.OpenaiAPIKey)
	clientConfig.BaseURL = config.OpenaiAPIHost
	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  config.Model,
	}
}

// Reply generates the assistant's reply to the transcript.
func (c *Client) Reply(ctx context.Context, transcript []*api.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, message := range transcript {
		role := openai.ChatMessageRoleUser
		if message.Role == api.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: message.Content,
		})
	}

	response, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrap(err, "creating chat completion")
	}
	if len(response.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return response.Choices[0].Message.Content, nil
}
