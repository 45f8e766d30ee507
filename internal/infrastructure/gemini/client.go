package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	model.SetTemperature(0.8)

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// GenerateIcebreakers suggests three opening lines for a new match.
func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, user1Interests, user2Interests []string) ([]string, error) {
	prompt := fmt.Sprintf(`
		Generate 3 creative icebreaker messages for a dating app match.
		User 1 Interests: %v
		User 2 Interests: %v

		Task: Create 3 distinct opening lines that User 1 could send to User 2.
		Focus on shared interests or interesting contrasts. Keep each under 140 characters.
		Output: JSON array of strings. Example: ["Hi...", "Hello..."]
	`, user1Interests, user2Interests)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseList(text)
}

// GenerateBio drafts three short profile bios in the requested vibe.
func (c *GeminiClient) GenerateBio(ctx context.Context, username string, interests []string, vibe string) ([]string, error) {
	prompt := fmt.Sprintf(`
		Write 3 dating profile bios for %s.
		Interests: %v
		Tone: %s

		Each bio must be under 300 characters, first person, no hashtags.
		Output: JSON array of strings.
	`, username, interests, vibe)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseList(text)
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// parseList reads a JSON array of strings, falling back to one item per line.
func parseList(responseText string) ([]string, error) {
	responseText = strings.TrimSpace(responseText)
	// Clean up markdown code blocks if present
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var items []string
	if err := json.Unmarshal([]byte(responseText), &items); err != nil {
		for _, line := range strings.Split(responseText, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimLeft(line, "-*0123456789. ")
			line = strings.Trim(line, `",`)
			if line != "" && line != "[" && line != "]" {
				items = append(items, line)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("failed to parse list: %w", err)
		}
	}

	return items, nil
}
