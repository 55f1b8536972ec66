package extractor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/bytedance/sonic"
)

// DefaultBedrockModel is used when no model id is configured.
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

const bedrockMaxTokens = 512

type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock generates completions with an Anthropic model hosted on AWS Bedrock.
type Bedrock struct {
	client  bedrockInvoker
	modelID string

	creds    aws.CredentialsProvider
	credsMu  sync.Mutex
	credsSet bool
}

// NewBedrock loads the default AWS configuration for region.
func NewBedrock(ctx context.Context, region, modelID string) (*Bedrock, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	b := newBedrock(bedrockruntime.NewFromConfig(cfg), modelID)
	b.creds = cfg.Credentials
	return b, nil
}

func newBedrock(client bedrockInvoker, modelID string) *Bedrock {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	return &Bedrock{client: client, modelID: modelID}
}

type bedrockContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bedrockMessage struct {
	Role    string           `json:"role"`
	Content []bedrockContent `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Temperature      float64          `json:"temperature"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockResponse struct {
	Content []bedrockContent `json:"content"`
}

// checkCredentials resolves AWS credentials until the first success. A failure means
// the provider is not configured rather than unreachable.
func (b *Bedrock) checkCredentials(ctx context.Context) error {
	if b.creds == nil {
		return nil
	}
	b.credsMu.Lock()
	defer b.credsMu.Unlock()
	if b.credsSet {
		return nil
	}
	if _, err := b.creds.Retrieve(ctx); err != nil {
		return fmt.Errorf("bedrock: %w: %v", ErrMissingCredential, err)
	}
	b.credsSet = true
	return nil
}

// Generate invokes the model with prompt as a single user message.
func (b *Bedrock) Generate(ctx context.Context, prompt string) (string, error) {
	if err := b.checkCredentials(ctx); err != nil {
		return "", err
	}
	body, err := sonic.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        bedrockMaxTokens,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContent{{Type: "text", Text: prompt}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to format request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke model: %w", err)
	}

	var out bedrockResponse
	if err := sonic.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("failed to parse bedrock response: %w", err)
	}
	var sb strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}
