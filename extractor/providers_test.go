package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/bytedance/sonic"
	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
)

func TestGeminiMissingKey(t *testing.T) {
	_, err := NewGemini("", "").Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestGeminiDefaultModel(t *testing.T) {
	if g := NewGemini("k", ""); g.model != DefaultGeminiModel {
		t.Fatalf("expected default model, got %q", g.model)
	}
	if g := NewGemini("k", "gemini-1.5-pro"); g.model != "gemini-1.5-pro" {
		t.Fatalf("unexpected model %q", g.model)
	}
}

func TestCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"taskName":`), genai.Blob{MIMEType: "image/png"}, genai.Text(`"x"}`)}},
		}},
	}
	got, err := candidateText(resp)
	if err != nil {
		t.Fatalf("candidateText: %v", err)
	}
	if got != `{"taskName":"x"}` {
		t.Fatalf("unexpected text %q", got)
	}

	for _, empty := range []*genai.GenerateContentResponse{nil, {}, {Candidates: []*genai.Candidate{{}}}} {
		if _, err := candidateText(empty); !errors.Is(err, errNoCandidates) {
			t.Fatalf("expected errNoCandidates, got %v", err)
		}
	}
}

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockGenerate(t *testing.T) {
	inv := &fakeInvoker{body: `{"content":[{"type":"text","text":"{\"taskName\":"},{"type":"text","text":"\"x\"}"}]}`}
	b := newBedrock(inv, "")

	got, err := b.Generate(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != `{"taskName":"x"}` {
		t.Fatalf("unexpected text %q", got)
	}
	if aws.ToString(inv.input.ModelId) != DefaultBedrockModel {
		t.Fatalf("unexpected model id %q", aws.ToString(inv.input.ModelId))
	}

	var req bedrockRequest
	if err := sonic.Unmarshal(inv.input.Body, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content[0].Text != "the prompt" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.AnthropicVersion == "" || req.MaxTokens <= 0 {
		t.Fatalf("expected version and max tokens, got %+v", req)
	}
}

func TestBedrockInvokeError(t *testing.T) {
	boom := errors.New("throttled")
	_, err := newBedrock(&fakeInvoker{err: boom}, "m").Generate(context.Background(), "p")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped invoke error, got %v", err)
	}
}

func TestBedrockMissingCredentials(t *testing.T) {
	inv := &fakeInvoker{body: `{"content":[{"type":"text","text":"ok"}]}`}
	b := newBedrock(inv, "")
	b.creds = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, errors.New("no EC2 IMDS role found")
	})

	_, err := b.Generate(context.Background(), "p")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	_, err = New(b, 0, nil).Extract(context.Background(), "Call Rahul tomorrow")
	if kind, _ := KindOf(err); kind != KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if inv.input != nil {
		t.Fatal("model invoked without credentials")
	}
}

func TestBedrockResolvesCredentialsOnce(t *testing.T) {
	calls := 0
	b := newBedrock(&fakeInvoker{body: `{"content":[{"type":"text","text":"ok"}]}`}, "")
	b.creds = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		calls++
		return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"}, nil
	})
	for i := 0; i < 3; i++ {
		if got, err := b.Generate(context.Background(), "p"); err != nil || got != "ok" {
			t.Fatalf("generate: %q %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one credential lookup, got %d", calls)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("unavailable")
	model := &stubModel{generateFn: func(context.Context, string) (string, error) { return "", boom }}
	b := NewBreaker("test", model)

	for i := 0; i < breakerTrips; i++ {
		if _, err := b.Generate(context.Background(), "p"); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected model error, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open circuit, got %v", b.State())
	}

	_, err := b.Generate(context.Background(), "p")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if len(model.prompts) != breakerTrips {
		t.Fatalf("expected open circuit to skip the model, got %d calls", len(model.prompts))
	}
}

func TestBreakerIgnoresMissingCredential(t *testing.T) {
	b := NewBreaker("test", NewGemini("", ""))
	for i := 0; i < breakerTrips+1; i++ {
		if _, err := b.Generate(context.Background(), "p"); !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("expected missing credential, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed circuit, got %v", b.State())
	}
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	b := NewBreaker("test", replying("ok"))
	got, err := b.Generate(context.Background(), "p")
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
}
