package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	geminiUserRole     = "user"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string, timeout time.Duration) (*GeminiProvider, error) {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		timeout: timeout,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate implements single-exchange generation using Gemini's API
func (p *GeminiProvider) Generate(ctx context.Context, request *ProviderRequest) (*RawOutput, error) {
	startTime := time.Now()
	log.Printf("🎵 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents := p.buildGeminiContents(request.InputArray)

	// Configure generation with structured output
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		},
	}
	if request.OutputSchema != nil {
		config.ResponseMIMEType = mimeTypeJSON
		config.ResponseSchema = fragmentSchemaForGemini()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Call Gemini API
	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, classifyTransportError(providerNameGemini, err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)

	output, err := p.processGeminiResponse(result)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI GENERATION COMPLETED in %v (output: %d chars)", time.Since(startTime), len(output.Text))
	return output, nil
}

// buildGeminiContents converts our input array to Gemini Content format
func (p *GeminiProvider) buildGeminiContents(inputArray []map[string]any) []*genai.Content {
	var contents []*genai.Content

	for _, item := range inputArray {
		_, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		// Gemini uses "user" and "model"; developer/system messages go as user
		contents = append(contents, &genai.Content{
			Role:  geminiUserRole,
			Parts: []*genai.Part{{Text: content}},
		})
	}

	return contents
}

// fragmentSchemaForGemini mirrors GetFragmentOutputSchema in Gemini's
// native schema type.
func fragmentSchemaForGemini() *genai.Schema {
	beatValue := &genai.Schema{Type: genai.TypeString}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"notes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"pitch":         {Type: genai.TypeString},
						"startBeats":    beatValue,
						"durationBeats": beatValue,
						"velocity":      {Type: genai.TypeInteger},
						"tied":          {Type: genai.TypeBoolean},
					},
					Required: []string{"pitch", "startBeats", "durationBeats", "velocity", "tied"},
				},
			},
			"chords": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"root":          {Type: genai.TypeString},
						"quality":       {Type: genai.TypeString},
						"startBeats":    beatValue,
						"durationBeats": beatValue,
					},
					Required: []string{"root", "quality", "startBeats", "durationBeats"},
				},
			},
		},
		Required: []string{"notes", "chords"},
	}
}

// processGeminiResponse extracts the raw text output from a Gemini response
func (p *GeminiProvider) processGeminiResponse(result *genai.GenerateContentResponse) (*RawOutput, error) {
	if len(result.Candidates) == 0 {
		return nil, &MalformedOutputError{Reason: "no candidates in Gemini response"}
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &MalformedOutputError{Reason: "no parts in Gemini response"}
	}

	textOutput := candidate.Content.Parts[0].Text
	log.Printf("📥 GEMINI RESPONSE: output_length=%d", len(textOutput))

	if textOutput == "" {
		return nil, &MalformedOutputError{Reason: "gemini response did not include any output text"}
	}

	usage := map[string]any{}
	if result.UsageMetadata != nil {
		usage["input_tokens"] = int(result.UsageMetadata.PromptTokenCount)
		usage["output_tokens"] = int(result.UsageMetadata.CandidatesTokenCount)
		usage["total_tokens"] = int(result.UsageMetadata.TotalTokenCount)
		log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
			result.UsageMetadata.PromptTokenCount,
			result.UsageMetadata.CandidatesTokenCount,
			result.UsageMetadata.TotalTokenCount)
	}

	return &RawOutput{
		Text:     textOutput,
		Provider: providerNameGemini,
		Usage:    usage,
	}, nil
}
