// Package extract turns uploaded document files into ExtractedDocument
// records using a vision-language model.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Client calls the model API and parses its output. Implements
// service.DocumentExtractor.
type Client struct {
	client    *genai.Client
	logger    *slog.Logger
	model     string
	retryOpts common.RetryOptions
}

// NewClient creates an extraction client. API credentials are taken from the
// environment, following the genai SDK conventions.
func NewClient(ctx context.Context, model string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "extract"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Extract sends the file to the model and parses the structured response
// into a document. The raw extracted strings pass through the same
// normalization rules as every other matching input.
func (c *Client) Extract(ctx context.Context, filename string, data []byte) (*model.ExtractedDocument, error) {
	mimeType := mimeTypeFor(filename)
	if mimeType == "" {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	c.logger.Info("Extracting document", "file", filename, "mime_type", mimeType, "model", c.model)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	var rawText string
	retryErr := common.WithRetry(ctx, func() error {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("generate content: %w", err), Retryable: true}
		}
		rawText = resp.Text()
		if rawText == "" {
			return &common.RetryableError{Err: fmt.Errorf("empty response from model"), Retryable: true}
		}
		return nil
	}, c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	payload, err := parseModelResponse(rawText)
	if err != nil {
		return nil, err
	}
	return payload.toDocument(filename)
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
