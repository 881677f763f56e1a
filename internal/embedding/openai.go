package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/hyperjump/chatsearch/internal/metrics"
	"github.com/hyperjump/chatsearch/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const providerOpenAI = "openai"

// OpenAIEmbedder calls the OpenAI embeddings endpoint, or any server implementing it.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedder from cfg. The API key is required.
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: api key is required (set OPENAI_API_KEY)")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai embedder: model is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout,
		logger:     utils.OrNop(logger),
	}, nil
}

// Embed returns the embedding of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	metrics.EmbeddingRequests.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		e.logger.Debug("embedding request failed", zap.String("model", e.model), zap.Error(err))
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &ServiceError{Provider: providerOpenAI, Message: "response contained no embedding"}
	}
	return resp.Data[0].Embedding, nil
}

// Model returns the configured model name.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

func wrapOpenAIError(err error) *ServiceError {
	se := &ServiceError{Provider: providerOpenAI, Cause: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		se.StatusCode = apiErr.HTTPStatusCode
		se.Message = "api error"
	case errors.As(err, &reqErr):
		se.StatusCode = reqErr.HTTPStatusCode
		se.Message = "request error"
	case errors.Is(err, context.DeadlineExceeded):
		se.Message = "request timed out"
	default:
		se.Message = "request failed"
	}
	return se
}
