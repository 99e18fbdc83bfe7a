package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// errEmptyCompletion marks a response without usable content.
var errEmptyCompletion = errors.New("no choices in completion response")

// Complete implements llm.Completer with chat/completions. Each attempt is
// bounded by cfg.Timeout; transient failures are retried cfg.MaxRetries times.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	logger := common.LoggerFromContext(ctx, c.logger)
	start := time.Now()

	logger.Info("llm.complete.start",
		zap.String("model", c.cfg.Model),
		zap.Float32("temp", c.cfg.Temperature),
		zap.Int("system_len", len(req.System)),
		zap.Int("user_len", len(req.User)),
		zap.Bool("structured", c.cfg.StructuredOutput && req.Schema != nil),
	)

	params := c.buildParams(req)

	var content string
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			out, err := c.once(ctx, params)
			if err != nil {
				return err
			}
			content = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.cfg.MaxRetries)+1),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("llm.complete.retry", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		logger.Error("llm.complete.failed",
			zap.Int("attempts", attempt),
			zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return "", common.NewAppError(common.CodeCompletion, "completion request failed", fmt.Errorf("%w: %v", common.ErrUpstream, err))
	}

	logger.Info("llm.complete.ok",
		zap.Int("attempts", attempt),
		zap.Int("content_len", len(content)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return content, nil
}

func (c *Client) buildParams(req llm.CompletionRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(float64(c.cfg.Temperature)),
	}
	if c.cfg.StructuredOutput && req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = llm.SchemaName
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: req.Schema,
					Strict: openai.Bool(false),
				},
			},
		}
	}
	return params
}

func (c *Client) once(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(attemptCtx, params)
	if err != nil {
		// the parent context still being alive means our own deadline fired
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("attempt timed out after %s: %w", c.cfg.Timeout, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyCompletion
	}
	return content, nil
}

// isTransient reports whether an attempt failure is worth one more try.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errEmptyCompletion) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
