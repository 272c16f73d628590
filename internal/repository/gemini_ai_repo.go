package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/httpclient"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/ratelimit"
	"abyss-screener/pkg/utils"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

type AIRepository interface {
	NarrateSignal(ctx context.Context, signal *model.StockSignal) (*dto.AINarrateSignalResponse, error)
}

// geminiAIRepository turns a screening verdict into a short written reading
// through the Google Gemini API and persists the result next to the signal.
type geminiAIRepository struct {
	db             *gorm.DB
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(db *gorm.DB, cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		db:             db,
		httpClient:     httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout, ""),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) NarrateSignal(ctx context.Context, signal *model.StockSignal) (*dto.AINarrateSignalResponse, error) {
	if signal == nil {
		return nil, fmt.Errorf("no signal to narrate")
	}

	var stages []screener.StageResult
	if len(signal.Stages) > 0 {
		if err := json.Unmarshal(signal.Stages, &stages); err != nil {
			r.logger.ErrorContext(ctx, "failed to decode signal stages", logger.ErrorField(err))
			return nil, fmt.Errorf("failed to decode signal stages: %w", err)
		}
	}

	var ohlcv []dto.StockOHLCV
	if len(signal.OHLCV) > 0 {
		if err := json.Unmarshal(signal.OHLCV, &ohlcv); err != nil {
			r.logger.ErrorContext(ctx, "failed to decode signal ohlcv", logger.ErrorField(err))
			return nil, fmt.Errorf("failed to decode signal ohlcv: %w", err)
		}
	}

	param := dto.AINarrateSignalParam{
		StockCode:   signal.StockCode,
		Exchange:    signal.Exchange,
		State:       screener.SignalState(signal.State),
		MarketPrice: signal.MarketPrice,
		Stages:      stages,
		OHLCV:       ohlcv,
	}

	prompt, err := r.promptNarrateSignal(param)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to generate narration prompt", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to generate narration prompt: %w", err)
	}

	geminiAPIResponse, err := r.sendRequest(ctx, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send request to gemini", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to gemini: %w", err)
	}

	var result dto.AINarrateSignalResponse
	if err := r.parseResponse(geminiAPIResponse, &result); err != nil {
		r.logger.ErrorContext(ctx, "failed to parse response from gemini", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to parse response from gemini: %w", err)
	}

	// Set default
	result.MarketPrice = signal.MarketPrice
	result.StockCode = signal.StockCode
	result.Exchange = signal.Exchange
	result.Timestamp = utils.TimeNowWIB()

	jsonResult, err := json.Marshal(result)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to marshal result", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	narrative := model.SignalNarrative{
		StockCode:      signal.StockCode,
		Exchange:       signal.Exchange,
		Prompt:         prompt,
		HashIdentifier: signal.HashIdentifier,
		Response:       jsonResult,
		MarketPrice:    signal.MarketPrice,
		Stance:         result.Stance,
		Confidence:     result.Confidence,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&narrative).Error; err != nil {
			return fmt.Errorf("failed to create signal narrative: %w", err)
		}

		if err := tx.Model(&model.StockSignal{}).Where("id = ?", signal.ID).Update("signal_narrative_id", narrative.ID).Error; err != nil {
			return fmt.Errorf("failed to link signal narrative: %w", err)
		}

		return nil
	})

	if err != nil {
		r.logger.ErrorContext(ctx, "failed to persist signal narrative", logger.ErrorField(err))
		return nil, err
	}

	return &result, nil
}

func (r *geminiAIRepository) sendRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	if int(geminiTokenResp.TotalTokens) > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.Warn("Token has exceeded 50% of the limit", logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}

	geminiAPIResponse := dto.GeminiAPIResponse{}

	apiURL := fmt.Sprintf("/%s:generateContent?key=%s", r.cfg.Gemini.BaseModel, r.cfg.Gemini.APIKey)

	geminiResp, err := r.httpClient.Post(ctx, apiURL, payload, nil, &geminiAPIResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to gemini: %w", err)
	}

	if geminiResp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "failed to get data from gemini", logger.IntField("status_code", geminiResp.StatusCode))
		return nil, fmt.Errorf("failed to get data: %v", geminiResp.Body)
	}

	return &geminiAPIResponse, nil
}

func (r *geminiAIRepository) parseResponse(response *dto.GeminiAPIResponse, dest interface{}) error {
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := response.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	return json.Unmarshal([]byte(jsonString), dest)
}
