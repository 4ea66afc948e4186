package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/supportdesk/backend/internal/domain"
)

// Package-level compiled regex patterns for cache-key normalization
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// rejectionAnswer is shown for queries the guard turned away. It is
// deliberately distinct from the verification fallback.
const rejectionAnswer = "We're sorry, but we can't process this request. " +
	"Please rephrase your question and try again."

// PipelineConfig holds configuration for the pipeline orchestrator.
type PipelineConfig struct {
	CacheTTL time.Duration
}

// Pipeline sequences the six stages of one support request:
// guard, classify, resolve, reason, verify, then optional translation.
// Stages run strictly sequentially; no stage executes after a rejection.
type Pipeline struct {
	guard      *GuardService
	classifier *ClassifierService
	resolver   *ResolverService
	answerer   *AnswerService
	verifier   *VerifierService
	translator *TranslateService
	cache      domain.CacheRepository
	cacheTTL   time.Duration
}

// NewPipeline creates a pipeline from its stage services.
func NewPipeline(
	guard *GuardService,
	classifier *ClassifierService,
	resolver *ResolverService,
	answerer *AnswerService,
	verifier *VerifierService,
	translator *TranslateService,
	cache domain.CacheRepository,
	config PipelineConfig,
) *Pipeline {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &Pipeline{
		guard:      guard,
		classifier: classifier,
		resolver:   resolver,
		answerer:   answerer,
		verifier:   verifier,
		translator: translator,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// Process runs one query through the full pipeline.
// Flow: check cache -> guard -> classify -> resolve -> reason -> verify
// -> translate -> cache -> return.
func (p *Pipeline) Process(ctx context.Context, query domain.Query) (*domain.PipelineResult, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := p.generateCacheKey(query)

	// Try cache first
	if cached := p.getFromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	result := &domain.PipelineResult{Query: query}

	// Stage 1: input guard. Policy verdicts are terminal and never retried.
	verdict, err := p.guard.Check(ctx, query)
	if err != nil {
		return nil, err
	}
	result.Guard = verdict
	if verdict.Terminal() {
		log.Printf("[PIPELINE] Query rejected by guard: %s", verdict.Outcome)
		result.Outcome = domain.OutcomeRejected
		result.Answer = rejectionAnswer
		return result, nil
	}

	// Stage 2: intent classification. Advisory; a parse failure leaves the
	// result unclassified and the pipeline continues.
	result.Classification, err = p.classifier.Classify(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("classification: %w", err)
	}

	// Stage 3: entity resolution against the catalog.
	result.Context, err = p.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("entity resolution: %w", err)
	}

	// Stage 4: chain-of-thought reasoning.
	trace, err := p.answerer.Answer(ctx, query, result.Context)
	if err != nil {
		return nil, fmt.Errorf("reasoning: %w", err)
	}
	for _, step := range trace.Steps {
		log.Printf("[PIPELINE] Reasoning step %d: %.120q", step.Number, step.Content)
	}

	// Stage 5: output verification. This is the trust boundary: an
	// unsupported answer never reaches the caller.
	result.Verification, err = p.verifier.Verify(ctx, query, result.Context, trace.Answer)
	if err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}

	if result.Verification == domain.VerdictSupported {
		result.Answer = trace.Answer
		result.Outcome = domain.OutcomeAnswered
	} else {
		result.Answer = domain.FallbackAnswer
		result.Outcome = domain.OutcomeFallback
	}

	// Stage 6: optional translation, applied after verification. The
	// translated text is not re-verified; a translation failure degrades
	// to the untranslated answer rather than failing the request.
	if query.Language != "" && result.Outcome == domain.OutcomeAnswered {
		translated, err := p.translator.Translate(ctx, result.Answer, query.Language)
		if err != nil {
			log.Printf("[PIPELINE] Translation to %s failed: %v", query.Language, err)
		} else {
			result.TranslatedAnswer = translated
		}
	}

	// Cache only fully answered results; rejections and fallbacks are
	// cheap to reproduce and should not stick.
	if result.Outcome == domain.OutcomeAnswered {
		if err := p.setInCache(ctx, cacheKey, result); err != nil {
			log.Printf("[PIPELINE] Failed to cache result: %v", err)
		}
	}

	return result, nil
}

// generateCacheKey creates a normalized cache key from the query.
// Format: "support:{normalized_query_text}:{language}"
func (p *Pipeline) generateCacheKey(query domain.Query) string {
	return fmt.Sprintf("support:%s:%s", normalizeForCacheKey(query.Text), normalizeForCacheKey(query.Language))
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes special characters, and trims whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves a previously answered result. Cache problems are
// never fatal; a miss of any kind just re-runs the pipeline.
func (p *Pipeline) getFromCache(ctx context.Context, key string) *domain.PipelineResult {
	value, err := p.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	// Values come back from the store as generic JSON; round-trip them
	// into the typed result.
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var result domain.PipelineResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	if result.Answer == "" {
		return nil
	}

	return &result
}

// setInCache stores an answered result.
func (p *Pipeline) setInCache(ctx context.Context, key string, result *domain.PipelineResult) error {
	return p.cache.Set(ctx, key, result, p.cacheTTL)
}
