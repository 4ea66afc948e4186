package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/supportdesk/backend/config"
	"github.com/supportdesk/backend/internal/domain"
	"github.com/supportdesk/backend/internal/infrastructure/cache"
	"github.com/supportdesk/backend/internal/infrastructure/catalog"
	"github.com/supportdesk/backend/internal/infrastructure/llm"
	"github.com/supportdesk/backend/internal/usecase"
)

// testCase is one entry of the evaluation set: a customer query plus an
// optional human-authored expert answer.
type testCase struct {
	Query       string `json:"query"`
	IdealAnswer string `json:"ideal_answer,omitempty"`
}

func main() {
	testSetPath := flag.String("testset", "", "path to a JSON file of {query, ideal_answer} test cases")
	verbose := flag.Bool("verbose", false, "print full pipeline results for each case")
	flag.Parse()

	if *testSetPath == "" {
		fmt.Fprintln(os.Stderr, "usage: eval -testset <path> [-verbose]")
		os.Exit(2)
	}

	cases, err := loadTestSet(*testSetPath)
	if err != nil {
		log.Fatalf("Failed to load test set: %v", err)
	}
	if len(cases) == 0 {
		log.Fatalf("Test set %s contains no cases", *testSetPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	productCatalog, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load product catalog from %s: %v", cfg.Catalog.Path, err)
	}

	llmClient := llm.NewClient(llm.ClientConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.Model,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		MaxRetries:        cfg.OpenAI.MaxRetries,
	})

	translator := usecase.NewTranslateService(llmClient)
	pipeline := usecase.NewPipeline(
		usecase.NewGuardService(llmClient, llmClient),
		usecase.NewClassifierService(llmClient),
		usecase.NewResolverService(llmClient, productCatalog),
		usecase.NewAnswerService(llmClient),
		usecase.NewVerifierService(llmClient),
		translator,
		cache.NewMemoryCache(),
		usecase.PipelineConfig{CacheTTL: cfg.Cache.TTL},
	)
	evaluator := usecase.NewEvaluatorService(llmClient)

	ctx := context.Background()
	failures := 0

	for i, tc := range cases {
		fmt.Printf("=== Case %d/%d: %q\n", i+1, len(cases), tc.Query)

		result, err := pipeline.Process(ctx, domain.Query{Text: tc.Query})
		if err != nil {
			fmt.Printf("    pipeline error: %v\n", err)
			failures++
			continue
		}

		fmt.Printf("    outcome: %s\n", result.Outcome)
		if *verbose {
			raw, _ := json.MarshalIndent(result, "    ", "  ")
			fmt.Printf("    %s\n", raw)
		} else {
			fmt.Printf("    answer: %s\n", result.Answer)
		}

		if result.Outcome != domain.OutcomeAnswered {
			continue
		}

		rubric, err := evaluator.EvalWithRubric(ctx, result.Query, result.Context, result.Answer)
		if err != nil {
			fmt.Printf("    rubric error: %v\n", err)
			failures++
		} else if rubric.Parsed {
			fmt.Printf("    rubric: grounded=%v hallucination=%v disagreement=%v questions=%d covered=%d\n",
				rubric.Grounded, rubric.Hallucination, rubric.Disagreement,
				rubric.QuestionCount, rubric.CoveredCount)
		} else {
			fmt.Printf("    rubric (unparsed): %s\n", rubric.Raw)
		}

		if tc.IdealAnswer != "" {
			verdict, err := evaluator.EvalVsIdeal(ctx, result.Query, tc.IdealAnswer, result.Answer)
			if err != nil {
				fmt.Printf("    ideal comparison error: %v\n", err)
				failures++
			} else {
				fmt.Printf("    vs ideal: %s\n", verdict)
			}
		}
	}

	fmt.Printf("=== Done: %d cases, %d failures\n", len(cases), failures)
	if failures > 0 {
		os.Exit(1)
	}
}

// loadTestSet reads and decodes the evaluation cases.
func loadTestSet(path string) ([]testCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []testCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cases, nil
}
