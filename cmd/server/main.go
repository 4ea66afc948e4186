package main

import (
	"fmt"
	"log"
	"os"

	"github.com/supportdesk/backend/config"
	httpDelivery "github.com/supportdesk/backend/internal/delivery/http"
	"github.com/supportdesk/backend/internal/infrastructure/cache"
	"github.com/supportdesk/backend/internal/infrastructure/catalog"
	"github.com/supportdesk/backend/internal/infrastructure/llm"
	"github.com/supportdesk/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SupportDesk Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	// Load the product catalog. Load failure is fatal; the service cannot
	// answer anything without it.
	productCatalog, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load product catalog from %s: %v", cfg.Catalog.Path, err)
	}
	log.Printf("Catalog loaded: %d products from %s", productCatalog.Size(), cfg.Catalog.Path)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	llmClient := llm.NewClient(llm.ClientConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.Model,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		MaxRetries:        cfg.OpenAI.MaxRetries,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		llmClient.SetDebug(true)
		log.Printf("LLM client debug mode enabled")
	}

	log.Printf("Backend model: %s (rpm=%d, retries=%d)",
		cfg.OpenAI.Model, cfg.OpenAI.RequestsPerMinute, cfg.OpenAI.MaxRetries)

	// Initialize usecase layer
	translator := usecase.NewTranslateService(llmClient)
	pipeline := usecase.NewPipeline(
		usecase.NewGuardService(llmClient, llmClient),
		usecase.NewClassifierService(llmClient),
		usecase.NewResolverService(llmClient, productCatalog),
		usecase.NewAnswerService(llmClient),
		usecase.NewVerifierService(llmClient),
		translator,
		memoryCache,
		usecase.PipelineConfig{CacheTTL: cfg.Cache.TTL},
	)
	composer := usecase.NewComposerService(llmClient, translator)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(pipeline, composer, productCatalog, cfg.Pipeline.StageTimeout)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
