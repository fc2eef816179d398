package api

import (
	"context"
	"fmt"
	"net/http"

	"kari/internal/config"
	"kari/internal/corpus"
	"kari/internal/corpus/pgstore"
	"kari/internal/pipeline"
	"kari/internal/services"
	"kari/internal/services/gradio"
	"kari/internal/services/openaiapi"
)

// OpenRepository opens the corpus selected by cfg.Corpus.Driver.
func OpenRepository(ctx context.Context, cfg *config.Config) (corpus.Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is required", services.ErrConfiguration)
	}
	switch cfg.Corpus.Driver {
	case config.CorpusPostgres:
		store, err := pgstore.Open(ctx, cfg.Corpus.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres corpus: %w", err)
		}
		return store, nil
	case config.CorpusSQLite, "":
		store, err := corpus.Open(cfg.CorpusPath())
		if err != nil {
			return nil, fmt.Errorf("open corpus store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown corpus driver %q", services.ErrConfiguration, cfg.Corpus.Driver)
	}
}

// NewBackends builds the recognizer and translator selected by
// cfg.Backend.Kind.
func NewBackends(cfg *config.Config) (pipeline.Recognizer, pipeline.Translator, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: configuration is required", services.ErrConfiguration)
	}
	switch cfg.Backend.Kind {
	case config.BackendOpenAI:
		client := openaiapi.NewClient(openaiapi.Config{
			APIKey:     cfg.Backend.OpenAIAPIKey,
			BaseURL:    cfg.Backend.OpenAIBaseURL,
			AudioModel: cfg.Backend.OpenAIAudioModel,
			ChatModel:  cfg.Backend.OpenAIChatModel,
		})
		return client, client, nil
	case config.BackendGradio, "":
		httpClient := &http.Client{Timeout: cfg.BackendTimeout()}
		opts := []gradio.Option{gradio.WithHTTPClient(httpClient), gradio.WithToken(cfg.Backend.GradioToken)}
		asr := gradio.NewClient(cfg.Backend.RecognitionURL, opts...)
		mt := gradio.NewClient(cfg.Backend.TranslationURL, opts...)
		return gradio.NewRecognizer(asr), gradio.NewTranslator(mt), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend kind %q", services.ErrConfiguration, cfg.Backend.Kind)
	}
}
