package main

import (
	"fmt"
	"net/http"

	"github.com/wgomg/kayum/internal/api"
	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/embedding"
	"github.com/wgomg/kayum/internal/imagesource"
	"github.com/wgomg/kayum/internal/index"
	"github.com/wgomg/kayum/internal/pipeline"
	"github.com/wgomg/kayum/internal/utils"
	"github.com/wgomg/kayum/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger("error", false).WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		utils.NewLogger("error", false).WithError(err).Fatal("invalid configuration")
	}

	logger := utils.NewLogger(cfg.App.LogLevel, cfg.App.Env == config.Production)
	logger.Info("starting image to song matching service")
	logger.Infof("environment: %s", cfg.App.Env)
	logger.Infof("log level: %s", cfg.App.LogLevel)

	var store imagesource.ObjectStore
	if cfg.Bucket.Enabled() {
		bucketStore, err := imagesource.NewBucketStore(&cfg.Bucket, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to create bucket store")
		}
		store = bucketStore
		logger.Infof("bucket source enabled: %s/%s", cfg.Bucket.Endpoint, cfg.Bucket.Name)
	}
	loader := imagesource.NewLoader(cfg, store, logger)

	visionClient, err := vision.NewClient(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create vision client")
	}
	embeddingClient, err := embedding.NewClient(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create embedding client")
	}
	indexClient, err := index.NewClient(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create index client")
	}

	var embedder pipeline.Embedder = embeddingClient
	if cfg.Embedding.CacheEnabled {
		embedder = embedding.NewCachedClient(embeddingClient, cfg.Embedding.CacheSize, logger)
		logger.Infof("embedding cache enabled: size=%d", cfg.Embedding.CacheSize)
	}

	matchPipeline := pipeline.New(loader, visionClient, embedder, indexClient, cfg, logger)
	handler := api.NewHandler(logger, matchPipeline, cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Image to Song Matching Service is running\n")
	})

	api.RegisterRoutes(mux, handler)

	logger.Infof("starting server on port %s", cfg.App.ServerPort)
	logger.Info("endpoints:")
	logger.Info("  GET  /health")
	logger.Info("  POST /match")
	logger.Info("  POST /match/batch")
	logger.Fatal(http.ListenAndServe("0.0.0.0:"+cfg.App.ServerPort, api.RequestIDMiddleware(mux)))
}
