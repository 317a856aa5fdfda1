package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/datasage-ai/datasage/pkg/config"
	"github.com/datasage-ai/datasage/pkg/handler"
	"github.com/datasage-ai/datasage/pkg/service"
	"github.com/datasage-ai/datasage/pkg/utils"
)

type Server struct {
	ginEngine *gin.Engine
	logger    *slog.Logger
	cfg       *config.AppConfig
	port      int
}

func NewServer(cfg *config.AppConfig) (*Server, error) {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	// CORS middleware for local dev frontends.
	ginEngine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1") {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			} else {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	server := &Server{
		ginEngine: ginEngine,
		logger:    utils.GetLogger(),
		cfg:       cfg,
	}
	if err := server.SetupRoutes(); err != nil {
		return nil, err
	}
	return server, nil
}

func (s *Server) SetupRoutes() error {
	modelService := service.NewModelService(s.cfg.ModelsFile(), s.cfg.Temperature())

	embeddingConfig, err := modelService.ResolveModel(s.cfg.EmbeddingModel())
	if err != nil {
		return fmt.Errorf("failed to resolve embedding model: %w", err)
	}
	embeddingFunc, err := modelService.CreateEmbeddingFunc(embeddingConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding function: %w", err)
	}

	tracker, err := service.NewTokenTracker(s.cfg.PricingFile())
	if err != nil {
		return fmt.Errorf("failed to initialize token tracker: %w", err)
	}

	retrievalService, err := service.NewRetrievalService(service.RetrievalConfig{
		VectorStorePath: s.cfg.VectorStorePath(),
		EmbeddingModel:  s.cfg.EmbeddingModel(),
		ChunkSize:       s.cfg.ChunkSize(),
		ChunkOverlap:    s.cfg.ChunkOverlap(),
		TopK:            s.cfg.TopK(),
	}, embeddingFunc, tracker)
	if err != nil {
		return fmt.Errorf("failed to initialize retrieval service: %w", err)
	}

	documentService, err := service.NewDocumentService(service.DocumentConfig{
		UploadDir:      s.cfg.UploadDir(),
		CatalogPath:    s.cfg.CatalogPath(),
		MaxFileSizeMB:  s.cfg.MaxFileSizeMB(),
		MaxDocuments:   s.cfg.MaxDocuments(),
		SupportedTypes: s.cfg.SupportedTypes(),
	}, retrievalService)
	if err != nil {
		return fmt.Errorf("failed to initialize document service: %w", err)
	}

	databaseService := service.NewDatabaseService()

	store := service.NewConversationStore(s.cfg.HistoryLimit())
	chatService := service.NewChatService(store, modelService, documentService, retrievalService, databaseService, tracker)

	apiGroup := s.ginEngine.Group("/api")
	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler.NewChatHandler(chatService, s.cfg.DefaultModel()).RegisterRoutes(apiGroup)
	handler.NewDocumentHandler(documentService).RegisterRoutes(apiGroup)
	handler.NewDatabaseHandler(databaseService).RegisterRoutes(apiGroup)
	handler.NewUsageHandler(tracker, modelService).RegisterRoutes(apiGroup)
	return nil
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host(), s.cfg.Port())
	srv := &http.Server{Addr: addr, Handler: s.ginEngine}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}
	s.logger.Info("server listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
