package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/api/handlers"
	"github.com/markdave123-py/docchat/internal/config"
	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/core/auth"
	db "github.com/markdave123-py/docchat/internal/core/database"
	"github.com/markdave123-py/docchat/internal/core/encoder"
	"github.com/markdave123-py/docchat/internal/core/llm"
	objectclient "github.com/markdave123-py/docchat/internal/core/object-client"
	"github.com/markdave123-py/docchat/internal/services"
)

type App struct {
	DBClient *db.DatabaseClient
	LLM      *llm.GeminiLLM
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready", zap.String("driver", cfg.DBDriver))

	// previews fall back to data URLs without a bucket
	var objects core.ObjectClient
	if cfg.ObjectStorageEnabled() {
		s3Client, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			_ = dbClient.Close()
			return nil, err
		}
		objects = s3Client
		logger.Info("object client initialized and ready", zap.String("bucket", cfg.BucketName))
	}

	llmProvider, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the model client, %w", err)
	}

	tokens := auth.NewTokens(cfg.JWTSecret)
	enc := encoder.NewEncoder(objects, cfg.MaxUploadBytes(), logger.Named("encoder"))

	users := services.NewUserService(dbClient, tokens)
	docs := services.NewDocumentService(dbClient, enc, logger.Named("documents"))
	chats := services.NewChatService(dbClient, llmProvider, cfg.SessionTTL, logger.Named("chat"))
	dashboard := services.NewDashboardService(dbClient, logger.Named("dashboard"))

	router := NewRouter(cfg, logger, tokens, Handlers{
		Auth:      handlers.NewAuthHandler(users, logger),
		Documents: handlers.NewDocumentHandler(docs, cfg.MaxUploadBytes(), logger),
		Chats:     handlers.NewChatHandler(chats, dashboard, logger),
	})

	return &App{
		DBClient: dbClient,
		LLM:      llmProvider,
		Server:   NewServer(cfg, logger, router),
	}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
