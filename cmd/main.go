package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/label-compare-system/api"
	"github.com/fyerfyer/label-compare-system/api/handler"
	"github.com/fyerfyer/label-compare-system/api/middleware"
	appconfig "github.com/fyerfyer/label-compare-system/config"
	"github.com/fyerfyer/label-compare-system/internal/cache"
	"github.com/fyerfyer/label-compare-system/internal/compare"
	"github.com/fyerfyer/label-compare-system/internal/database"
	"github.com/fyerfyer/label-compare-system/internal/embedding"
	"github.com/fyerfyer/label-compare-system/internal/llm"
	"github.com/fyerfyer/label-compare-system/internal/repository"
	"github.com/fyerfyer/label-compare-system/internal/services"
	"github.com/fyerfyer/label-compare-system/pkg/taskqueue"
)

func main() {
	// 加载.env文件（存在时）
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env file")
	}

	configFile := flag.String("config", "", "Path to config file")
	mode := flag.String("mode", "release", "Run mode (debug/release)")
	flag.Parse()

	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	gin.SetMode(*mode)

	logger := setupLogger(cfg.Log)
	middleware.SetLogger(logger)
	logger.Info("Starting Label Compare System...")

	// 初始化数据库
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	if err := database.Setup(dbConfig, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// 创建缓存服务
	cacheService := setupCache(cfg, logger)

	// 创建嵌入客户端和批处理器
	embeddingClient, err := embedding.NewClient(cfg.Embed.Provider,
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithBaseURL(cfg.Embed.Endpoint),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
		embedding.WithDimensions(cfg.Embed.Dimensions),
	)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}
	batchProcessor := embedding.NewBatchProcessor(embeddingClient, cfg.Embed.BatchSize, cfg.Compare.MaxWorkers)

	// 创建大语言模型客户端
	llmClient, err := llm.NewClient(cfg.LLM.Provider,
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithBaseURL(cfg.LLM.Endpoint),
		llm.WithModel(cfg.LLM.Model),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// 初始化业务服务
	store := repository.NewDocumentRepository(database.MustDB())

	semanticConfig := compare.SemanticConfig{
		SimilarityThreshold:  cfg.Compare.SimilarityThreshold,
		HighSimilarityCutoff: cfg.Compare.HighSimilarityCutoff,
		Dimensions:           cfg.Embed.Dimensions,
	}
	compareService := services.NewCompareService(
		store,
		batchProcessor,
		cacheService,
		services.WithCompareLogger(logger),
		services.WithSemanticConfig(semanticConfig),
		services.WithLexicalConfig(compare.LexicalConfig{MaxDiffRunes: cfg.Compare.MaxDiffRunes}),
		services.WithMaxWorkers(cfg.Compare.MaxWorkers),
	)

	explainer := llm.NewExplainer(llmClient, llm.DefaultExplainerConfig())
	explainService := services.NewExplainService(
		store,
		explainer,
		cacheService,
		services.WithExplainLogger(logger),
	)

	// 初始化任务队列和报告服务（如果启用）
	var reportHandler *handler.ReportHandler
	var worker taskqueue.Worker
	if cfg.Queue.Enable {
		queueConfig := &taskqueue.Config{
			RedisAddr:     cfg.Queue.RedisAddr,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
			RetryLimit:    cfg.Queue.RetryLimit,
			RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
			Queues:        taskqueue.DefaultConfig().Queues,
		}
		queue, err := taskqueue.NewQueue(cfg.Queue.Type, queueConfig)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()

		reportService := services.NewReportService(queue, compareService, logger)
		reportHandler = handler.NewReportHandler(reportService)

		redisQueue, ok := queue.(*taskqueue.RedisQueue)
		if !ok {
			logger.Fatalf("Unsupported queue implementation for worker: %s", cfg.Queue.Type)
		}
		worker = taskqueue.NewRedisWorker(redisQueue, queueConfig)
		worker.RegisterHandler(taskqueue.TaskReportGenerate, services.NewReportHandler(queue, compareService, logger))
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Report task queue initialized")
	}

	// 初始化API处理器
	docHandler := handler.NewDocumentHandler(store)
	compareHandler := handler.NewCompareHandler(compareService, explainService)

	// 设置路由
	r := api.SetupRouter(docHandler, compareHandler, reportHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 初始化日志记录器
// 配置了日志文件时输出同时写入标准输出和带轮转的文件
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}

// setupCache 初始化缓存服务
// Redis不可用时回退到内存缓存
func setupCache(cfg *appconfig.Config, logger *logrus.Logger) cache.Cache {
	if !cfg.Cache.Enable {
		return nil
	}

	cacheConfig := cache.Config{
		Type:          cfg.Cache.Type,
		RedisAddr:     cfg.Cache.Address,
		RedisPassword: cfg.Cache.Password,
		RedisDB:       cfg.Cache.DB,
		DefaultTTL:    time.Duration(cfg.Cache.TTL) * time.Second,
	}

	cacheService, err := cache.NewCache(cacheConfig)
	if err != nil {
		logger.Warnf("Failed to initialize %s cache, falling back to memory cache: %v", cfg.Cache.Type, err)
		cacheConfig.Type = "memory"
		cacheService, err = cache.NewCache(cacheConfig)
		if err != nil {
			logger.Fatalf("Failed to initialize memory cache: %v", err)
		}
	}

	return cacheService
}
