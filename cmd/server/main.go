package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/pwnbisht/llm-chatbot/gemini"
	"github.com/pwnbisht/llm-chatbot/handlers"
	"github.com/pwnbisht/llm-chatbot/repository"
	"github.com/pwnbisht/llm-chatbot/service"
	"github.com/pwnbisht/llm-chatbot/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	st, err := store.New(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize data store: %v", err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}
	embedder := gemini.NewEmbedder(gemini.EmbedderConfig{APIKey: apiKey})
	generator, err := gemini.NewGenerator(context.Background(), apiKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	defer generator.Close()
	log.Println("Gemini clients initialized")

	// Answers are persisted only when a database is configured.
	var answerRepo *repository.AnswerRepository
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		db, err := initPostgres(connString)
		if err != nil {
			log.Fatal("Failed to initialize Postgres:", err)
		}
		defer db.Close()
		answerRepo = repository.NewAnswerRepository(db)
	} else {
		log.Println("DATABASE_URL not set, answers will not be persisted")
	}

	queryOpts := []service.QueryServiceOption{}
	if answerRepo != nil {
		queryOpts = append(queryOpts, service.QueryWithAnswerRepository(answerRepo))
	}
	if k := os.Getenv("RETRIEVAL_K"); k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n <= 0 {
			log.Fatalf("Invalid RETRIEVAL_K: %q", k)
		}
		queryOpts = append(queryOpts, service.QueryWithRetrievalK(n))
	}
	if factsFile := os.Getenv("SITE_FACTS_FILE"); factsFile != "" {
		facts, err := os.ReadFile(factsFile)
		if err != nil {
			log.Fatalf("Failed to read site facts file: %v", err)
		}
		queryOpts = append(queryOpts, service.QueryWithFacts(string(facts)))
	}

	queryService := service.NewQueryService(st, embedder, generator, queryOpts...)
	evalService := service.NewEvalService(st, queryService, generator)

	// Initialize handlers
	queryHandler := handlers.NewQueryHandler(queryService, answerRepo)
	documentHandler := handlers.NewDocumentHandler(st)
	evalHandler := handlers.NewEvalHandler(st, evalService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		api.POST("/query", queryHandler.Query)
		api.GET("/answers/:id", queryHandler.GetAnswer)
		api.POST("/feedback", queryHandler.Feedback)

		// Key-guarded maintenance endpoints
		guarded := api.Group("", handlers.RequireAPIKey(os.Getenv("API_KEY")))
		guarded.POST("/documents", documentHandler.SubmitDocument)
		guarded.POST("/eval/questions", evalHandler.CreateQuestion)
		guarded.POST("/eval/runs", evalHandler.Run)
		guarded.GET("/eval/runs/latest", evalHandler.LatestRun)
		guarded.GET("/admin/answers", queryHandler.ListAnswers)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}
