package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pwnbisht/llm-chatbot/gemini"
	"github.com/pwnbisht/llm-chatbot/service"
	"github.com/pwnbisht/llm-chatbot/storage"
	"github.com/pwnbisht/llm-chatbot/store"
)

func main() {
	newGeneration := flag.Bool("new", false, "start a fresh index generation before ingesting")
	snapshot := flag.Bool("snapshot", false, "back up the current generation to the storage backend and exit")
	restore := flag.Int("restore", 0, "restore the given generation from the storage backend and exit")
	policy := flag.String("policy", service.ChunkPolicyWords, "chunking policy: words or paragraphs")
	wordCount := flag.Int("words", service.DefaultChunkWordCount, "words per chunk under the words policy")
	flag.Parse()

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

	ctx := context.Background()

	if *snapshot || *restore > 0 {
		backend, err := storage.NewStorageFromEnv()
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		if *restore > 0 {
			if err := st.RestoreGeneration(ctx, backend, *restore); err != nil {
				log.Fatalf("Restore failed: %v", err)
			}
			if err := st.SetCurrentGeneration(*restore); err != nil {
				log.Fatalf("Failed to activate generation %d: %v", *restore, err)
			}
			log.Printf("Restored generation %d", *restore)
			return
		}
		current, err := st.CurrentGeneration()
		if err != nil {
			log.Fatalf("Failed to read current generation: %v", err)
		}
		if err := st.BackupGeneration(ctx, backend, current); err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		log.Printf("Backed up generation %d", current)
		return
	}

	if *newGeneration {
		n, err := st.NewGeneration()
		if err != nil {
			log.Fatalf("Failed to start new generation: %v", err)
		}
		log.Printf("Started generation %d", n)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}
	embedder := gemini.NewEmbedder(gemini.EmbedderConfig{APIKey: apiKey})

	opts := []service.IngestServiceOption{
		service.IngestWithChunkPolicy(*policy),
		service.IngestWithChunkWordCount(*wordCount),
	}
	if pause := os.Getenv("CHUNK_PAUSE_SECONDS"); pause != "" {
		secs, err := strconv.Atoi(pause)
		if err != nil || secs < 0 {
			log.Fatalf("Invalid CHUNK_PAUSE_SECONDS: %q", pause)
		}
		opts = append(opts, service.IngestWithChunkPause(time.Duration(secs)*time.Second))
	}
	svc := service.NewIngestService(st, embedder, opts...)

	processed, err := svc.ProcessPending(ctx)
	if err != nil {
		log.Fatalf("Ingestion aborted after %d documents: %v", processed, err)
	}
	log.Printf("Indexed %d documents", processed)
}
