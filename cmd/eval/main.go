package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pwnbisht/llm-chatbot/gemini"
	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/service"
	"github.com/pwnbisht/llm-chatbot/store"
)

func main() {
	create := flag.Bool("create", false, "interactively add questions to the set")
	run := flag.Bool("run", false, "run the evaluation")
	set := flag.String("set", "", "question set name (empty runs every set)")
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

	switch {
	case *create:
		if *set == "" {
			log.Fatal("-create requires -set")
		}
		createQuestions(st, *set)
	case *run:
		runEvals(st, *set)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func createQuestions(st *store.Store, set string) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Question (empty to finish): ")
		question, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		question = strings.TrimSpace(question)
		if question == "" {
			return
		}

		fmt.Print("Expected answer: ")
		answer, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		answer = strings.TrimSpace(answer)

		q := models.EvalQuestion{Question: question, ExpectedAnswer: answer}
		if err := st.AddEvalQuestion(set, q); err != nil {
			log.Fatalf("Failed to store question: %v", err)
		}
		fmt.Printf("Added to %s\n", set)
	}
}

func runEvals(st *store.Store, set string) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	embedder := gemini.NewEmbedder(gemini.EmbedderConfig{APIKey: apiKey})
	generator, err := gemini.NewGenerator(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini: %v", err)
	}
	defer generator.Close()

	queryOpts := []service.QueryServiceOption{}
	if factsFile := os.Getenv("SITE_FACTS_FILE"); factsFile != "" {
		facts, err := os.ReadFile(factsFile)
		if err != nil {
			log.Fatalf("Failed to read site facts file: %v", err)
		}
		queryOpts = append(queryOpts, service.QueryWithFacts(string(facts)))
	}
	queries := service.NewQueryService(st, embedder, generator, queryOpts...)
	evals := service.NewEvalService(st, queries, generator)

	report, err := evals.Run(ctx, set)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	stats := report.Stats
	fmt.Printf("Precision: %g\n", stats.Precision)
	fmt.Printf("Recall: %g\n", stats.Recall)
	fmt.Printf("F1 Score: %g\n", stats.F1Score)
	fmt.Printf("Successful evals: %d\n", stats.SuccessfulCount)
	fmt.Printf("Failed evals: %d\n", stats.FailedCount)
	fmt.Printf("Unsure evals: %d\n", stats.UnsureCount)
	if len(stats.Unclassified) > 0 {
		fmt.Printf("Unclassified evals: %d\n", len(stats.Unclassified))
	}
	if len(stats.Errored) > 0 {
		fmt.Printf("Errored evals: %d\n", len(stats.Errored))
	}
	fmt.Printf("Eval started at: %s\n", stats.StartedTime)
}
