// Command advisor is an interactive terminal client for the staged advisory
// flow, useful for exercising the pipeline without the HTTP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"go-advisor/internal/catalog"
	"go-advisor/internal/config"
	"go-advisor/internal/dialogue"
	"go-advisor/internal/llm"
	"go-advisor/internal/prompt"
	"go-advisor/internal/retrieval"
	"go-advisor/internal/session"
	"go-advisor/internal/vector"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.KnowledgeBase.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Knowledge base error: %v\n", err)
		os.Exit(1)
	}

	embedder := vector.NewEmbedder(cfg.Embedding.URL, cfg.Embedding.Name)
	store, err := vector.NewStore(cfg.Qdrant.URL, cfg.Qdrant.Collection, cfg.Qdrant.APIKey, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Vector store error: %v\n", err)
		os.Exit(1)
	}

	ctrl := dialogue.NewController(session.NewMemoryStore(), cat)
	planner := retrieval.NewPlanner(store, cat,
		cfg.Retrieval.ServiceTopK, cfg.Retrieval.BaselineTopK, cfg.Retrieval.FinalTopK)
	completer := llm.NewClient(cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Name, cfg.LLM.MaxTokens)
	engine := dialogue.NewEngine(ctrl, planner, prompt.NewBuilder(cat), completer, cat, nil)

	sessionID := uuid.New().String()
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Fintech advisor ready. Type 'exit' to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			fmt.Println("Goodbye!")
			return
		}

		reply, stage, err := engine.Turn(ctx, sessionID, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n[%s]\n", reply, stage)
	}
}
