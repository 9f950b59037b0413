package main

import (
	"fmt"
	"log"
	"os"

	"go-advisor/internal/api"
	"go-advisor/internal/auth"
	"go-advisor/internal/catalog"
	"go-advisor/internal/config"
	"go-advisor/internal/db"
	"go-advisor/internal/dialogue"
	"go-advisor/internal/history"
	"go-advisor/internal/llm"
	"go-advisor/internal/prompt"
	redisdb "go-advisor/internal/redis"
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
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	rdb := redisdb.NewClient(cfg)

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

	var sessions session.Store
	if cfg.Sessions.Backend == "redis" {
		sessions = session.NewRedisStore(rdb)
		log.Printf("[Main] Sessions backed by redis")
	} else {
		sessions = session.NewMemoryStore()
		log.Printf("[Main] Sessions held in memory")
	}

	ctrl := dialogue.NewController(sessions, cat)
	planner := retrieval.NewPlanner(store, cat,
		cfg.Retrieval.ServiceTopK, cfg.Retrieval.BaselineTopK, cfg.Retrieval.FinalTopK)
	completer := llm.NewClient(cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Name, cfg.LLM.MaxTokens)
	recorder := history.NewRecorder(db.DB, cat)
	engine := dialogue.NewEngine(ctrl, planner, prompt.NewBuilder(cat), completer, cat, recorder)

	tokens := auth.NewRedisTokenStore(rdb)
	r := api.SetupRouter(cfg, api.Deps{
		Engine:      engine,
		Controller:  ctrl,
		Recorder:    recorder,
		Tokens:      tokens,
		RedisTokens: tokens,
	})
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
