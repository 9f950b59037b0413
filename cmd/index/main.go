// Command index chunks the knowledge base and upserts it into Qdrant.
// Run it once before the server, and again whenever the knowledge base
// changes.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-advisor/internal/chunk"
	"go-advisor/internal/config"
	"go-advisor/internal/vector"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	embedder := vector.NewEmbedder(cfg.Embedding.URL, cfg.Embedding.Name)
	store, err := vector.NewStore(cfg.Qdrant.URL, cfg.Qdrant.Collection, cfg.Qdrant.APIKey, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Vector store error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var all []chunk.Chunk

	servicesDir := filepath.Join(cfg.KnowledgeBase.Path, "services")
	entries, err := os.ReadDir(servicesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Knowledge base error: %v\n", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(servicesDir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: skipping %s: %v\n", name, err)
			continue
		}
		chunks, err := chunk.ServiceChunks(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: skipping %s: %v\n", name, err)
			continue
		}
		fmt.Printf("%s: %d chunks\n", name, len(chunks))
		all = append(all, chunks...)
	}

	vendorPath := filepath.Join(cfg.KnowledgeBase.Path, "vendors", "vendor_health.json")
	if raw, err := os.ReadFile(vendorPath); err == nil {
		chunks, err := chunk.VendorHealthChunks(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: vendor health: %v\n", err)
		} else {
			fmt.Printf("vendor_health.json: %d chunks\n", len(chunks))
			all = append(all, chunks...)
		}
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: vendor health not read: %v\n", err)
	}

	if len(all) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to index")
		os.Exit(1)
	}
	if err := store.Upsert(ctx, all); err != nil {
		fmt.Fprintf(os.Stderr, "Upsert error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d chunks into %s\n", len(all), cfg.Qdrant.Collection)
}
