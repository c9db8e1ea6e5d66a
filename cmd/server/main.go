package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"match-coach/internal/analysis"
	"match-coach/internal/archive"
	"match-coach/internal/config"
	"match-coach/internal/fetch"
	"match-coach/internal/riot"
	"match-coach/internal/store"
	"match-coach/internal/tts"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	riotClient, err := riot.NewClient(cfg.RiotAPIKey, cfg.Region, cfg.Platform)
	if err != nil {
		log.Fatalf("Failed to create Riot client: %v", err)
	}
	if ok, err := riotClient.ValidateKey(ctx); err != nil {
		log.Printf("Could not validate Riot API key: %v", err)
	} else if !ok {
		log.Fatal("Riot API key was rejected - check RIOT_API_KEY")
	}

	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to create data store: %v", err)
	}

	anthropicClient, err := analysis.NewClient(cfg.AnthropicAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create Anthropic client: %v", err)
	}

	// TTS is optional: without a key, reviews come back as text only.
	var speech *tts.Client
	if cfg.ElevenLabsAPIKey != "" {
		speech, err = tts.NewClient(cfg.ElevenLabsAPIKey)
		if err != nil {
			log.Fatalf("Failed to create TTS client: %v", err)
		}
	} else {
		log.Println("ELEVENLABS_API_KEY not set, audio generation disabled")
	}

	// The review history archive is optional too.
	var hist *archive.Archive
	if cfg.DatabaseURL != "" {
		hist, err = archive.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to analysis archive: %v", err)
		}
		defer hist.Close()
	} else {
		log.Println("DATABASE_URL not set, review history disabled")
	}

	s := &server{
		cfg:      cfg,
		store:    st,
		finder:   fetch.NewFinder(riotClient, st),
		analyzer: analysis.NewAnalyzer(anthropicClient),
		speech:   speech,
		archive:  hist,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/fetch-games", s.handleFetchGames)
	mux.HandleFunc("/api/analyze-games", s.handleAnalyzeGames)
	mux.HandleFunc("/api/audio/", s.handleAudio)
	mux.HandleFunc("/api/voices", s.handleVoices)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/health", s.handleHealth)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.withCORS(mux),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		log.Printf("[Signal] Received %v, initiating graceful shutdown...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Signal] Shutdown error: %v", err)
		}

		sig = <-sigCh
		log.Printf("[Signal] Received second %v, forcing exit", sig)
		os.Exit(1)
	}()

	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
