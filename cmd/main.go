package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"askpdf/internal/config"
	"askpdf/internal/helper"
	"askpdf/internal/models"
	"askpdf/internal/rag"
	"askpdf/internal/tui"
	"askpdf/internal/web"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the yaml config file")
	mode := flag.String("mode", "web", "Run mode: web, tui or cli")
	filePath := flag.String("file", "", "Path to the PDF to ask about (cli mode)")
	query := flag.String("query", "", "Question to be answered (cli mode)")
	apiKey := flag.String("api-key", "", "API key, defaults to the configured environment variable")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// logger is not configured yet
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg, *mode)
	log.Debug().
		Str("embed_provider", cfg.EmbedLLM.Provider).
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Interface("rag", cfg.RAG).
		Msg("Loaded config")

	pipeline, err := rag.NewRAG(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pipeline")
	}

	credential := *apiKey
	if credential == "" {
		credential = cfg.DefaultCredential()
	}

	switch *mode {
	case "web":
		runWeb(cfg, pipeline)
	case "tui":
		runTUI(pipeline, credential)
	case "cli":
		if *filePath == "" || *query == "" {
			log.Fatal().Msg("Please provide a document with the -file flag and a question with the -query flag")
		}
		runCLI(context.Background(), pipeline, credential, *filePath, *query)
	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown mode, expected web, tui or cli")
	}
}

func setupLogger(cfg *config.Config, mode string) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)

	out := os.Stdout
	if mode == "tui" {
		// keep the terminal for the UI
		out = os.Stderr
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func runWeb(cfg *config.Config, pipeline *rag.RAG) {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := web.NewServer(cfg, pipeline)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating web server")
	}
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("Web server stopped")
	}
}

func runTUI(pipeline *rag.RAG, credential string) {
	m := tui.New(pipeline.NewSession(), credential)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running TUI")
	}
}

func runCLI(ctx context.Context, pipeline *rag.RAG, credential, filePath, query string) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document")
	}

	session := pipeline.NewSession()
	filename := filepath.Base(filePath)
	if err := session.Load(ctx, credential, filename, data); err != nil {
		log.Fatal().Err(err).Msg("Error loading document")
	}

	answer, err := session.Ask(ctx, credential, query)
	if err != nil {
		if rag.IsWarning(err) {
			log.Warn().Err(err).Msg("Please insert OpenAI API Key.")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Error querying")
	}

	response := models.PromptResponse{Query: query, Source: filename, Content: answer.Text}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, src := range answer.Sources {
		fmt.Printf("[%s #%d, score %.3f]\n%s\n\n", src.Source, src.ChunkID, src.Score, src.Content)
	}

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)

	log.Info().Msg("Usage: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	helper.PrettyPrint(os.Stdout, answer.Usage)
}
