package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docchat/internal/answer"
	"docchat/internal/chat"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/filestore"
	"docchat/internal/llm"
	"docchat/internal/session"
	"docchat/internal/vectorindex"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env")
	}

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	question := flag.String("question", "", "Ask one question and exit (requires -file)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *question != "" && *filePath == "" {
		log.Fatal().Msg("-question requires -file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	generator, err := llm.New(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing model")
	}
	index, err := newIndex(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector index")
	}

	store := filestore.New(cfg.Uploads.Dir)
	splitter := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	manager := session.NewManager(store, index, embedder, splitter)
	engine := answer.NewEngine(generator, embedder, cfg.RAG.TopK)

	ctx := context.Background()
	pipe := &pipeline{manager: manager, engine: engine}
	defer cleanup(ctx, store, index)

	docName := ""
	if *filePath != "" {
		if _, err := pipe.Upload(ctx, *filePath); err != nil {
			log.Fatal().Err(err).Str("file", *filePath).Msg("Error processing document")
		}
		docName = *filePath
	}

	if *question != "" {
		fmt.Println(pipe.Answer(ctx, *question))
		return
	}

	program := tea.NewProgram(chat.New(ctx, pipe, pipe, docName), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running chat")
	}
}

func newIndex(cfg *config.Config) (vectorindex.Index, error) {
	switch cfg.Index.Backend {
	case "chromem", "":
		return vectorindex.NewChromem(cfg.Index.Path)
	case "postgres":
		return vectorindex.NewPostgres(&cfg.Index)
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Index.Backend)
	}
}

// pipeline adapts the session manager and answer engine to the chat
// interface's ports.
type pipeline struct {
	manager *session.Manager
	engine  *answer.Engine
}

func (p *pipeline) Upload(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading document: %w", err)
	}
	_, reused, err := p.manager.Open(ctx, path, data)
	return reused, err
}

func (p *pipeline) Answer(ctx context.Context, question string) string {
	current := p.manager.Current()
	if current == nil {
		return "No document loaded. Use /open <path> to load one first."
	}
	return p.engine.Answer(ctx, question, current.Collection)
}

// cleanup wipes uploads and index contents at exit. Best-effort only,
// the process is going away either way.
func cleanup(ctx context.Context, store *filestore.Store, index vectorindex.Index) {
	store.Purge()
	if err := index.Reset(ctx); err != nil {
		log.Warn().Err(err).Msg("index cleanup failed")
	}
	if err := index.Close(); err != nil {
		log.Warn().Err(err).Msg("index close failed")
	}
}
