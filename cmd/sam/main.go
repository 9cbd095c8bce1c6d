package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/easeaico/project-sam/internal/admin"
	"github.com/easeaico/project-sam/internal/compendium"
	"github.com/easeaico/project-sam/internal/config"
	"github.com/easeaico/project-sam/internal/dice"
	"github.com/easeaico/project-sam/internal/engine"
	"github.com/easeaico/project-sam/internal/importer"
	"github.com/easeaico/project-sam/internal/models"
	"github.com/easeaico/project-sam/internal/prompt"
	"github.com/easeaico/project-sam/internal/repository"
	"github.com/easeaico/project-sam/internal/tool"
	"github.com/easeaico/project-sam/internal/types"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
		// The REPL may block on stdin, give it a moment to exit.
		time.Sleep(500 * time.Millisecond)
		os.Exit(0)
	}()

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	embedder, err := compendium.NewEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}
	retriever := compendium.NewRetriever(embedder, store.Compendium, cfg.TopK, cfg.SimilarityThreshold)
	ingestor := compendium.NewIngestor(embedder, store.Compendium)

	oracle, err := models.NewOracle(cfg.OracleAPIKey, cfg.OracleBaseURL, cfg.OracleModel)
	if err != nil {
		log.Fatalf("failed to create oracle: %v", err)
	}

	images, err := models.NewImageGenerator(ctx, cfg.GoogleAPIKey, cfg.ImageModel, cfg.AspectRatio)
	if err != nil {
		log.Fatalf("failed to create image generator: %v", err)
	}

	sheets, err := importer.NewImporter(ctx, cfg.GoogleAPIKey, cfg.OracleModel)
	if err != nil {
		log.Fatalf("failed to create sheet importer: %v", err)
	}

	registry := tool.NewRegistry(
		tool.NewApplyDamage(),
		tool.NewApplyHealing(),
		tool.NewGiveLoot(),
		tool.NewSearchSpells(retriever),
		tool.NewSearchMonsters(retriever),
		tool.NewSearchItems(retriever),
	)

	adminService := admin.NewService(store.Characters, store.Messages, store.Campaigns, store.Checkpoints)

	turns, err := engine.New(engine.Config{
		Oracle:     oracle,
		Tools:      registry,
		Prompts:    prompt.NewBuilder(cfg.HistoryLimit),
		Characters: store.Characters,
		Messages:   store.Messages,
		Lore:       retriever,
		Images:     images,
		Admin:      adminService,
	})
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	campaignID := ""
	if camp, err := store.Campaigns.FirstByGM(ctx, cfg.SessionUserID); err != nil {
		log.Printf("failed to resolve campaign: %v", err)
	} else if camp != nil {
		campaignID = camp.ID
	}

	runREPL(ctx, cfg, turns, sheets, ingestor, store, campaignID)
}

func runREPL(ctx context.Context, cfg config.Config, turns *engine.Engine, sheets *importer.Importer, ingestor *compendium.Ingestor, store *repository.Store, campaignID string) {
	fmt.Println("S.A.M. is listening. Type your action, 'roll <dice>', or /help.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Print("You> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		fields := strings.Fields(input)
		switch strings.ToLower(fields[0]) {
		case "roll":
			handleRoll(fields[1:])
			continue
		case "import":
			handleImport(ctx, cfg, sheets, store, campaignID, fields[1:])
			continue
		case "ingest":
			handleIngest(ctx, ingestor, campaignID, fields[1:])
			continue
		}

		result, err := turns.ProcessTurn(ctx, cfg.SessionUserID, campaignID, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("turn failed: %v", err)
			continue
		}

		fmt.Printf("\nS.A.M.> %s\n\n", result.Response)
		if result.ImageURL != "" {
			fmt.Printf("[scene illustration: %d bytes of image data]\n", len(result.ImageURL))
		}
		if len(result.Updates) > 0 {
			fmt.Printf("[status updated: %v]\n", result.Updates)
		}
		if result.XPGain != "" {
			fmt.Printf("[xp gained: %s]\n", result.XPGain)
		}
		if result.Event != "" {
			fmt.Printf("[event: %s]\n", result.Event)
		}
	}
}

// handleRoll resolves explicit dice requests locally; the oracle is
// never trusted with randomness.
func handleRoll(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: roll <count>d<sides>[+|-modifier], e.g. roll 2d6+3")
		return
	}

	result, err := dice.Roll(strings.Join(args, ""))
	if err != nil {
		fmt.Printf("Invalid roll: %v\n", err)
		return
	}

	fmt.Printf("Rolled %s: %v", result.Expression, result.Rolls)
	if result.Modifier != 0 {
		fmt.Printf(" %+d", result.Modifier)
	}
	fmt.Printf(" = %d\n", result.Total)
	if result.Natural20 {
		fmt.Println("NATURAL 20!")
	}
	if result.Natural1 {
		fmt.Println("Natural 1. Ouch.")
	}
}

func handleImport(ctx context.Context, cfg config.Config, sheets *importer.Importer, store *repository.Store, campaignID string, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: import <character-sheet.pdf>")
		return
	}

	pdf, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("Failed to read sheet: %v\n", err)
		return
	}

	char, err := sheets.ParseSheet(ctx, pdf)
	if err != nil {
		fmt.Printf("Failed to parse sheet: %v\n", err)
		return
	}
	char.UserID = cfg.SessionUserID
	char.CampaignID = campaignID

	if err := store.Characters.Upsert(ctx, char); err != nil {
		fmt.Printf("Failed to save character: %v\n", err)
		return
	}
	fmt.Printf("Imported %s (%s %s, level %d).\n", char.Name, char.Race, char.Class, char.Level)
}

func handleIngest(ctx context.Context, ingestor *compendium.Ingestor, campaignID string, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: ingest <spells|monsters|items|lore> <file>")
		return
	}

	kind := strings.ToLower(args[0])
	switch kind {
	case types.CompendiumSpells, types.CompendiumMonsters, types.CompendiumItems, types.CompendiumLore:
	default:
		fmt.Printf("Unknown compendium kind: %s\n", kind)
		return
	}

	text, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		return
	}

	n, err := ingestor.Ingest(ctx, kind, campaignID, args[1], string(text))
	if err != nil {
		fmt.Printf("Ingest failed: %v\n", err)
		return
	}
	fmt.Printf("Ingested %d chunks into the %s compendium.\n", n, kind)
}
