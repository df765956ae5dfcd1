package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmohlue/ConstitutionBOT/internal/config"
	"github.com/gmohlue/ConstitutionBOT/internal/content"
	"github.com/gmohlue/ConstitutionBOT/internal/document"
	"github.com/gmohlue/ConstitutionBOT/internal/engine"
	"github.com/gmohlue/ConstitutionBOT/internal/llm"
	"github.com/gmohlue/ConstitutionBOT/internal/logging"
	"github.com/gmohlue/ConstitutionBOT/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "constitutionbot",
		Short: "Grounded civic education content from a constitutional document",
	}
	configPath string
	docPath    string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&docPath, "doc", "f", "", "Path to the constitutional document (PDF or text)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "constitutionbot.db", "Path to the local draft/conversation database (SQLite)")

	generateCmd.Flags().String("mode", string(content.ModeUserProvided), "Generation mode: user_provided | bot_proposed | historical")
	generateCmd.Flags().String("type", string(content.TypeTweet), "Content type: tweet | thread | script")
	generateCmd.Flags().String("topic", "", "Topic for user_provided mode")
	generateCmd.Flags().IntSlice("sections", nil, "Explicit section numbers for user_provided mode")
	generateCmd.Flags().String("event", "", "Event descriptor for historical mode")

	searchCmd.Flags().Int("limit", 5, "Maximum number of results")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sectionCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		cfg = config.Default()
	}
	return cfg
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(cfg.LogLevel)
}

// initEngine builds the full pipeline: config, LLM client, persistence,
// and an ingested document when one is given.
func initEngine(ctx context.Context, needLLM bool) (*engine.Engine, error) {
	cfg := loadConfig()

	var client llm.Client
	if needLLM {
		if cfg.AI.APIKey == "" && cfg.AI.Provider != "ollama" {
			return nil, fmt.Errorf("AI API key not configured")
		}
		var err error
		client, err = llm.NewClient(ctx, llm.Options{
			Provider:  cfg.AI.Provider,
			APIKey:    cfg.AI.APIKey,
			Model:     cfg.AI.Model,
			BaseURL:   cfg.AI.BaseURL,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	}

	persist, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	eng, err := engine.New(engine.Options{
		Config:  cfg,
		Client:  client,
		Persist: persist,
		Log:     newLogger(cfg),
	})
	if err != nil {
		persist.Close()
		return nil, err
	}

	if docPath != "" {
		if err := ingestFile(ctx, eng, docPath); err != nil {
			eng.Close()
			return nil, err
		}
	}
	return eng, nil
}

func ingestFile(ctx context.Context, eng *engine.Engine, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	kind := document.KindText
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		kind = document.KindPDF
	}
	n, err := eng.Ingest(ctx, raw, kind, path)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", path, err)
	}
	fmt.Printf("📜 Indexed %d sections from %s\n", n, filepath.Base(path))
	return nil
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Parse a constitutional document and report its sections",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		eng, err := initEngine(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer eng.Close()

		if err := ingestFile(ctx, eng, args[0]); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("✅ Document ready: %d sections indexed.\n", eng.SectionCount())
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a grounded content draft",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		mode, _ := cmd.Flags().GetString("mode")
		contentType, _ := cmd.Flags().GetString("type")
		topic, _ := cmd.Flags().GetString("topic")
		sections, _ := cmd.Flags().GetIntSlice("sections")
		event, _ := cmd.Flags().GetString("event")

		if docPath == "" {
			log.Fatalf("--doc is required: no document to ground content on")
		}

		eng, err := initEngine(ctx, true)
		if err != nil {
			log.Fatalf("Setup failed: %v\nCheck your config.yaml and API keys.", err)
		}
		defer eng.Close()

		req := content.GenerationRequest{
			Mode:        content.Mode(mode),
			Type:        content.ContentType(contentType),
			Topic:       topic,
			SectionNums: sections,
			Event:       event,
		}
		if err := req.Validate(); err != nil {
			log.Fatalf("Invalid request: %v", err)
		}

		fmt.Printf("🚀 Generating %s content (%s mode)...\n", contentType, mode)
		start := time.Now()
		draft, verdict, err := eng.Generate(ctx, req)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}

		fmt.Printf("✅ Draft %s generated in %v\n\n", draft.ID, time.Since(start).Round(time.Millisecond))
		if len(draft.Segments) > 1 {
			for i, seg := range draft.Segments {
				fmt.Printf("--- segment %d ---\n%s\n\n", i+1, seg)
			}
		} else {
			fmt.Println(draft.Formatted)
			fmt.Println()
		}
		if draft.Type == content.TypeScript {
			fmt.Printf("⏱️  Estimated duration: %v\n", content.EstimateDuration(draft.Formatted))
		}
		fmt.Printf("📎 Citations: %v\n", draft.Citations)
		fmt.Printf("🛡️  Safety: %s (%s)\n", verdict.Outcome, draft.Status)
		if len(verdict.Reasons) > 0 {
			fmt.Printf("   Reasons: %v\n", verdict.Reasons)
		}
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive grounded Q&A about the document",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if docPath == "" {
			log.Fatalf("--doc is required: no document to ground answers on")
		}

		eng, err := initEngine(ctx, true)
		if err != nil {
			log.Fatalf("Setup failed: %v\nCheck your config.yaml and API keys.", err)
		}
		defer eng.Close()

		conversationID := fmt.Sprintf("cli-%d", time.Now().Unix())
		fmt.Println("💬 Ask about the document. Type 'exit' to quit.")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			message := strings.TrimSpace(scanner.Text())
			if message == "" {
				continue
			}
			if message == "exit" || message == "quit" {
				break
			}

			reply, err := eng.ChatTurn(ctx, conversationID, message)
			if err != nil {
				fmt.Printf("⚠️  %v\n", err)
				continue
			}
			fmt.Printf("\n%s\n", reply.Text)
			if len(reply.Citations) > 0 {
				fmt.Printf("📎 Sections: %v\n", reply.Citations)
			}
			fmt.Println()
		}
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed sections by keyword",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if docPath == "" {
			log.Fatalf("--doc is required: nothing indexed to search")
		}

		eng, err := initEngine(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer eng.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		query := strings.Join(args, " ")
		matches := eng.Search(query, limit)
		if len(matches) == 0 {
			fmt.Println("No matching sections.")
			return
		}
		for _, m := range matches {
			fmt.Printf("%3d  %-40s  score=%.0f\n", m.Section.Number, m.Section.Title, m.Score)
		}
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section [number]",
	Short: "Print one section of the document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if docPath == "" {
			log.Fatalf("--doc is required: nothing indexed to look up")
		}

		num, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("Invalid section number: %v", err)
		}

		eng, err := initEngine(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer eng.Close()

		sec, err := eng.Section(num)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if sec.ChapterTitle != "" {
			fmt.Printf("Chapter %d: %s\n", sec.ChapterNum, sec.ChapterTitle)
		}
		fmt.Printf("Section %d: %s\n\n%s\n", sec.Number, sec.Title, sec.FullText())
	},
}
