package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docsync/internal/config"
	"docsync/internal/extractor"
	"docsync/internal/ir"
	"docsync/internal/pipeline"
	"docsync/internal/report"
	"docsync/internal/scanner"
	"docsync/internal/storage"
	"docsync/internal/validator"
	"docsync/internal/watch"
)

var (
	rootCmd = &cobra.Command{
		Use:   "docsync",
		Short: "Keeps a generated component documentation tree synchronized with library source",
	}
	configPath  string
	sourceRoot  string
	docsRoot    string
	rulesPath   string
	reportPath  string
	changedOnly bool
	partial     bool
	dryRun      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "docsync.yaml", "Path to the configuration file")

	syncCmd.Flags().StringVar(&sourceRoot, "source", "", "Component library root (overrides config)")
	syncCmd.Flags().StringVar(&docsRoot, "docs", "", "Documentation tree root (overrides config)")
	syncCmd.Flags().StringVar(&rulesPath, "rules", "", "Category rule table (overrides config)")
	syncCmd.Flags().StringVar(&reportPath, "report", "", "Write the machine-readable run report to this path")
	syncCmd.Flags().BoolVar(&changedOnly, "changed-only", false, "Scan only packages touched by uncommitted git changes")
	syncCmd.Flags().BoolVar(&partial, "partial", false, "Promote clean documents individually even when the batch has errors")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stage and validate without writing the documentation tree")

	watchCmd.Flags().StringVar(&sourceRoot, "source", "", "Component library root (overrides config)")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if sourceRoot != "" {
		cfg.Source.Root = sourceRoot
	}
	if docsRoot != "" {
		cfg.Docs.Root = docsRoot
	}
	if rulesPath != "" {
		cfg.Rules.Path = rulesPath
	}
	return cfg
}

func runSync(ctx context.Context, cfg *config.Config, ext pipeline.ComponentExtractor, mode string) (*report.RunReport, error) {
	sync := pipeline.NewSync(cfg, ext, pipeline.Options{
		Mode:        mode,
		ChangedOnly: changedOnly,
		Partial:     partial,
		DryRun:      dryRun,
		ReportPath:  reportPath,
	})

	start := time.Now()
	rep, err := sync.Run(ctx)
	if err != nil {
		return nil, err
	}
	rep.Print(os.Stdout)
	fmt.Printf("⏱️  Completed in %v.\n", time.Since(start).Round(time.Millisecond))

	saveHistory(ctx, cfg, rep)
	return rep, nil
}

func saveHistory(ctx context.Context, cfg *config.Config, rep *report.RunReport) {
	store, err := storage.NewRunStore(cfg.Run.HistoryPath)
	if err != nil {
		log.Printf("Warning: run history unavailable: %v", err)
		return
	}
	defer store.Close()
	if err := store.SaveRun(ctx, rep); err != nil {
		log.Printf("Warning: failed to record run history: %v", err)
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the documentation tree with the component library source",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		rep, err := runSync(cmd.Context(), cfg, extractor.NewExtractor(), "sync")
		if err != nil {
			log.Fatalf("Synchronization failed: %v", err)
		}
		if rep.HasErrors() {
			os.Exit(1)
		}
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan the component library and print what would be extracted",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if len(args) > 0 {
			cfg.Source.Root = args[0]
		}

		fmt.Printf("📂 Scanning library: %s\n", cfg.Source.Root)
		ext := extractor.NewExtractor()
		count := 0
		failures, err := scanner.NewScanner(cfg.Source.Ignore).ScanLibrary(cfg.Source.Root, func(unit *ir.ScanUnit) {
			desc, issues, err := ext.ExtractComponent(cmd.Context(), unit)
			if err != nil {
				fmt.Printf("  ⚠️ %s: %v\n", unit.PackageName, err)
				return
			}
			count++
			fmt.Printf("  %s (%d props, %d slots, %d exports)\n",
				desc.ComponentName, len(desc.Props), len(desc.Slots), len(desc.ExportedSymbols))
			for _, issue := range issues {
				fmt.Printf("    ⚠️ %s\n", issue.Message)
			}
		})
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		for _, f := range failures {
			fmt.Printf("  ⚠️ %s skipped: %s\n", f.PackageName, f.Reason)
		}
		fmt.Printf("✅ %d components extracted, %d packages skipped.\n", count, len(failures))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the existing documentation tree without regenerating it",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		batch := validator.Batch{
			Docs:      make(map[string]string),
			IndexFile: cfg.Docs.IndexFile,
		}
		err := filepath.WalkDir(cfg.Docs.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(cfg.Docs.Root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == cfg.Docs.IndexFile {
				batch.Index = string(content)
				return nil
			}
			batch.Docs[rel] = string(content)
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to read documentation tree: %v", err)
		}

		issues := validator.Validate(batch, nil)
		errors := 0
		for _, issue := range issues {
			glyph := "⚠️"
			if issue.Severity == ir.SeverityError {
				glyph = "❌"
				errors++
			}
			fmt.Printf("%s [%s] %s %s\n", glyph, issue.RuleID, issue.DocumentPath, issue.Message)
		}
		fmt.Printf("Checked %d documents: %d issues (%d errors).\n", len(batch.Docs), len(issues), errors)
		if errors > 0 {
			os.Exit(1)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past synchronization runs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store, err := storage.NewRunStore(cfg.Run.HistoryPath)
		if err != nil {
			log.Fatalf("Failed to open run history: %v", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), 20)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %-8s %s  +%d ~%d =%d -%d  (%d errors, %d warnings)\n",
				r.FinishedAt.Format(time.RFC3339), r.Mode, r.RunID,
				r.New, r.Updated, r.Unchanged, r.Removed, r.Errors, r.Warnings)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the component library and re-synchronize on change",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		cached, err := extractor.NewCachedExtractor(256)
		if err != nil {
			log.Fatalf("Failed to create extractor cache: %v", err)
		}

		// A failed run must not stop the watcher; the error is logged and the
		// next change triggers a fresh attempt.
		w := watch.NewWatcher(cfg.Source.Root, cfg.Source.Ignore, 500*time.Millisecond, func(ctx context.Context) error {
			_, err := runSync(ctx, cfg, cached, "watch")
			return err
		})
		if err := w.Watch(cmd.Context()); err != nil && err != context.Canceled {
			log.Fatalf("Watch failed: %v", err)
		}
	},
}
