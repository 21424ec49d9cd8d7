package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sharesquad/sharesquad/internal/bridge"
	"github.com/sharesquad/sharesquad/internal/browser"
	"github.com/sharesquad/sharesquad/internal/config"
	"github.com/sharesquad/sharesquad/internal/db"
	"github.com/sharesquad/sharesquad/internal/i18n"
	"github.com/sharesquad/sharesquad/internal/roster"
	"github.com/sharesquad/sharesquad/internal/tui"
	"github.com/sharesquad/sharesquad/internal/version"
	"github.com/sharesquad/sharesquad/internal/workflow"
)

const agentDialTimeout = 10 * time.Second

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/sharesquad/config.json)")
	setupFlag := flag.Bool("setup", false, "Run interactive setup wizard")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --setup                # Run interactive setup wizard\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version              # Show version information\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config custom.json   # Use custom configuration\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SHARESQUAD_CONFIG   Override default config file path\n\n")
		fmt.Fprintf(os.Stderr, "For all other settings (relay, delays, etc.), edit the config file.\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	if *setupFlag {
		runSetupWizard()
		return
	}

	configPath := getConfigPath(*configPathFlag)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	logger, logFile := initLogger(cfg.LogFile)
	if logFile != nil {
		defer logFile.Close()
	}

	ctx := context.Background()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	store, err := db.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("Could not open database at %s: %v", dbPath, err)
	}
	defer store.Close()

	repo := roster.NewRepository(store)
	if err := repo.Load(ctx); err != nil {
		log.Fatalf("Could not load roster: %v", err)
	}

	catalog, err := i18n.Load(i18n.Resolve(repo.Language()))
	if err != nil {
		log.Fatalf("Could not load message catalog: %v", err)
	}

	tabs := browser.NewTabs(cfg.Relay)
	dial := func(ctx context.Context, tab browser.Tab) (workflow.Runner, error) {
		agent, err := bridge.DialAgent(tab.AgentURL, cfg.Relay, agentDialTimeout)
		if err != nil {
			return nil, err
		}
		return bridge.NewBridge(agent, cfg.GetStepDelay(), cfg.GetRowDelay(), logger), nil
	}
	orch := workflow.New(tabs, dial, repo, cfg.TargetOrigin, logger)

	app := tui.NewApp(cfg, repo, orch, catalog, logger)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// initLogger opens the debug log file when configured. Logging stays off when
// no path is set so the terminal UI is never polluted.
func initLogger(path string) (*log.Logger, *os.File) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Printf("Warning: could not create log directory: %v", err)
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.Printf("Warning: could not open log file: %v", err)
		return nil, nil
	}
	return log.New(f, "[sharesquad] ", log.LstdFlags|log.Lmicroseconds), f
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable SHARESQUAD_CONFIG
// 3. Default path ~/.config/sharesquad/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("SHARESQUAD_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}
	return config.DefaultConfigPath()
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// runSetupWizard checks the local environment and creates a default config
func runSetupWizard() {
	fmt.Println("ShareSquad Setup Wizard")
	fmt.Println("=======================")
	fmt.Println()

	defaultConfigPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		fmt.Printf("Configuration file already exists: %s\n", defaultConfigPath)
	} else {
		fmt.Printf("Will create configuration file: %s\n", defaultConfigPath)
	}

	cfg := config.DefaultConfig()
	fmt.Println()
	fmt.Println("ShareSquad drives the share dialog of a page open in your browser")
	fmt.Println("through a local relay. Make sure the relay is running:")
	fmt.Printf("  relay URL:     %s\n", cfg.Relay)
	fmt.Printf("  target origin: %s\n", cfg.TargetOrigin)
	fmt.Println()

	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		fmt.Print("Create default configuration file? [Y/n]: ")
		var response string
		_, _ = fmt.Scanln(&response) // User input - error not actionable
		if response == "" || strings.ToLower(response) == "y" || strings.ToLower(response) == "yes" {
			if err := cfg.SaveConfig(defaultConfigPath); err != nil {
				fmt.Printf("Failed to create config file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Created configuration file: %s\n", defaultConfigPath)
		}
	}

	fmt.Println()
	fmt.Println("Setup complete! You can now run:")
	fmt.Printf("   %s\n", os.Args[0])
}
