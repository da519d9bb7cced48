// ABOUTME: Entry point for lex-gateway, the Lex code hook to Rasa webhook adapter
// ABOUTME: Serves turns over HTTP, prepares the session store, and replays single events

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/lex-gateway/internal/config"
	"github.com/2389/lex-gateway/internal/gateway"
	"github.com/2389/lex-gateway/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _                                _
 | | _____  __      __ _  __ _ | |_ ___ __      ____ _ _   _
 | |/ _ \ \/ /____ / _' |/ _' || __/ _ \\ \ /\ / / _' | | | |
 | |  __/>  <_____| (_| | (_| || ||  __/ \ V  V / (_| | |_| |
 |_|\___/_/\_\     \__, |\__,_| \__\___|  \_/\_/ \__,_|\__, |
                   |___/                               |___/
`

// getConfigPath returns the path to the config file.
// Priority: LEX_GATEWAY_CONFIG env var > XDG_CONFIG_HOME/lex-gateway/gateway.yaml > ~/.config/lex-gateway/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LEX_GATEWAY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lex-gateway", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: lex-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve          Start the HTTP turn server")
		fmt.Println("  setup          Create the session table if it does not exist")
		fmt.Println("  health         Check a running server's readiness")
		fmt.Println("  turn [FILE]    Process one Lex event (FILE or stdin) and print the envelope")
		fmt.Println("  version        Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "setup":
		err = runSetup(ctx)
	case "health":
		err = runHealth(ctx)
	case "turn":
		err = runTurn(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file (or defaults when it is missing) and
// applies the configured timezone to time.Local.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	time.Local = loc
	return cfg, nil
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Sessions:  %s\n", cfg.Sessions.Backend)
	green.Print("    ▶ ")
	fmt.Printf("Webhook:   ")
	if endpoint := gateway.ResolveEndpoint(cfg.Webhook); endpoint != "" {
		cyan.Println(endpoint)
	} else {
		yellow.Println("not configured")
	}
	green.Print("    ▶ ")
	fmt.Printf("MQTT:      ")
	if cfg.MQTT.Enabled() {
		cyan.Printf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port)
		gray.Printf(" (%s)\n", cfg.MQTT.TopicPrefix)
	} else {
		gray.Println("disabled")
	}

	fmt.Println()

	logger.Info("starting lex-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"timezone", cfg.Timezone,
	)

	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runSetup(ctx context.Context) error {
	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	s, err := gateway.OpenStore(ctx, cfg.Sessions)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Setup(ctx); err != nil {
		return fmt.Errorf("setting up session store: %w", err)
	}

	switch cfg.Sessions.Backend {
	case config.BackendDynamoDB:
		fmt.Printf("session table %q ready\n", cfg.Sessions.Table)
	case config.BackendSQLite:
		n := 0
		if sq, ok := s.(*store.SQLiteStore); ok {
			if n, err = sq.CountSessions(ctx); err != nil {
				return fmt.Errorf("counting sessions: %w", err)
			}
		}
		fmt.Printf("session database %s ready (%d sessions)\n", cfg.Sessions.Path, n)
	default:
		fmt.Printf("%s session store ready\n", cfg.Sessions.Backend)
	}
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, body)
	}

	fmt.Println(string(body))
	return nil
}

func runTurn(ctx context.Context, args []string) error {
	var (
		event []byte
		err   error
	)
	if len(args) > 0 && args[0] != "-" {
		event, err = os.ReadFile(args[0])
	} else {
		event, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading event: %w", err)
	}

	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the envelope
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Logging.Level)}))

	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer gw.Shutdown(context.Background())

	env := gw.Turns().HandleTurn(ctx, event)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
