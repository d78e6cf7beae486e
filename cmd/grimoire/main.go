// ABOUTME: Entry point for the grimoire chat client
// ABOUTME: Interactive document Q&A against the RAG backend over HTTP

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/grimoire/internal/auth"
	"github.com/2389/grimoire/internal/chat"
	"github.com/2389/grimoire/internal/config"
	"github.com/2389/grimoire/internal/ragapi"
	"github.com/2389/grimoire/internal/render"
	"github.com/2389/grimoire/internal/transcript"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
            _                _
  __ _ _ __(_)_ __ ___   ___ (_)_ __ ___
 / _' | '__| | '_ ' _ \ / _ \| | '__/ _ \
| (_| | |  | | | | | | | (_) | | | |  __/
 \__, |_|  |_|_| |_| |_|\___/|_|_|  \___|
 |___/
`

// getConfigPath returns the path to the grimoire config file.
// Priority: GRIMOIRE_CONFIG env var > XDG_CONFIG_HOME/grimoire/grimoire.yaml > ~/.config/grimoire/grimoire.yaml
func getConfigPath() string {
	if envPath := os.Getenv("GRIMOIRE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "grimoire.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "grimoire", "grimoire.yaml")
}

// getToken returns the API token from GRIMOIRE_TOKEN, the config file,
// or the ~/.config/grimoire/token file, in that order.
func getToken(cfg *config.Config) string {
	if token := os.Getenv("GRIMOIRE_TOKEN"); token != "" {
		return token
	}
	if cfg != nil && cfg.Auth.Token != "" {
		return cfg.Auth.Token
	}

	tokenPath := filepath.Join(filepath.Dir(getConfigPath()), "token")
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// loadConfig loads the config file, falling back to defaults when the
// file does not exist.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: grimoire <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  chat                 Start an interactive chat session")
		fmt.Println("  ask <question>       Ask a single question and exit")
		fmt.Println("  sessions [id]        List archived sessions, or replay one")
		fmt.Println("  health               Check backend health")
		fmt.Println("  token                Mint a Bearer token for the dev backend")
		fmt.Println("  init                 Create a new config file interactively")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(ctx)
	case "ask":
		err = runAsk(ctx, os.Args[2:])
	case "sessions":
		err = runSessions(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "token":
		err = runToken(os.Args[2:])
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildClient constructs the backend client from config and token.
func buildClient(cfg *config.Config) ragapi.Client {
	opts := []ragapi.Option{ragapi.WithTimeout(cfg.Backend.Timeout)}
	if token := getToken(cfg); token != "" {
		opts = append(opts, ragapi.WithToken(token))
	}
	return ragapi.NewHTTPClient(cfg.Backend.URL, opts...)
}

func runChat(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	green.Print("    ▶ ")
	fmt.Printf("Backend:    %s\n", cfg.Backend.URL)
	if cfg.Backend.PDFPath != "" {
		green.Print("    ▶ ")
		fmt.Printf("Document:   %s\n", cfg.Backend.PDFPath)
	}
	if getToken(cfg) != "" {
		green.Print("    ▶ ")
		fmt.Println("Auth:       Bearer token configured")
	}

	var recorder chat.Recorder
	if cfg.Transcript.Enabled {
		store, err := transcript.NewSQLiteStore(cfg.Transcript.Path)
		if err != nil {
			return fmt.Errorf("opening transcript store: %w", err)
		}
		defer store.Close()
		recorder = store
		green.Print("    ▶ ")
		fmt.Printf("Transcript: %s\n", cfg.Transcript.Path)
	}
	fmt.Println()
	fmt.Println("Type a question and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	controller := chat.NewController(buildClient(cfg), recorder, logger)
	renderer := render.NewRenderer()

	err = chatLoop(ctx, controller, renderer, cfg.Backend.PDFPath)
	controller.Wait()
	fmt.Println("\nGoodbye!")
	return err
}

func chatLoop(ctx context.Context, controller *chat.Controller, renderer *render.Renderer, pdfPath string) error {
	scanner := bufio.NewScanner(os.Stdin)
	yellow := color.New(color.FgYellow)

	for {
		if controller.HasPendingClarification() {
			yellow.Print("clarify> ")
		} else {
			fmt.Print("> ")
		}

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		switch {
		case input == "/help":
			printHelp()
			fmt.Println()
			continue

		case input == "/clear":
			controller.ClearChat()
			fmt.Println("Chat cleared.")
			fmt.Println()
			continue

		case input == "/history":
			printHistory(controller.State(), renderer)
			fmt.Println()
			continue

		case input == "/retry":
			if _, ok := controller.State().LastUserContent(); !ok {
				fmt.Println("Nothing to retry yet.")
				fmt.Println()
				continue
			}
			controller.RetryLast(ctx)

		case strings.HasPrefix(input, "/"):
			fmt.Printf("Unknown command: %s (try /help)\n", input)
			fmt.Println()
			continue

		case controller.HasPendingClarification():
			controller.SubmitClarification(ctx, input)

		default:
			controller.SubmitQuery(ctx, input, pdfPath)
		}

		controller.Wait()
		printLatest(controller, renderer)
		fmt.Println()
	}
}

// printLatest renders the newest assistant message, or the last error.
func printLatest(controller *chat.Controller, renderer *render.Renderer) {
	if errText := controller.LastError(); errText != "" {
		color.Red("[error] %s", errText)
		fmt.Println("Use /retry to resend the last question.")
		return
	}

	st := controller.State()
	if len(st.Messages) == 0 {
		return
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Role != chat.RoleAssistant || last.Response == nil {
		return
	}
	fmt.Println(renderer.Response(last.Response))
}

func printHistory(st chat.State, renderer *render.Renderer) {
	if len(st.Messages) == 0 {
		fmt.Println("No messages yet.")
		return
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	for _, msg := range st.Messages {
		ts := msg.Timestamp.Format("15:04:05")
		switch msg.Role {
		case chat.RoleUser:
			cyan.Printf("[%s] you: ", ts)
			fmt.Println(msg.Content)
		case chat.RoleAssistant:
			if msg.IsLoading {
				gray.Printf("[%s] backend: ...\n", ts)
				continue
			}
			gray.Printf("[%s] backend:\n", ts)
			if msg.Response != nil {
				fmt.Println(renderer.Response(msg.Response))
			} else {
				fmt.Println(msg.Content)
			}
		}
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /retry         Resend the last question")
	fmt.Println("  /clear         Start a fresh conversation")
	fmt.Println("  /history       Show the current conversation")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit")
	fmt.Println()
	fmt.Println("When the backend asks a clarification question, your next")
	fmt.Println("plain message answers it.")
}

func runAsk(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: grimoire ask <question>")
	}
	prompt := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := buildClient(cfg)
	resp, err := client.SendQuery(ctx, prompt, "", cfg.Backend.PDFPath)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	renderer := render.NewRenderer()
	fmt.Println(renderer.Response(resp))

	if resp.Status == ragapi.StatusClarificationRequired {
		fmt.Println()
		color.Yellow("The backend needs clarification. Use `grimoire chat` to answer it.")
	}
	return nil
}

func runSessions(ctx context.Context, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Transcript.Enabled {
		return fmt.Errorf("transcript archive is disabled (set transcript.enabled in %s)", getConfigPath())
	}

	store, err := transcript.NewSQLiteStore(cfg.Transcript.Path)
	if err != nil {
		return fmt.Errorf("opening transcript store: %w", err)
	}
	defer store.Close()

	if len(args) > 0 {
		return replaySession(ctx, store, args[0])
	}

	sessions, err := store.ListSessions(ctx, 50)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No archived sessions.")
		return nil
	}

	cyan := color.New(color.FgCyan)
	for _, s := range sessions {
		cyan.Printf("%s  ", s.ConversationID)
		fmt.Printf("%s  %s\n", s.UpdatedAt.Format("2006-01-02 15:04"), s.FirstPrompt)
	}
	return nil
}

func replaySession(ctx context.Context, store transcript.Store, conversationID string) error {
	turns, err := store.ListTurns(ctx, conversationID, 200)
	if err != nil {
		return fmt.Errorf("listing turns: %w", err)
	}
	if len(turns) == 0 {
		return fmt.Errorf("no turns found for conversation %s", conversationID)
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	for _, turn := range turns {
		cyan.Print("you: ")
		fmt.Println(turn.Prompt)
		gray.Printf("backend (%s):\n", turn.Status)
		fmt.Println(turn.Content)
		fmt.Println()
	}
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := ragapi.NewHTTPClient(cfg.Backend.URL, ragapi.WithTimeout(10*time.Second))
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("backend unhealthy: %w", err)
	}

	color.Green("healthy")
	fmt.Printf("backend: %s\n", cfg.Backend.URL)
	return nil
}

func runToken(args []string) error {
	// Supports both "--client value" and "--client=value" formats
	clientID := "grimoire-cli"
	ttl := 30 * 24 * time.Hour

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--client" || arg == "-c":
			if i+1 >= len(args) {
				return fmt.Errorf("--client requires a value")
			}
			clientID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--client="):
			clientID = strings.TrimPrefix(arg, "--client=")
		case arg == "--ttl":
			if i+1 >= len(args) {
				return fmt.Errorf("--ttl requires a value")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("parsing --ttl: %w", err)
			}
			ttl = d
			i++
		case strings.HasPrefix(arg, "--ttl="):
			d, err := time.ParseDuration(strings.TrimPrefix(arg, "--ttl="))
			if err != nil {
				return fmt.Errorf("parsing --ttl: %w", err)
			}
			ttl = d
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured in %s", getConfigPath())
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(clientID, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	// Save token to file so the chat client picks it up automatically
	tokenPath := filepath.Join(filepath.Dir(getConfigPath()), "token")
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(tokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Saved token: %s\n", tokenPath)
	fmt.Printf("  Client:  %s\n", clientID)
	fmt.Printf("  Expires: %s\n", time.Now().Add(ttl).UTC().Format("Jan 02, 2006"))
	fmt.Println()
	fmt.Println(token)
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("grimoire configuration setup")
	fmt.Println("============================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Backend Configuration ---")
	backendURL := prompt(reader, "Backend URL", "http://localhost:8090")
	pdfPath := prompt(reader, "Default PDF path (optional)", "")
	timeout := prompt(reader, "Request timeout", "60s")

	fmt.Println("\n--- Transcript Configuration ---")
	enableTranscript := prompt(reader, "Archive conversations locally?", "no")
	transcriptEnabled := strings.ToLower(enableTranscript) == "yes" || strings.ToLower(enableTranscript) == "y"
	var transcriptPath string
	if transcriptEnabled {
		defaultDB := filepath.Join(filepath.Dir(defaultConfigPath), "transcript.db")
		transcriptPath = prompt(reader, "Transcript database path", defaultDB)
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# grimoire configuration\n")
	cfg.WriteString("# Generated by grimoire init\n\n")

	cfg.WriteString("backend:\n")
	cfg.WriteString(fmt.Sprintf("  url: \"%s\"\n", backendURL))
	if pdfPath != "" {
		cfg.WriteString(fmt.Sprintf("  pdf_path: \"%s\"\n", pdfPath))
	}
	cfg.WriteString(fmt.Sprintf("  timeout: \"%s\"\n", timeout))
	cfg.WriteString("\n")

	cfg.WriteString("transcript:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", transcriptEnabled))
	if transcriptEnabled {
		cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", transcriptPath))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start chatting:")
	fmt.Printf("  grimoire chat\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
