package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/api"
	"github.com/knowledgebot/backend/internal/llm"
	"github.com/knowledgebot/backend/internal/metrics"
	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/internal/services"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/kv"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/internal/store"
	"github.com/knowledgebot/backend/pkg/config"
	appLogger "github.com/knowledgebot/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting KnowledgeBot Pro demo backend")

	backing, err := openBacking(cfg)
	if err != nil {
		appLogger.Fatal("Failed to open storage backend", zap.Error(err))
	}
	defer backing.Close()

	st := store.New(backing)
	if err := st.EnsureSeeded(); err != nil {
		appLogger.Fatal("Failed to seed store", zap.Error(err))
	}

	repo := repository.New(st, cfg.Auth.AdminEmail)

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	handlers := api.NewHandlers(repo, llmClient)
	sim := simulator.New(time.Duration(cfg.Simulator.LatencyMS)*time.Millisecond, handlers.Routes())

	auth := services.NewAuthService(sim, backing, cfg.Auth.SessionKey)
	knowledge := services.NewKnowledgeBaseService(sim, repo)
	chat := services.NewChatService(sim, repo)

	metrics.Init()
	if cfg.Metrics.Enabled {
		go func() {
			appLogger.Info("Metrics exporter listening", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, metrics.Handler()); err != nil {
				appLogger.Error("Metrics exporter stopped", zap.Error(err))
			}
		}()
	}

	runConsole(auth, knowledge, chat, repo, sim)
}

func openBacking(cfg *config.Config) (kv.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return kv.NewMemoryStore(), nil
	case "file":
		return kv.NewFileStore(cfg.Store.Path)
	case "sqlite":
		if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
			return nil, err
		}
		return kv.NewSQLiteStore(filepath.Join(cfg.Store.Path, "knowledgebot.db"))
	case "redis":
		return kv.NewRedisStore(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func runConsole(
	auth *services.AuthService,
	knowledge *services.KnowledgeBaseService,
	chat *services.ChatService,
	repo *repository.Repository,
	sim *simulator.Dispatcher,
) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	unsubscribe := sim.Subscribe(func(entry simulator.LogEntry) {
		fmt.Printf("  [%s] %s %s -> %d %s\n",
			entry.Timestamp.Format("15:04:05"), entry.Method, entry.Endpoint, entry.Status, entry.Payload)
	})
	defer unsubscribe()

	fmt.Println("KnowledgeBot Pro console. Type 'help' for commands, 'quit' to exit.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			fmt.Println("commands: signup <name> <email> <password> | login <email> <password> | logout | whoami")
			fmt.Println("          docs | add <title> <content...> | del <id> | upload <path> | chat <prompt...>")
			fmt.Println("          users | metrics | rawdb | logs | quit")
		case "quit", "exit":
			return
		case "signup":
			if len(fields) < 4 {
				fmt.Println("usage: signup <name> <email> <password>")
				continue
			}
			user, err := auth.Signup(ctx, fields[1], fields[2], fields[3])
			printResult(user, err)
		case "login":
			if len(fields) < 3 {
				fmt.Println("usage: login <email> <password>")
				continue
			}
			user, err := auth.Login(ctx, fields[1], fields[2])
			printResult(user, err)
		case "logout":
			printResult("logged out", auth.Logout())
		case "whoami":
			if user, ok := auth.CurrentUser(); ok {
				fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
			} else {
				fmt.Println("not logged in")
			}
		case "docs":
			docs, err := knowledge.Documents(ctx)
			printResult(docs, err)
		case "add":
			if len(fields) < 3 {
				fmt.Println("usage: add <title> <content...>")
				continue
			}
			doc, err := knowledge.AddDocument(ctx, models.KnowledgeDocument{
				Title:   fields[1],
				Content: strings.Join(fields[2:], " "),
				Type:    models.DocumentText,
			})
			printResult(doc, err)
		case "del":
			if len(fields) < 2 {
				fmt.Println("usage: del <id>")
				continue
			}
			printResult("deleted", knowledge.RemoveDocument(ctx, fields[1]))
		case "upload":
			if len(fields) < 2 {
				fmt.Println("usage: upload <path>")
				continue
			}
			data, err := os.ReadFile(fields[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			doc, err := knowledge.UploadFile(ctx, filepath.Base(fields[1]), data)
			printResult(doc, err)
		case "chat":
			if len(fields) < 2 {
				fmt.Println("usage: chat <prompt...>")
				continue
			}
			user, ok := auth.CurrentUser()
			if !ok {
				fmt.Println("log in first")
				continue
			}
			prompt := strings.Join(fields[1:], " ")
			history, _ := chat.History(user.ID)
			reply := chat.SendMessage(ctx, prompt, history)
			fmt.Println(reply)
			now := time.Now().UnixMilli()
			history = append(history,
				models.Message{ID: fmt.Sprintf("m_%d", now), Role: models.MessageUser, Content: prompt, Timestamp: now},
				models.Message{ID: fmt.Sprintf("m_%d", now+1), Role: models.MessageAssistant, Content: reply, Timestamp: now},
			)
			if err := chat.SaveHistory(user.ID, history); err != nil {
				fmt.Println("error:", err)
			}
		case "users":
			users, err := repo.ListUsers()
			printResult(users, err)
		case "metrics":
			printResult(repo.SystemMetrics(), nil)
		case "rawdb":
			db, err := repo.RawDatabase()
			printResult(db, err)
		case "logs":
			for _, entry := range sim.Logs() {
				fmt.Printf("[%s] %s %s -> %d %s\n",
					entry.Timestamp.Format("15:04:05"), entry.Method, entry.Endpoint, entry.Status, entry.Payload)
			}
		default:
			fmt.Println("unknown command; try 'help'")
		}
	}
}

func printResult(value any, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	data, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		fmt.Println(value)
		return
	}
	fmt.Println(string(data))
}
