package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabfab/shop-agent/api"
	"github.com/fabfab/shop-agent/chat"
	"github.com/fabfab/shop-agent/chunker"
	"github.com/fabfab/shop-agent/config"
	"github.com/fabfab/shop-agent/database"
	"github.com/fabfab/shop-agent/embeddings"
	"github.com/fabfab/shop-agent/faults"
	"github.com/fabfab/shop-agent/ingest"
	"github.com/fabfab/shop-agent/intent"
	"github.com/fabfab/shop-agent/llm"
	"github.com/fabfab/shop-agent/retrieval"
	"github.com/fabfab/shop-agent/store"
	"github.com/fabfab/shop-agent/tokens"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "load":
		loadCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// app holds every long-lived collaborator, constructed once at process
// start and passed by reference; nothing is cached globally.
type app struct {
	pool    *pgxpool.Pool
	records *store.Store
	loader  *ingest.Loader
	svc     *chat.Service
}

func newApp(ctx context.Context, cfg config.Config, logger *log.Logger) (*app, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connection: %w", err)
	}

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	classifier, err := intent.NewClassifier(ctx, embedder, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("intent classifier setup: %w", err)
	}

	var index retrieval.Index
	switch cfg.Retrieval.Store {
	case config.IndexPgVector:
		index = retrieval.NewPostgresIndex(pool, embedder)
	default:
		index = retrieval.NewMemoryIndex(embedder)
	}

	records := store.New(pool)
	svc := chat.NewService(records, index, classifier, llmClient, tokens.NewCounter(), logger, chat.Config{
		TopK:         cfg.Retrieval.TopK,
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
		MaxRecords:   cfg.Retrieval.MaxRecords,
	})

	return &app{
		pool:    pool,
		records: records,
		loader:  ingest.NewLoader(records, logger),
		svc:     svc,
	}, nil
}

func (a *app) close() {
	a.pool.Close()
}

func loadCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("load", flag.ExitOnError)
	file := flags.String("file", cfg.DataFile, "path to JSON sales export")
	reindex := flags.Bool("reindex", true, "rebuild the retrieval index after loading")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse load flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	records := store.New(pool)
	loader := ingest.NewLoader(records, logger)

	count, err := loader.LoadFile(ctx, *file)
	if err != nil {
		logger.Fatalf("load failed: %v", err)
	}
	logger.Printf("loaded %d transactions from %s", count, *file)

	if !*reindex || cfg.Retrieval.Store != config.IndexPgVector {
		// The in-memory index is rebuilt at chat/serve startup anyway.
		return
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	txns, err := records.RecentTransactions(ctx, cfg.Retrieval.MaxRecords)
	if err != nil {
		logger.Fatalf("read transactions: %v", err)
	}

	chunks, err := chunker.BuildCorpus(txns, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		logger.Fatalf("chunk transactions: %v", err)
	}

	index := retrieval.NewPostgresIndex(pool, embedder)
	if err := index.Rebuild(ctx, chunks); err != nil {
		logger.Fatalf("rebuild index: %v", err)
	}
	logger.Printf("retrieval index rebuilt with %d chunks", len(chunks))
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	defer a.close()

	if _, err := a.svc.Reindex(ctx); err != nil {
		logger.Fatalf("build retrieval index: %v", err)
	}

	repl(ctx, a.svc, logger)
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	defer a.close()

	if _, err := a.svc.Reindex(ctx); err != nil {
		if errors.Is(err, faults.ErrEmptyInput) {
			logger.Printf("no transactions yet; load data and call /v1/reindex")
		} else {
			logger.Fatalf("build retrieval index: %v", err)
		}
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(a.svc, a.loader, logger),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all chatbot data. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	if err := store.New(pool).Clear(ctx); err != nil {
		logger.Fatalf("clear data: %v", err)
	}
	logger.Println("chatbot data removed")
}

func repl(ctx context.Context, svc *chat.Service, logger *log.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Ask me about products, sales, or support (Ctrl-D to quit)")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		reply, err := svc.Ask(ctx, question)
		if err != nil {
			logger.Printf("chat failed: %v", err)
			continue
		}

		fmt.Printf("[intent %s, confidence %.2f]\n", reply.Intent, reply.Confidence)

		switch reply.Intent {
		case intent.CustomerHistory:
			fmt.Println(reply.Answer)
			reply = lookupHistory(ctx, svc, scanner)
		case intent.Support:
			fmt.Println(reply.Answer)
			fileTicket(ctx, svc, scanner)
			continue
		}

		printReply(reply)
	}

	if err := scanner.Err(); err != nil {
		logger.Printf("read input: %v", err)
	}
}

func lookupHistory(ctx context.Context, svc *chat.Service, scanner *bufio.Scanner) chat.Reply {
	fmt.Print("Customer ID/Name/Email: ")
	if !scanner.Scan() {
		return chat.Reply{}
	}
	return svc.CustomerHistory(ctx, scanner.Text())
}

func fileTicket(ctx context.Context, svc *chat.Service, scanner *bufio.Scanner) {
	prompt := func(label string) string {
		fmt.Printf("%s: ", label)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	req := chat.TicketRequest{
		Name:     prompt("Full Name"),
		Email:    prompt("Email"),
		Category: prompt(fmt.Sprintf("Category %v", chat.TicketCategories)),
		Issue:    prompt("Describe your issue"),
		Priority: prompt(fmt.Sprintf("Priority %v", chat.TicketPriorities)),
	}

	ticket, err := svc.FileTicket(ctx, req)
	if err != nil {
		fmt.Printf("Could not create ticket: %v\n", err)
		return
	}

	fmt.Printf("Ticket created: %s (status %s)\n", ticket.TicketNumber, ticket.Status)
}

func printReply(reply chat.Reply) {
	if reply.Answer == "" {
		return
	}
	fmt.Println(reply.Answer)
	if len(reply.Evidence) > 0 {
		fmt.Printf("(%d supporting chunks", len(reply.Evidence))
		if reply.Tokens > 0 {
			fmt.Printf(", %d tokens", reply.Tokens)
		}
		fmt.Println(")")
	}
}

func printUsage() {
	fmt.Println("Usage: shop-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  load     Load a JSON sales export into the record store (use --file to override)")
	fmt.Println("  chat     Start an interactive chat session")
	fmt.Println("  serve    Serve the chatbot HTTP API")
	fmt.Println("  clear    Remove all chatbot data")
}
