// Package chat routes classified queries to their handling paths and
// answers data-search queries with retrieval-augmented generation.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fabfab/shop-agent/chunker"
	"github.com/fabfab/shop-agent/intent"
	"github.com/fabfab/shop-agent/llm"
	"github.com/fabfab/shop-agent/retrieval"
	"github.com/fabfab/shop-agent/store"
	"github.com/fabfab/shop-agent/tokens"
)

const (
	defaultTopK          = 4
	defaultHistoryWindow = 5
	defaultMaxRecords    = 200
)

// Records is the store surface the chat routes need.
type Records interface {
	SearchCustomer(ctx context.Context, term string) (*store.Customer, error)
	TransactionsByCustomer(ctx context.Context, customerID string) ([]store.Transaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]store.Transaction, error)
	InsertTicket(ctx context.Context, t store.Ticket) error
}

// Classifier decides which route a query takes.
type Classifier interface {
	Classify(ctx context.Context, query string) intent.Result
}

type Config struct {
	TopK          int
	HistoryWindow int
	ChunkSize     int
	ChunkOverlap  int
	// MaxRecords caps how many of the most recent transactions feed a
	// Reindex.
	MaxRecords int
}

// Service executes one query at a time: classify, route, answer. The
// transcript is session-scoped; the classifier and index are read-only
// between rebuilds.
type Service struct {
	records    Records
	index      retrieval.Index
	classifier Classifier
	llm        llm.Client
	counter    *tokens.Counter
	logger     *log.Logger
	cfg        Config
	history    []Turn
}

func NewService(records Records, index retrieval.Index, classifier Classifier, llmClient llm.Client, counter *tokens.Counter, logger *log.Logger, cfg Config) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = chunker.DefaultChunkOverlap
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = defaultMaxRecords
	}

	return &Service{
		records:    records,
		index:      index,
		classifier: classifier,
		llm:        llmClient,
		counter:    counter,
		logger:     logger,
		cfg:        cfg,
	}
}

// Ask classifies the question and dispatches it to the matching route. A
// per-query service failure never propagates as an error; it surfaces as a
// degraded reply so the chat loop keeps accepting input.
func (s *Service) Ask(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, fmt.Errorf("question cannot be empty")
	}

	result := s.classifier.Classify(ctx, question)

	var reply Reply
	switch result.Intent {
	case intent.SearchDB:
		reply = s.answerFromIndex(ctx, question)
	case intent.CustomerHistory:
		reply = Reply{Answer: "Please provide a customer name, ID, or email so I can look up the purchase history."}
	case intent.Support:
		reply = Reply{Answer: "I can help with that. Please share your name, email, and a description of the issue to open a support ticket."}
	default:
		reply = Reply{Answer: "Sorry, I couldn't understand your request."}
	}

	reply.Intent = result.Intent
	reply.Confidence = result.Confidence
	reply.Degraded = reply.Degraded || result.Degraded
	reply.Tokens = s.counter.Count(reply.Answer)

	s.record(question, reply)
	return reply, nil
}

// answerFromIndex is the grounded QA path: retrieve evidence, build the
// grounding prompt with the recent history window, and generate. On a
// retrieval or generation failure the reply carries an error-flagged answer
// instead of an error.
func (s *Service) answerFromIndex(ctx context.Context, question string) Reply {
	hits, err := s.index.Search(ctx, question, s.cfg.TopK)
	if err != nil {
		s.logger.Printf("retrieval failed: %v", err)
		return Reply{Answer: fmt.Sprintf("Error during search: %v", err), Degraded: true}
	}

	evidence := make([]string, len(hits))
	for i, hit := range hits {
		evidence[i] = hit.Chunk
	}

	messages := make([]llm.Message, 0, s.cfg.HistoryWindow*2+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt()})
	messages = append(messages, historyMessages(s.history, s.cfg.HistoryWindow)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: formatUserPrompt(question, hits)})

	answer, err := s.llm.Generate(ctx, messages)
	if err != nil {
		s.logger.Printf("generation failed: %v", err)
		return Reply{
			Answer:   fmt.Sprintf("Error during search: %v", err),
			Evidence: evidence,
			Degraded: true,
		}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "No data found"
	}

	return Reply{Answer: answer, Evidence: evidence}
}

// Reindex rebuilds the retrieval index wholesale from the most recent
// transactions. Rebuilding is always explicit; ingesting new data does not
// invalidate the index on its own.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	txns, err := s.records.RecentTransactions(ctx, s.cfg.MaxRecords)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}

	chunks, err := chunker.BuildCorpus(txns, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return 0, err
	}

	if err := s.index.Rebuild(ctx, chunks); err != nil {
		return 0, err
	}

	s.logger.Printf("retrieval index rebuilt: %d transactions, %d chunks", len(txns), len(chunks))
	return len(chunks), nil
}

// History returns the session transcript recorded so far.
func (s *Service) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Service) record(question string, reply Reply) {
	s.history = append(s.history, Turn{
		User:       question,
		Bot:        reply.Answer,
		Intent:     reply.Intent,
		Confidence: reply.Confidence,
		At:         time.Now(),
	})
}
