// Package agent owns the query routing pipeline: it decides per query
// whether local retrieval suffices, when to ask permission before
// touching the network, how retrieved chunks are ranked into the
// prompt, and how the streamed answer is folded back into the bounded
// conversation history.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"saturday/internal/knowledge"
	"saturday/internal/llm"
	"saturday/internal/log"
)

// ClarifyingQuestion is returned when nothing relevant is indexed and
// web search has not been permitted.
const ClarifyingQuestion = "I don't have this in my local data. Do you want me to search the web?"

// Source labels reported alongside an answer.
const (
	SourceLocal = "Local Database"
	SourceWeb   = "Web Search"
)

// Relevance tiers for retrieved chunks, derived from cosine distance
// on the 0 (identical) to 2 (opposite) scale.
const (
	relevanceHigh   = "HIGH"
	relevanceMedium = "MEDIUM"
	relevanceLow    = "LOW"
)

// errStreamAbandoned aborts generation when the consumer stops reading.
var errStreamAbandoned = errors.New("stream abandoned by consumer")

// Retriever is the nearest-neighbor slice of the document store.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]knowledge.Result, error)
}

// Searcher answers a query with a formatted web digest.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Completer streams a model completion and returns the full text.
type Completer interface {
	Complete(ctx context.Context, req llm.Request, onChunk func(string) error) (string, error)
}

// Config tunes retrieval and generation. Zero values fall back to the
// documented defaults.
type Config struct {
	TopK              int     // retrieved chunks per query (default 5)
	HighDistanceMax   float64 // distances below this are HIGH (default 1.0)
	MediumDistanceMax float64 // distances below this are MEDIUM (default 1.3)
	MaxHistory        int     // stored conversation turns (default 10)
	Temperature       float64
	MaxTokens         int
}

// Agent routes one conversation. It is not safe for concurrent use;
// give each session its own instance.
type Agent struct {
	retriever  Retriever
	searcher   Searcher
	completer  Completer
	classifier Classifier
	cfg        Config
	logger     log.Logger
	now        func() time.Time

	mu         sync.Mutex
	history    []llm.Message
	pending    string // query awaiting web-search permission
	webAllowed bool   // sticky once granted
}

// Reply is the result of routing one query: a lazy fragment stream and
// the source labels that fed it.
type Reply struct {
	Stream  iter.Seq2[string, error]
	Sources []string
}

// New creates an agent over the three collaborators.
func New(retriever Retriever, searcher Searcher, completer Completer, cfg Config, logger log.Logger) *Agent {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.HighDistanceMax <= 0 {
		cfg.HighDistanceMax = 1.0
	}
	if cfg.MediumDistanceMax <= 0 {
		cfg.MediumDistanceMax = 1.3
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 10
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Agent{
		retriever:  retriever,
		searcher:   searcher,
		completer:  completer,
		classifier: PhraseClassifier{},
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Respond routes query and returns the reply stream. The stream must be
// consumed to completion before the next Respond call; history is
// appended only when the stream is fully drained.
func (a *Agent) Respond(ctx context.Context, query string) (*Reply, error) {
	query = a.applyIntent(query)

	results, err := a.retriever.Query(ctx, query, a.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	localContext := a.filterRelevant(results)

	webContext := make([]string, 0, 1)
	if len(localContext) == 0 {
		a.mu.Lock()
		allowed := a.webAllowed
		a.mu.Unlock()

		if !allowed {
			a.mu.Lock()
			a.pending = query
			a.mu.Unlock()
			a.logger.Debug("no local context, asking permission", "query", query)
			return &Reply{Sources: []string{}, Stream: singleFragment(ClarifyingQuestion)}, nil
		}

		digest, err := a.searcher.Search(ctx, query)
		switch {
		case err != nil:
			// Degrade, never fail the query over the network.
			a.logger.Warn("web search failed", "error", err)
			webContext = append(webContext, fmt.Sprintf("Search failed: %v", err))
		case digest != "":
			webContext = append(webContext, digest)
		}
	}

	payload, err := json.Marshal(contextPayload{
		LocalContext: localContext,
		WebContext:   webContext,
		Query:        query,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding context payload: %w", err)
	}

	a.mu.Lock()
	messages := slices.Clone(a.history)
	a.mu.Unlock()
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: string(payload)})

	req := llm.Request{
		System:      systemPrompt(a.now()),
		Messages:    messages,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	sources := make([]string, 0, 2)
	if len(localContext) > 0 {
		sources = append(sources, SourceLocal)
	}
	if len(webContext) > 0 {
		sources = append(sources, SourceWeb)
	}

	return &Reply{Sources: sources, Stream: a.answerStream(ctx, req, query)}, nil
}

// applyIntent runs the two-step classification: a confirmation while a
// query is pending grants permission and restores the pending query; a
// trigger phrase in the effective query grants permission outright.
func (a *Agent) applyIntent(query string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending != "" && a.classifier.Classify(query).Confirm {
		a.webAllowed = true
		query = a.pending
		a.pending = ""
	}
	if a.classifier.Classify(query).Trigger {
		a.webAllowed = true
	}
	return query
}

// filterRelevant keeps HIGH and MEDIUM chunks in store order, formatted
// for the prompt.
func (a *Agent) filterRelevant(results []knowledge.Result) []string {
	kept := make([]string, 0, len(results))
	for _, r := range results {
		tier := a.relevance(r.Distance)
		if tier == relevanceLow {
			continue
		}
		source := r.Document.Metadata["source"]
		if source == "" {
			source = "Unknown"
		}
		kept = append(kept, fmt.Sprintf("[Source: %s | Relevance: %s]\n%s", source, tier, r.Document.Content))
		a.logger.Debug("keeping chunk", "source", source, "distance", r.Distance, "relevance", tier)
	}
	return kept
}

func (a *Agent) relevance(distance float64) string {
	switch {
	case distance < a.cfg.HighDistanceMax:
		return relevanceHigh
	case distance < a.cfg.MediumDistanceMax:
		return relevanceMedium
	default:
		return relevanceLow
	}
}

// answerStream produces the model fragments lazily. On normal
// exhaustion, and only then, the raw query and the accumulated answer
// are appended to history exactly once. An abandoned or failed stream
// leaves history untouched.
func (a *Agent) answerStream(ctx context.Context, req llm.Request, rawQuery string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		abandoned := false
		full, err := a.completer.Complete(ctx, req, func(fragment string) error {
			if fragment == "" {
				return nil
			}
			if !yield(fragment, nil) {
				abandoned = true
				return errStreamAbandoned
			}
			return nil
		})
		if abandoned {
			return
		}
		if err != nil {
			yield("", fmt.Errorf("model completion: %w", err))
			return
		}
		a.recordTurn(rawQuery, full)
	}
}

// recordTurn appends one user/assistant pair and trims to the bound.
func (a *Agent) recordTurn(query, answer string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history,
		llm.Message{Role: llm.RoleUser, Content: query},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)
	if len(a.history) > a.cfg.MaxHistory {
		a.history = a.history[len(a.history)-a.cfg.MaxHistory:]
	}
}

func singleFragment(text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield(text, nil)
	}
}
