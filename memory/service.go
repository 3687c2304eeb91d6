package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/provider"
)

// Service is the dual-backed store the orchestrator writes through. Writes
// fan out to the primary (semantic) and fallback (keyword) backends
// concurrently and succeed when either backend acks; a single-backend outage
// degrades recall quality, never request handling. Both backends failing is
// the only write error.
type Service struct {
	logger   *mylog.Logger
	primary  Store
	fallback Store
	client   provider.Client
	conf     *config.MemoryConfig
}

func NewService(logger *mylog.Logger, conf *config.MemoryConfig, client provider.Client) (*Service, error) {
	if conf == nil {
		conf = config.NewMemoryConfig()
	}
	if client == nil {
		client = provider.Unavailable()
	}

	fallback, err := NewSqliteStore(conf.SqlitePath)
	if err != nil {
		return nil, err
	}

	primary, err := newPrimary(conf)
	if err != nil {
		return nil, err
	}

	return &Service{
		logger:   logger,
		primary:  primary,
		fallback: fallback,
		client:   client,
		conf:     conf,
	}, nil
}

// NewServiceWithStores wires explicit backends; tests use it to stand in
// failing or in-memory stores.
func NewServiceWithStores(logger *mylog.Logger, conf *config.MemoryConfig, client provider.Client, primary, fallback Store) *Service {
	if conf == nil {
		conf = config.NewMemoryConfig()
	}
	if client == nil {
		client = provider.Unavailable()
	}
	return &Service{logger: logger, primary: primary, fallback: fallback, client: client, conf: conf}
}

func newPrimary(conf *config.MemoryConfig) (Store, error) {
	switch conf.PrimaryBackend {
	case "remote":
		if conf.RemoteBaseURL != "" {
			return NewRemoteStore(conf.RemoteBaseURL, conf.RemoteAPIKey, conf.StoreTimeout)
		}
		// No remote configured: run fully local with the vector store as
		// primary.
		return NewVectorStore(conf.SqlitePath+".vec", conf.VectorDim)
	case "sqlite-vec":
		return NewVectorStore(conf.SqlitePath+".vec", conf.VectorDim)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown memory backend %q", conf.PrimaryBackend)
	}
}

// Write stores the entry in both backends. The embedding is computed once,
// best-effort; without it the primary still keeps the text row.
func (s *Service) Write(ctx context.Context, entry *Entry) error {
	if entry.Key == "" {
		return errors.Wrapf(errors.ErrInvalidParams, "memory entry key is required")
	}

	if len(entry.Embedding) == 0 {
		if vectors, err := s.client.Embed(ctx, entry.SearchText()); err == nil && len(vectors) > 0 {
			entry.Embedding = vectors[0]
		} else if err != nil {
			s.logger.Debug("embedding unavailable, storing text only", mylog.Err(err))
		}
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, store := range []Store{s.primary, s.fallback} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			storeCtx, cancel := context.WithTimeout(ctx, s.conf.StoreTimeout)
			defer cancel()
			results[i] = store.Put(storeCtx, entry)
		}()
	}
	wg.Wait()

	primaryErr, fallbackErr := results[0], results[1]
	if primaryErr != nil && fallbackErr != nil {
		return errors.Wrapf(primaryErr, "both memory backends failed (fallback: %v)", fallbackErr)
	}
	if primaryErr != nil {
		s.logger.Warn("primary memory backend write failed", mylog.Err(primaryErr))
	}
	if fallbackErr != nil {
		s.logger.Warn("fallback memory backend write failed", mylog.Err(fallbackErr))
	}

	return nil
}

// Search asks the primary backend first and degrades to keyword search on
// the fallback when the primary errors or returns nothing.
func (s *Service) Search(ctx context.Context, caseID, query string, limit int) ([]ScoredEntry, error) {
	var embedding []float32
	if vectors, err := s.client.Embed(ctx, query); err == nil && len(vectors) > 0 {
		embedding = vectors[0]
	}

	results, err := s.primary.Search(ctx, caseID, query, embedding, limit)
	if err == nil && len(results) > 0 {
		return results, nil
	}
	if err != nil {
		s.logger.Warn("primary memory search failed, using fallback",
			slog.String("case_id", caseID), mylog.Err(err))
	}

	return s.fallback.Search(ctx, caseID, query, nil, limit)
}

// List reads from the fallback store, which sees every acked write.
func (s *Service) List(ctx context.Context, caseID string) ([]*Entry, error) {
	entries, err := s.fallback.List(ctx, caseID)
	if err != nil || len(entries) == 0 {
		if primaryEntries, primaryErr := s.primary.List(ctx, caseID); primaryErr == nil && len(primaryEntries) > 0 {
			return primaryEntries, nil
		}
	}
	return entries, err
}

func (s *Service) Close() error {
	primaryErr := s.primary.Close()
	fallbackErr := s.fallback.Close()
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}
