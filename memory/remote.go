package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lawyrs/counsel/errors"
)

// RemoteStore talks to the shared memory service over HTTP. It is the
// default primary backend when a base URL is configured; any failure here is
// absorbed by the service's dual-write policy.
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Store = (*RemoteStore)(nil)

func NewRemoteStore(baseURL, apiKey string, timeout time.Duration) (*RemoteStore, error) {
	if baseURL == "" {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "remote memory base URL is required")
	}

	return &RemoteStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (s *RemoteStore) Put(ctx context.Context, entry *Entry) error {
	return s.do(ctx, http.MethodPut, "/api/memory/entries", entry, nil)
}

func (s *RemoteStore) Get(ctx context.Context, identity string) (*Entry, error) {
	var entry Entry
	path := "/api/memory/entries/" + url.PathEscape(identity)
	if err := s.do(ctx, http.MethodGet, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RemoteStore) Search(ctx context.Context, caseID, query string, queryEmbedding []float32, limit int) ([]ScoredEntry, error) {
	req := struct {
		CaseID    string    `json:"case_id,omitempty"`
		Query     string    `json:"query"`
		Embedding []float32 `json:"embedding,omitempty"`
		Limit     int       `json:"limit,omitempty"`
	}{caseID, query, queryEmbedding, limit}

	var resp struct {
		Results []ScoredEntry `json:"results"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/memory/search", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (s *RemoteStore) List(ctx context.Context, caseID string) ([]*Entry, error) {
	path := "/api/memory/entries"
	if caseID != "" {
		path += "?case_id=" + url.QueryEscape(caseID)
	}

	var resp struct {
		Entries []*Entry `json:"entries"`
	}
	if err := s.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (s *RemoteStore) Delete(ctx context.Context, identity string) error {
	return s.do(ctx, http.MethodDelete, "/api/memory/entries/"+url.PathEscape(identity), nil, nil)
}

func (s *RemoteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *RemoteStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "remote memory request failed: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "remote memory: %s %s", method, path)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrapf(errors.ErrUnavailable, "remote memory returned %d: %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode remote memory response")
	}
	return nil
}

func (s *RemoteStore) String() string {
	return fmt.Sprintf("remote(%s)", s.baseURL)
}
