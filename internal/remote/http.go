package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPStore speaks a drive-style REST blob API:
//
//	GET    {base}/files?name={name}      → {"files":[{"id":..,"name":..}]}
//	POST   {base}/files {"name":..}      → {"id":..}
//	GET    {base}/files/{id}?alt=media   → raw body
//	PATCH  {base}/files/{id}?uploadType=media
//
// Every request carries a bearer token from the TokenSource.
type HTTPStore struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
}

var _ BlobStore = (*HTTPStore)(nil)

func NewHTTPStore(baseURL string, tokens TokenSource) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type fileMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *HTTPStore) Find(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/files?name=%s", s.baseURL, url.QueryEscape(name))
	body, err := s.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return "", err
	}
	var result struct {
		Files []fileMeta `json:"files"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("remote: decode file list: %w", err)
	}
	if len(result.Files) == 0 {
		return "", ErrNotFound
	}
	return result.Files[0].ID, nil
}

func (s *HTTPStore) Create(ctx context.Context, name string, initial []byte) (string, error) {
	meta, err := json.Marshal(fileMeta{Name: name})
	if err != nil {
		return "", fmt.Errorf("remote: encode metadata: %w", err)
	}
	body, err := s.do(ctx, http.MethodPost, s.baseURL+"/files", meta, "application/json")
	if err != nil {
		return "", err
	}
	var created fileMeta
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("remote: decode create response: %w", err)
	}
	if len(initial) > 0 {
		if err := s.Write(ctx, created.ID, initial); err != nil {
			return "", err
		}
	}
	return created.ID, nil
}

func (s *HTTPStore) Read(ctx context.Context, id string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/files/%s?alt=media", s.baseURL, url.PathEscape(id))
	return s.do(ctx, http.MethodGet, endpoint, nil, "")
}

func (s *HTTPStore) Write(ctx context.Context, id string, data []byte) error {
	endpoint := fmt.Sprintf("%s/files/%s?uploadType=media", s.baseURL, url.PathEscape(id))
	_, err := s.do(ctx, http.MethodPatch, endpoint, data, "application/json")
	return err
}

func (s *HTTPStore) do(ctx context.Context, method, endpoint string, body []byte, contentType string) ([]byte, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("remote: %s %s: status %d", method, endpoint, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}
	return payload, nil
}
