package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	clovaEmbedPath = "/v1/api-tools/embedding/v2"

	// clovaStatusOK is the service's success code. Anything else is an
	// error even when the HTTP status is 200.
	clovaStatusOK = "20000"
)

// ClovaEmbedder generates embeddings using the CLOVA Studio embedding API.
// The service accepts one text per request and returns a 1024-dimension
// vector.
type ClovaEmbedder struct {
	baseURL    string
	apiKey     string
	requestID  string
	dimensions int
	httpClient *http.Client
}

// NewClovaEmbedder creates a CLOVA embedder. apiKey must carry the Bearer
// prefix (config.ClovaAPIKey handles that).
func NewClovaEmbedder(baseURL, apiKey, requestID string, dimensions int) *ClovaEmbedder {
	return &ClovaEmbedder{
		baseURL:    baseURL,
		apiKey:     apiKey,
		requestID:  requestID,
		dimensions: dimensions,
		httpClient: &http.Client{},
	}
}

func (e *ClovaEmbedder) Name() string {
	return "clova"
}

func (e *ClovaEmbedder) Dimensions() int {
	return e.dimensions
}

type clovaEmbedRequest struct {
	Text string `json:"text"`
}

type clovaStatus struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type clovaEmbedResponse struct {
	Status clovaStatus `json:"status"`
	Result struct {
		Embedding []float32 `json:"embedding"`
	} `json:"result"`
}

func (e *ClovaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// The service has no batch endpoint; each text is a separate request.
	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		emb, err := e.embedSingle(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, emb)
	}
	return results, nil
}

func (e *ClovaEmbedder) embedSingle(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(clovaEmbedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal clova request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+clovaEmbedPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create clova request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", e.apiKey)
	req.Header.Set("X-NCP-CLOVASTUDIO-REQUEST-ID", e.requestID)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clova request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("clova returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result clovaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode clova response: %w", err)
	}

	if result.Status.Code != clovaStatusOK {
		return nil, fmt.Errorf("clova status %s: %s", result.Status.Code, result.Status.Message)
	}

	if len(result.Result.Embedding) != e.dimensions {
		return nil, fmt.Errorf("clova returned %d-dimension embedding, expected %d", len(result.Result.Embedding), e.dimensions)
	}

	return result.Result.Embedding, nil
}
