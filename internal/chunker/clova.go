package chunker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	clovaSegmentPath = "/v1/api-tools/segmentation"
	clovaStatusOK    = "20000"
)

// ClovaSegmenter calls the CLOVA Studio segmentation API, which finds
// natural topic boundaries in a text. The model decides segment count
// and boundaries itself; only the post-processing size bounds derive
// from the requested max length.
type ClovaSegmenter struct {
	baseURL    string
	apiKey     string
	requestID  string
	httpClient *http.Client
}

// NewClovaSegmenter creates a segmentation client. apiKey must carry
// the Bearer prefix.
func NewClovaSegmenter(baseURL, apiKey, requestID string) *ClovaSegmenter {
	return &ClovaSegmenter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		requestID:  requestID,
		httpClient: &http.Client{},
	}
}

type clovaSegmentRequest struct {
	Text string `json:"text"`
	// Alpha and SegCnt are -1/-100 so the model picks optimal values.
	Alpha              int  `json:"alpha"`
	SegCnt             int  `json:"segCnt"`
	PostProcess        bool `json:"postProcess"`
	PostProcessMaxSize int  `json:"postProcessMaxSize"`
	PostProcessMinSize int  `json:"postProcessMinSize"`
}

type clovaSegmentResponse struct {
	Status struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Result struct {
		TopicSeg [][]string `json:"topicSeg"`
	} `json:"result"`
}

func (s *ClovaSegmenter) Segment(ctx context.Context, text string, maxLen int) ([]string, error) {
	body, err := json.Marshal(clovaSegmentRequest{
		Text:               text,
		Alpha:              -100,
		SegCnt:             -1,
		PostProcess:        true,
		PostProcessMaxSize: maxLen * 4,
		PostProcessMinSize: maxLen / 2,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal segmentation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+clovaSegmentPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create segmentation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("X-NCP-CLOVASTUDIO-REQUEST-ID", s.requestID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segmentation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("segmentation returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result clovaSegmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode segmentation response: %w", err)
	}

	if result.Status.Code != clovaStatusOK {
		return nil, fmt.Errorf("segmentation status %s: %s", result.Status.Code, result.Status.Message)
	}

	// Each topic segment arrives as a list of sentences; join them into
	// one chunk. Empty segments are dropped.
	segments := make([]string, 0, len(result.Result.TopicSeg))
	for _, seg := range result.Result.TopicSeg {
		if len(seg) == 0 {
			continue
		}
		joined := strings.TrimSpace(strings.Join(seg, " "))
		if joined != "" {
			segments = append(segments, joined)
		}
	}
	return segments, nil
}
