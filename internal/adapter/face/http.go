package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EncoderConfig holds the configuration of the face-embedding service.
type EncoderConfig struct {
	BaseURL string // e.g. http://localhost:8500
	Token   string // Bearer token (empty = no auth)
}

// HTTPEncoder implements port.FaceEncoder against a JSON embedding service:
//
//	POST {BaseURL}/encode {"image": "<base64>"} -> {"encodings": [[...], ...]}
type HTTPEncoder struct {
	cfg        EncoderConfig
	httpClient *http.Client
}

// NewHTTPEncoder creates a new face encoder client.
func NewHTTPEncoder(cfg EncoderConfig) *HTTPEncoder {
	return &HTTPEncoder{cfg: cfg, httpClient: &http.Client{}}
}

// Encode returns one embedding per detected face.
func (e *HTTPEncoder) Encode(ctx context.Context, image []byte) ([][]float64, error) {
	payload, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/encode", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.Token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face encode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face encoder error (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Encodings [][]float64 `json:"encodings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("face encode decode: %w", err)
	}
	return out.Encodings, nil
}
