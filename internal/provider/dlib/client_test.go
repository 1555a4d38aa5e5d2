package dlib

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.RetryCount = 0
	return cfg
}

func TestClient_Encode(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantErr        bool
		validateResp   func(*testing.T, *EncodeResponse)
	}{
		{
			name: "successful response with single face",
			serverResponse: EncodeResponse{
				Results: []EncodeResult{
					{
						Box:       Box{Top: 20, Right: 110, Bottom: 120, Left: 10},
						Embedding: make([]float64, 128),
					},
				},
			},
			serverStatus: http.StatusOK,
			validateResp: func(t *testing.T, resp *EncodeResponse) {
				require.NotNil(t, resp)
				assert.Len(t, resp.Results, 1)
				assert.Len(t, resp.Results[0].Embedding, 128)
				assert.Equal(t, 20, resp.Results[0].Box.Top)
				assert.Equal(t, 10, resp.Results[0].Box.Left)
			},
		},
		{
			name: "successful response with multiple faces",
			serverResponse: EncodeResponse{
				Results: []EncodeResult{
					{Box: Box{Top: 20, Right: 110, Bottom: 120, Left: 10}, Embedding: make([]float64, 128)},
					{Box: Box{Top: 30, Right: 240, Bottom: 120, Left: 150}, Embedding: make([]float64, 128)},
				},
			},
			serverStatus: http.StatusOK,
			validateResp: func(t *testing.T, resp *EncodeResponse) {
				require.NotNil(t, resp)
				assert.Len(t, resp.Results, 2)
			},
		},
		{
			name:           "empty response",
			serverResponse: EncodeResponse{Results: []EncodeResult{}},
			serverStatus:   http.StatusOK,
			validateResp: func(t *testing.T, resp *EncodeResponse) {
				require.NotNil(t, resp)
				assert.Empty(t, resp.Results)
			},
		},
		{
			name:           "client error is not retried",
			serverResponse: map[string]string{"error": "bad image"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        true,
		},
		{
			name:           "server error",
			serverResponse: map[string]string{"error": "model crashed"},
			serverStatus:   http.StatusInternalServerError,
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/encode", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req EncodeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "hog", req.Model)
				assert.Equal(t, 2, req.Jitters)

				w.WriteHeader(tt.serverStatus)
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL))
			resp, err := client.Encode(context.Background(), "aW1hZ2U=")

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateResp(t, resp)
		})
	}
}

func TestClient_Encode_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(EncodeResponse{Results: []EncodeResult{}})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryCount = 1
	client := NewClient(cfg)

	_, err := client.Encode(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, calculateBackoff(0))
	assert.Equal(t, time.Second, calculateBackoff(1))
	assert.Equal(t, 2*time.Second, calculateBackoff(2))
	assert.Equal(t, 4*time.Second, calculateBackoff(3))
}
