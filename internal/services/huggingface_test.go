package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceService_Complete(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "list response with echoed prompt",
			body: `[{"generated_text":"PROMPT The river glitters."}]`,
			want: "The river glitters.",
		},
		{
			name: "object response",
			body: `{"generated_text":"PROMPT A bell tolls."}`,
			want: "A bell tolls.",
		},
		{
			name: "no echo",
			body: `[{"generated_text":"Fog rolls in."}]`,
			want: "Fog rolls in.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got huggingFaceRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/gpt2", r.URL.Path)
				assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewHuggingFaceService("hf-key", "", testLogger())
			svc.baseURL = server.URL

			text, err := svc.Complete(context.Background(), "PROMPT", 300)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, "PROMPT", got.Inputs)
			assert.Equal(t, 300, got.Parameters.MaxLength)
			assert.Equal(t, 40, got.Parameters.TopK)
		})
	}
}

func TestHuggingFaceService_CompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"loading model", http.StatusServiceUnavailable, `{"error":"Model is loading"}`},
		{"missing field", http.StatusOK, `[{"label":"POSITIVE"}]`},
		{"empty list", http.StatusOK, `[]`},
		{"only the prompt", http.StatusOK, `[{"generated_text":"PROMPT"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewHuggingFaceService("hf-key", "gpt2", testLogger())
			svc.baseURL = server.URL
			_, err := svc.Complete(context.Background(), "PROMPT", 100)
			assert.Error(t, err)
		})
	}
}
