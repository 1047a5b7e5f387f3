package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// These tests drive a running server and are skipped unless API_URL is
// set, e.g. API_URL=http://localhost:8080 go test ./test/api/...
var baseURL = os.Getenv("API_URL")

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type testResponse struct {
	Code    int
	Status  string
	Message string
	Data    map[string]interface{}
}

func (r testResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r testResponse) GetString(key string) string {
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

func requireServer(t *testing.T) {
	t.Helper()
	if baseURL == "" {
		t.Skip("API_URL not set")
	}
}

func makeRequest(t *testing.T, method, path string, body interface{}, token string) testResponse {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, baseURL+"/api/v1"+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	out := testResponse{
		Code:    resp.StatusCode,
		Status:  raw.Status,
		Message: raw.Message,
	}
	if len(raw.Data) > 0 {
		_ = json.Unmarshal(raw.Data, &out.Data)
	}
	return out
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
