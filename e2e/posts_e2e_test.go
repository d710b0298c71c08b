//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	postsgrpc "github.com/vibast-solutions/ms-go-posts/app/grpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	defaultHTTPBase = "http://localhost:8000"
	defaultGRPCAddr = "localhost:9090"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient() *httpClient {
	return &httpClient{
		baseURL: envOr("POSTS_HTTP_URL", defaultHTTPBase),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// send issues a JSON request with a bearer token when accessToken is set.
func (c *httpClient) send(t *testing.T, method, path, accessToken string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if env.StatusCode != resp.StatusCode {
		t.Fatalf("envelope status %d does not match %d", env.StatusCode, resp.StatusCode)
	}
	return resp.StatusCode, env
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/metrics")
		if err == nil {
			_ = resp.Body.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForGRPC(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("grpc service not ready at %s", addr)
}

type session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func registerAndLogin(t *testing.T, client *httpClient, email string) session {
	t.Helper()

	code, env := client.send(t, http.MethodPost, "/api/v1/user/register", "", map[string]string{
		"fullName": "E2E User",
		"email":    email,
		"password": "Abc12345!",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", code, env.Message)
	}

	code, env = client.send(t, http.MethodPost, "/api/v1/user/login", "", map[string]string{
		"email":    email,
		"password": "Abc12345!",
	})
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", code, env.Message)
	}

	var s session
	if err := json.Unmarshal(env.Data, &s); err != nil || s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatalf("login: missing tokens in %s", env.Data)
	}
	return s
}

func TestPostsE2E_HTTPFlow(t *testing.T) {
	client := newHTTPClient()
	if err := waitForHTTP(client.baseURL, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	email := fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano())
	s := registerAndLogin(t, client, email)

	code, _ := client.send(t, http.MethodPost, "/api/v1/user/register", "", map[string]string{
		"fullName": "E2E User",
		"email":    email,
		"password": "Abc12345!",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", code)
	}

	code, env := client.send(t, http.MethodGet, "/api/v1/user/current-user", s.AccessToken, nil)
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(email)) {
		t.Fatalf("current-user: got %d %s", code, env.Data)
	}

	code, env = client.send(t, http.MethodPost, "/api/v1/post/add-post", s.AccessToken, map[string]any{
		"title":       "groceries",
		"description": "milk",
	})
	if code != http.StatusCreated {
		t.Fatalf("add-post: expected 201, got %d (%s)", code, env.Message)
	}
	var post struct {
		ID uint64 `json:"_id"`
	}
	_ = json.Unmarshal(env.Data, &post)

	code, _ = client.send(t, http.MethodPost, "/api/v1/post/add-post", s.AccessToken, map[string]any{
		"title":       "groceries",
		"description": "eggs",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate add-post: expected 409, got %d", code)
	}

	code, _ = client.send(t, http.MethodPut, "/api/v1/post/update-post", s.AccessToken, map[string]any{
		"_id":         post.ID,
		"title":       "groceries",
		"description": "bread",
		"isCompleted": true,
	})
	if code != http.StatusCreated {
		t.Fatalf("update-post: expected 201, got %d", code)
	}

	code, _ = client.send(t, http.MethodDelete, "/api/v1/post/delete-post", s.AccessToken, map[string]any{"_id": post.ID})
	if code != http.StatusOK {
		t.Fatalf("delete-post: expected 200, got %d", code)
	}

	code, env = client.send(t, http.MethodPost, "/api/v1/user/refresh-token", "", map[string]string{"refreshToken": s.RefreshToken})
	if code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d (%s)", code, env.Message)
	}
	var rotated session
	_ = json.Unmarshal(env.Data, &rotated)

	code, _ = client.send(t, http.MethodPost, "/api/v1/user/refresh-token", "", map[string]string{"refreshToken": s.RefreshToken})
	if code != http.StatusUnauthorized {
		t.Fatalf("superseded refresh: expected 401, got %d", code)
	}

	code, _ = client.send(t, http.MethodPost, "/api/v1/user/logout", rotated.AccessToken, nil)
	if code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", code)
	}

	code, _ = client.send(t, http.MethodPost, "/api/v1/user/refresh-token", "", map[string]string{"refreshToken": rotated.RefreshToken})
	if code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", code)
	}
}

func TestPostsE2E_GRPCFlow(t *testing.T) {
	apiKey := os.Getenv("INTERNAL_API_KEY")
	if apiKey == "" {
		t.Skip("INTERNAL_API_KEY not set, gRPC service is disabled")
	}

	client := newHTTPClient()
	grpcAddr := envOr("POSTS_GRPC_ADDR", defaultGRPCAddr)
	if err := waitForHTTP(client.baseURL, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}
	if err := waitForGRPC(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	s := registerAndLogin(t, client, fmt.Sprintf("grpc+%d@example.com", time.Now().UnixNano()))

	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc new client failed: %v", err)
	}
	defer conn.Close()

	sessions := postsgrpc.NewSessionServiceClient(conn)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", apiKey)

	res, err := sessions.ValidateAccessToken(ctx, wrapperspb.String(s.AccessToken))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	fields := res.AsMap()
	if fields["valid"] != true {
		t.Fatalf("expected valid token, got %v", fields)
	}

	userID, _ := fields["user_id"].(float64)
	if _, err = sessions.GetUser(ctx, wrapperspb.UInt64(uint64(userID))); err != nil {
		t.Fatalf("get user: %v", err)
	}
}
