package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mathtutor-backend/internal/api"
	"mathtutor-backend/internal/config"
	"mathtutor-backend/internal/handlers"
	"mathtutor-backend/internal/id"
	"mathtutor-backend/internal/llm"
	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/services"
	"mathtutor-backend/internal/store/memory"

	"github.com/google/uuid"
)

func newTestServer(t *testing.T, client llm.Client) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		TokenExpiration: time.Hour,
		ContextWindow:   10,
	}

	st := memory.NewStore()
	gen, err := id.NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	authService := services.NewAuthService(st, cfg)
	tutorService := services.NewTutorService(st, client, gen, cfg.ContextWindow)

	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:  handlers.NewAuthHandler(authService),
		TutorHandler: handlers.NewTutorHandlers(tutorService),
		Config:       cfg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response body: %v", err)
		}
	}
	return resp.StatusCode
}

func signupAndLogin(t *testing.T, base string) string {
	t.Helper()

	creds := models.SignupRequest{Email: "student@example.com", Password: "secret123"}
	if code := doJSON(t, http.MethodPost, base+"/v1/auth/signup", "", creds, nil); code != http.StatusCreated {
		t.Fatalf("signup returned status %d", code)
	}

	var authResp models.AuthResponse
	login := models.LoginRequest{Email: creds.Email, Password: creds.Password}
	if code := doJSON(t, http.MethodPost, base+"/v1/auth/login", "", login, &authResp); code != http.StatusOK {
		t.Fatalf("login returned status %d", code)
	}
	return authResp.AccessToken
}

func TestExchangeEndToEnd(t *testing.T) {
	srv := newTestServer(t, &llm.MockClient{Reply: "답: 4"})
	token := signupAndLogin(t, srv.URL)

	var conv models.ConversationResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/v1/conversations", token, models.CreateConversationRequest{}, &conv); code != http.StatusCreated {
		t.Fatalf("create conversation returned status %d", code)
	}

	var solved models.SolveProblemResponse
	solveURL := fmt.Sprintf("%s/v1/conversations/%s/solve", srv.URL, conv.ID)
	if code := doJSON(t, http.MethodPost, solveURL, token, models.SolveProblemRequest{Question: "2+2는?"}, &solved); code != http.StatusOK {
		t.Fatalf("solve returned status %d", code)
	}
	if solved.Answer != "답: 4" {
		t.Fatalf("expected answer %q, got %q", "답: 4", solved.Answer)
	}

	var msgs models.ListMessagesResponse
	msgsURL := fmt.Sprintf("%s/v1/conversations/%s/messages", srv.URL, conv.ID)
	if code := doJSON(t, http.MethodGet, msgsURL, token, nil, &msgs); code != http.StatusOK {
		t.Fatalf("get messages returned status %d", code)
	}
	if len(msgs.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs.Messages))
	}
	if msgs.Messages[0].Role != models.RoleUser || msgs.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected message roles: %+v", msgs.Messages)
	}

	// Delete and verify the conversation is gone.
	delURL := fmt.Sprintf("%s/v1/conversations/%s", srv.URL, conv.ID)
	if code := doJSON(t, http.MethodDelete, delURL, token, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete returned status %d", code)
	}
	if code := doJSON(t, http.MethodGet, msgsURL, token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestGetConversation(t *testing.T) {
	srv := newTestServer(t, &llm.MockClient{Reply: "답"})
	token := signupAndLogin(t, srv.URL)

	title := "이차방정식"
	var created models.ConversationResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/v1/conversations", token, models.CreateConversationRequest{Title: &title}, &created); code != http.StatusCreated {
		t.Fatalf("create conversation returned status %d", code)
	}

	var fetched models.ConversationResponse
	convURL := fmt.Sprintf("%s/v1/conversations/%s", srv.URL, created.ID)
	if code := doJSON(t, http.MethodGet, convURL, token, nil, &fetched); code != http.StatusOK {
		t.Fatalf("get conversation returned status %d", code)
	}
	if fetched.ID != created.ID || fetched.Title != "이차방정식" {
		t.Fatalf("unexpected conversation body: %+v", fetched)
	}

	if code := doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+uuid.NewString(), token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", code)
	}

	if code := doJSON(t, http.MethodDelete, convURL, token, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete returned status %d", code)
	}
	if code := doJSON(t, http.MethodGet, convURL, token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestSolveFailureMapping(t *testing.T) {
	srv := newTestServer(t, &llm.MockClient{
		Err: &llm.InvocationError{Kind: llm.KindTimeout, Err: context.DeadlineExceeded},
	})
	token := signupAndLogin(t, srv.URL)

	var conv models.ConversationResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/v1/conversations", token, models.CreateConversationRequest{}, &conv); code != http.StatusCreated {
		t.Fatalf("create conversation returned status %d", code)
	}

	solveURL := fmt.Sprintf("%s/v1/conversations/%s/solve", srv.URL, conv.ID)
	if code := doJSON(t, http.MethodPost, solveURL, token, models.SolveProblemRequest{Question: "2+2는?"}, nil); code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 for timeout, got %d", code)
	}

	// The question survived the failure.
	var msgs models.ListMessagesResponse
	msgsURL := fmt.Sprintf("%s/v1/conversations/%s/messages", srv.URL, conv.ID)
	if code := doJSON(t, http.MethodGet, msgsURL, token, nil, &msgs); code != http.StatusOK {
		t.Fatalf("get messages returned status %d", code)
	}
	if len(msgs.Messages) != 1 || msgs.Messages[0].Role != models.RoleUser {
		t.Fatalf("expected only the user message to survive, got %+v", msgs.Messages)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, &llm.MockClient{Reply: "답"})

	if code := doJSON(t, http.MethodGet, srv.URL+"/v1/conversations", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/v1/conversations", "not-a-jwt", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bogus token, got %d", code)
	}
}
