package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/models"
)

func newTestAssistant(baseURL string) *AssistantService {
	return NewAssistantService("test-key", baseURL, "gemini-2.0-flash", NewTranscriptStore())
}

func TestAskAppendsUserAndModelTurns(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key, got query %q", r.URL.RawQuery)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != models.RoleUser {
			t.Errorf("expected the user turn in contents, got %+v", req.Contents)
		}
		if req.SystemInstruction == nil {
			t.Error("expected a system instruction")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "candidates": [
    {
      "content": {"parts": [{"text": "Drink plenty of water."}]},
      "groundingMetadata": {
        "groundingAttributions": [
          {"web": {"uri": "https://example.org/hydration", "title": "Hydration basics"}}
        ]
      }
    }
  ]
}`))
	}))
	defer ts.Close()

	svc := newTestAssistant(ts.URL)

	reply, err := svc.Ask(context.Background(), "u1", "How much water should I drink?", false)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Role != models.RoleModel || reply.Text != "Drink plenty of water." {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.Sources) != 1 || reply.Sources[0].URI != "https://example.org/hydration" {
		t.Fatalf("unexpected sources: %+v", reply.Sources)
	}

	transcript := svc.Transcript("u1")
	if len(transcript) != 2 {
		t.Fatalf("expected 2 transcript entries, got %d", len(transcript))
	}
	if transcript[0].Role != models.RoleUser || transcript[1].Role != models.RoleModel {
		t.Fatalf("unexpected roles: %+v", transcript)
	}
}

func TestAskFailureAppendsSyntheticModelTurn(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := newTestAssistant(ts.URL)

	reply, err := svc.Ask(context.Background(), "u1", "hello", false)
	if err != nil {
		t.Fatalf("ask should settle without error, got %v", err)
	}
	if reply.Role != models.RoleModel || reply.Text != assistantErrorText {
		t.Fatalf("expected the synthetic error turn, got %+v", reply)
	}

	transcript := svc.Transcript("u1")
	if len(transcript) != 2 {
		t.Fatalf("expected exactly one user and one model entry, got %d", len(transcript))
	}
}

func TestAskEmptyResponseAppendsSyntheticModelTurn(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer ts.Close()

	svc := newTestAssistant(ts.URL)

	reply, err := svc.Ask(context.Background(), "u1", "hello", false)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Text != assistantErrorText {
		t.Fatalf("expected the synthetic error turn, got %+v", reply)
	}
}

func TestAskUsesCoachingInstructionForStepAssessment(t *testing.T) {
	t.Parallel()

	var gotInstruction string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SystemInstruction != nil && len(req.SystemInstruction.Parts) > 0 {
			gotInstruction = req.SystemInstruction.Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "Nice work!"}]}}]}`))
	}))
	defer ts.Close()

	svc := newTestAssistant(ts.URL)

	if _, err := svc.Ask(context.Background(), "u1", "I walked 4321 steps yesterday.", true); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if gotInstruction != coachingInstruction {
		t.Fatalf("expected coaching instruction, got %q", gotInstruction)
	}
}

func TestSecondAskWhilePendingIsRejected(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`))
	}))
	defer ts.Close()

	svc := newTestAssistant(ts.URL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Ask(context.Background(), "u1", "first", false)
	}()

	<-entered
	if _, err := svc.Ask(context.Background(), "u1", "second", false); err != ErrAssistantBusy {
		t.Fatalf("expected ErrAssistantBusy, got %v", err)
	}

	close(release)
	<-done

	// the rejected request must not have touched the transcript
	if got := len(svc.Transcript("u1")); got != 2 {
		t.Fatalf("expected 2 transcript entries, got %d", got)
	}
}

func TestStepPrompt(t *testing.T) {
	t.Parallel()

	measured := models.StepCount{Steps: 4321, Date: "2026-08-30", Measured: true}
	if got := StepPrompt(measured); !strings.Contains(got, "4321") {
		t.Fatalf("prompt should mention the count: %q", got)
	}

	unmeasured := models.StepCount{Date: "2026-08-30"}
	if got := StepPrompt(unmeasured); !strings.Contains(got, "no step data") {
		t.Fatalf("prompt should mention missing data: %q", got)
	}
}
