package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"backend/models"

	"github.com/go-resty/resty/v2"
)

var ErrAssistantBusy = errors.New("a reply is already pending")

const (
	wellnessInstruction = "You are a friendly wellness assistant inside a personal health tracking app. " +
		"Answer general wellness questions clearly and briefly. You are not a doctor; " +
		"recommend seeing a professional for anything medical."
	coachingInstruction = "You are an encouraging fitness coach. The user shares their step count " +
		"for yesterday. Assess it against a 10,000 step goal and reply with short, " +
		"supportive feedback and one practical tip."
	assistantErrorText = "Sorry, I could not get a response right now. Please try again in a moment."
)

// TranscriptStore keeps the per-user chat transcript in memory. Append-only
// for the life of the process; restart clears it.
type TranscriptStore struct {
	mu     sync.RWMutex
	byUser map[string][]models.ChatMessage
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{byUser: make(map[string][]models.ChatMessage)}
}

func (t *TranscriptStore) Append(userID string, msg models.ChatMessage) {
	t.mu.Lock()
	t.byUser[userID] = append(t.byUser[userID], msg)
	t.mu.Unlock()
}

func (t *TranscriptStore) History(userID string) []models.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	msgs := t.byUser[userID]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// AssistantService talks to the generative-model API. Every Ask grows the
// transcript by exactly one user entry and one model entry — on failure the
// model entry is a synthetic apology, so the conversation always settles
// back to an interactive state.
type AssistantService struct {
	apiKey  string
	baseURL string
	model   string
	client  *resty.Client

	transcripts *TranscriptStore

	mu   sync.Mutex
	busy map[string]bool
}

func NewAssistantService(apiKey, baseURL, model string, transcripts *TranscriptStore) *AssistantService {
	return &AssistantService{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		client:      resty.New(),
		transcripts: transcripts,
		busy:        make(map[string]bool),
	}
}

func (s *AssistantService) Transcript(userID string) []models.ChatMessage {
	return s.transcripts.History(userID)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiTool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingAttributions []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingAttributions"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// Ask appends the user turn, sends the full transcript to the model and
// appends the reply. Only one request per user may be in flight; a second
// one is rejected with ErrAssistantBusy before touching the transcript.
func (s *AssistantService) Ask(ctx context.Context, userID, prompt string, stepAssessment bool) (models.ChatMessage, error) {
	s.mu.Lock()
	if s.busy[userID] {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrAssistantBusy
	}
	s.busy[userID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.busy, userID)
		s.mu.Unlock()
	}()

	s.transcripts.Append(userID, models.ChatMessage{Role: models.RoleUser, Text: prompt})

	reply, err := s.generate(ctx, userID, stepAssessment)
	if err != nil {
		log.Printf("Error calling model for %s: %v", userID, err)
		reply = models.ChatMessage{Role: models.RoleModel, Text: assistantErrorText}
	}

	s.transcripts.Append(userID, reply)
	return reply, nil
}

func (s *AssistantService) generate(ctx context.Context, userID string, stepAssessment bool) (models.ChatMessage, error) {
	instruction := wellnessInstruction
	if stepAssessment {
		instruction = coachingInstruction
	}

	history := s.transcripts.History(userID)
	contents := make([]geminiContent, 0, len(history))
	for _, msg := range history {
		contents = append(contents, geminiContent{
			Role:  msg.Role,
			Parts: []geminiPart{{Text: msg.Text}},
		})
	}

	reqBody := geminiRequest{
		Contents:          contents,
		Tools:             []geminiTool{{}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: instruction}}},
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)

	var parsed geminiResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&parsed).
		Post(u)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return models.ChatMessage{}, fmt.Errorf("model API error %d: %s", resp.StatusCode(), resp.String())
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return models.ChatMessage{}, errors.New("no content in model response")
	}

	cand := parsed.Candidates[0]
	reply := models.ChatMessage{
		Role: models.RoleModel,
		Text: cand.Content.Parts[0].Text,
	}
	for _, attr := range cand.GroundingMetadata.GroundingAttributions {
		if attr.Web.URI == "" {
			continue
		}
		reply.Sources = append(reply.Sources, models.ChatSource{URI: attr.Web.URI, Title: attr.Web.Title})
	}

	return reply, nil
}

// StepPrompt renders the synthetic user turn for a step assessment.
func StepPrompt(sc models.StepCount) string {
	if !sc.Measured {
		return fmt.Sprintf("My fitness tracker has no step data recorded for %s. What should I make of that?", sc.Date)
	}
	return fmt.Sprintf("I walked %d steps on %s. How did I do?", sc.Steps, sc.Date)
}
