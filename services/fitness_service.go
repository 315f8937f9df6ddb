package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"backend/models"
)

const (
	fitnessScope      = "https://www.googleapis.com/auth/fitness.activity.read"
	fitnessOAuthState = "healthmate-fit-connect"
	stepDataSource    = "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps"
	dayMillis         = 24 * 60 * 60 * 1000
)

var (
	ErrNotConnected = errors.New("fitness account not connected")
	ErrTokenExpired = errors.New("fitness token expired, reconnect required")
	ErrBadFragment  = errors.New("invalid redirect fragment")
)

// FitnessService handles the implicit-grant connection to Google Fit and
// the yesterday step aggregate. Tokens live only in memory; the provider
// enforces their ~1h validity.
type FitnessService struct {
	clientID    string
	redirectURL string
	baseURL     string
	client      *http.Client

	mu     sync.Mutex
	tokens map[string]string           // userID -> bearer token
	steps  map[string]models.StepCount // userID -> last successful fetch
}

func NewFitnessService(clientID, redirectURL, baseURL string) *FitnessService {
	return &FitnessService{
		clientID:    clientID,
		redirectURL: redirectURL,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
		tokens:      make(map[string]string),
		steps:       make(map[string]models.StepCount),
	}
}

// AuthURL builds the provider authorization URL the client should redirect
// to. The state token is a constant checked again on the way back.
func (s *FitnessService) AuthURL() string {
	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("redirect_uri", s.redirectURL)
	q.Set("response_type", "token")
	q.Set("scope", fitnessScope)
	q.Set("state", fitnessOAuthState)
	q.Set("include_granted_scopes", "true")
	return "https://accounts.google.com/o/oauth2/v2/auth?" + q.Encode()
}

// ParseRedirectFragment extracts the access token from an implicit-grant
// redirect fragment. Strict query parsing, key order does not matter; the
// token is accepted only when the echoed state equals the constant.
func ParseRedirectFragment(fragment string) (string, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return "", ErrBadFragment
	}
	if values.Get("state") != fitnessOAuthState {
		return "", ErrBadFragment
	}
	token := values.Get("access_token")
	if token == "" {
		return "", ErrBadFragment
	}
	return token, nil
}

// Connect stores the token carried by the redirect fragment for the user.
func (s *FitnessService) Connect(userID, fragment string) error {
	token, err := ParseRedirectFragment(fragment)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tokens[userID] = token
	s.mu.Unlock()
	return nil
}

func (s *FitnessService) Connected(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[userID]
	return ok
}

func (s *FitnessService) Disconnect(userID string) {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
}

// LastSteps returns the most recent successful fetch, if any.
func (s *FitnessService) LastSteps(userID string) (models.StepCount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.steps[userID]
	return sc, ok
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    bucketByTime  `json:"bucketByTime"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
	DataSourceID string `json:"dataSourceId"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateResponse struct {
	Bucket []struct {
		Dataset []struct {
			Point []struct {
				Value []struct {
					IntVal int64 `json:"intVal"`
				} `json:"value"`
			} `json:"point"`
		} `json:"dataset"`
	} `json:"bucket"`
}

// FetchYesterdaySteps asks the provider for the aggregated step total of the
// prior UTC calendar day. A 401 discards the held token and reports
// ErrTokenExpired without touching the cached count.
func (s *FitnessService) FetchYesterdaySteps(ctx context.Context, userID string) (models.StepCount, error) {
	s.mu.Lock()
	token, ok := s.tokens[userID]
	s.mu.Unlock()
	if !ok {
		return models.StepCount{}, ErrNotConnected
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.Add(-24 * time.Hour)

	payload, err := json.Marshal(aggregateRequest{
		AggregateBy: []aggregateBy{{
			DataTypeName: "com.google.step_count.delta",
			DataSourceID: stepDataSource,
		}},
		BucketByTime:    bucketByTime{DurationMillis: dayMillis},
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   end.UnixMilli(),
	})
	if err != nil {
		return models.StepCount{}, fmt.Errorf("marshal aggregate payload: %w", err)
	}

	u := s.baseURL + "/fitness/v1/users/me/dataset:aggregate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return models.StepCount{}, fmt.Errorf("create aggregate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.StepCount{}, fmt.Errorf("call fitness API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.StepCount{}, fmt.Errorf("read fitness response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		s.Disconnect(userID)
		return models.StepCount{}, ErrTokenExpired
	}
	if resp.StatusCode != http.StatusOK {
		return models.StepCount{}, fmt.Errorf("fitness API error %d: %s", resp.StatusCode, string(body))
	}

	var parsed aggregateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.StepCount{}, fmt.Errorf("parse fitness response: %w", err)
	}

	steps, measured := extractSteps(parsed)
	sc := models.StepCount{
		Steps:     steps,
		Date:      start.Format("2006-01-02"),
		Measured:  measured,
		FetchedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.steps[userID] = sc
	s.mu.Unlock()

	return sc, nil
}

// extractSteps walks the nested bucket/dataset/point/value structure and
// returns the first intVal found. measured is false when the window came
// back empty, so callers can tell "no data" from a confirmed zero.
func extractSteps(resp aggregateResponse) (steps int64, measured bool) {
	for _, b := range resp.Bucket {
		for _, ds := range b.Dataset {
			for _, p := range ds.Point {
				for _, v := range p.Value {
					return v.IntVal, true
				}
			}
		}
	}
	return 0, false
}
