package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const validFragment = "#access_token=ya29.test&token_type=Bearer&expires_in=3599&state=" + fitnessOAuthState

func TestParseRedirectFragment(t *testing.T) {
	t.Parallel()

	token, err := ParseRedirectFragment(validFragment)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if token != "ya29.test" {
		t.Fatalf("unexpected token %q", token)
	}

	// key order must not matter
	token, err = ParseRedirectFragment("#state=" + fitnessOAuthState + "&access_token=abc")
	if err != nil || token != "abc" {
		t.Fatalf("order-independent parse failed: token=%q err=%v", token, err)
	}
}

func TestParseRedirectFragmentRejectsBadState(t *testing.T) {
	t.Parallel()

	cases := []string{
		"#access_token=abc&state=evil",
		"#access_token=abc",
		"#state=" + fitnessOAuthState,
		"#access_token=abc&state=%zz",
	}
	for _, frag := range cases {
		if _, err := ParseRedirectFragment(frag); !errors.Is(err, ErrBadFragment) {
			t.Fatalf("fragment %q: expected ErrBadFragment, got %v", frag, err)
		}
	}
}

func newConnectedFitnessService(t *testing.T, baseURL string) *FitnessService {
	t.Helper()
	svc := NewFitnessService("client-id", "http://localhost/connected", baseURL)
	if err := svc.Connect("u1", validFragment); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return svc
}

func TestFetchYesterdayStepsParsesCount(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fitness/v1/users/me/dataset:aggregate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ya29.test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "bucket": [
    {"dataset": [{"point": [{"value": [{"intVal": 4321}]}]}]}
  ]
}`))
	}))
	defer ts.Close()

	svc := newConnectedFitnessService(t, ts.URL)

	sc, err := svc.FetchYesterdaySteps(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sc.Steps != 4321 || !sc.Measured {
		t.Fatalf("unexpected result: %+v", sc)
	}

	cached, ok := svc.LastSteps("u1")
	if !ok || cached.Steps != 4321 {
		t.Fatalf("expected cached count, got %+v ok=%v", cached, ok)
	}
}

func TestFetchYesterdayStepsEmptyBucketIsZeroUnmeasured(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bucket": []}`))
	}))
	defer ts.Close()

	svc := newConnectedFitnessService(t, ts.URL)

	sc, err := svc.FetchYesterdaySteps(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sc.Steps != 0 {
		t.Fatalf("expected 0 steps, got %d", sc.Steps)
	}
	if sc.Measured {
		t.Fatal("empty bucket should be reported as unmeasured")
	}
}

func TestFetchYesterdayStepsExpiredTokenClearsConnection(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	svc := newConnectedFitnessService(t, ts.URL)

	if _, err := svc.FetchYesterdaySteps(context.Background(), "u1"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if svc.Connected("u1") {
		t.Fatal("401 should discard the held token")
	}
	if _, ok := svc.LastSteps("u1"); ok {
		t.Fatal("failed fetch must not update the cached count")
	}

	// a retry now reports not-connected rather than calling the provider
	if _, err := svc.FetchYesterdaySteps(context.Background(), "u1"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after discard, got %v", err)
	}
}

func TestFetchYesterdayStepsServerErrorIsGenericFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := newConnectedFitnessService(t, ts.URL)

	_, err := svc.FetchYesterdaySteps(context.Background(), "u1")
	if err == nil || errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected a generic failure, got %v", err)
	}
	if !svc.Connected("u1") {
		t.Fatal("a non-401 failure must keep the token")
	}
}

func TestAuthURLCarriesScopeAndState(t *testing.T) {
	t.Parallel()

	svc := NewFitnessService("client-id", "http://localhost/connected", "https://www.googleapis.com")
	u := svc.AuthURL()

	if !strings.HasPrefix(u, "https://accounts.google.com/o/oauth2/v2/auth?") {
		t.Fatalf("unexpected endpoint: %s", u)
	}
	for _, want := range []string{"client_id=client-id", "response_type=token", "state=" + fitnessOAuthState} {
		if !strings.Contains(u, want) {
			t.Fatalf("auth URL missing %q: %s", want, u)
		}
	}
}
