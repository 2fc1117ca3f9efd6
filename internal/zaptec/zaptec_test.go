package zaptec_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/ladeflyt/grunnlag/internal/zaptec"
)

func TestAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			t.Errorf("unexpected path: %v", r.URL.Path)
		}

		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}

		if r.PostForm.Get("grant_type") != "password" {
			t.Errorf("unexpected grant_type: %v", r.PostForm.Get("grant_type"))
		}

		if r.PostForm.Get("username") != "jane" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fmt.Fprint(w, `{"access_token": "token-123"}`)
	}))
	defer server.Close()

	client := New(server.URL)

	token, err := client.Authenticate(context.Background(), "jane", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if token != "token-123" {
		t.Fatalf("unexpected token: %v", token)
	}

	_, err = client.Authenticate(context.Background(), "jane", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestInstallationsPagination(t *testing.T) {
	pages := []string{
		`{"Pages": 2, "Data": [{"Id": "a", "Name": "Garage"}]}`,
		`{"Pages": 2, "Data": [{"Id": "b", "Name": "Carport"}]}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/installation" {
			t.Errorf("unexpected path: %v", r.URL.Path)
		}

		if auth := r.Header.Get("Authorization"); auth != "Bearer token-123" {
			t.Errorf("unexpected authorization header: %v", auth)
		}

		if size := r.URL.Query().Get("PageSize"); size != "100" {
			t.Errorf("unexpected page size: %v", size)
		}

		switch r.URL.Query().Get("PageIndex") {
		case "0":
			fmt.Fprint(w, pages[0])
		case "1":
			fmt.Fprint(w, pages[1])
		default:
			t.Errorf("unexpected page index: %v", r.URL.Query().Get("PageIndex"))
		}
	}))
	defer server.Close()

	client := New(server.URL)

	installations, err := client.Installations(context.Background(), "token-123")
	if err != nil {
		t.Fatal(err)
	}

	expect := []Installation{
		{ID: "a", Name: "Garage"},
		{ID: "b", Name: "Carport"},
	}

	if diff := cmp.Diff(expect, installations); diff != "" {
		t.Fatal(diff)
	}
}

func TestChargeHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("InstallationId") != "inst-1" {
			t.Errorf("unexpected installation id: %v", query.Get("InstallationId"))
		}
		if query.Get("From") != "2023-02-01T00:00:00Z" {
			t.Errorf("unexpected from: %v", query.Get("From"))
		}
		if query.Get("To") != "2023-03-01T00:00:00Z" {
			t.Errorf("unexpected to: %v", query.Get("To"))
		}
		if query.Get("DetailLevel") != "1" {
			t.Errorf("unexpected detail level: %v", query.Get("DetailLevel"))
		}

		fmt.Fprint(w, `{
			"Pages": 1,
			"Data": [
				{
					"Id": "s1",
					"DeviceName": "Charger 1",
					"StartDateTime": "2023-02-03T17:00:00+00:00",
					"EndDateTime": "2023-02-03T19:30:00+00:00",
					"Energy": 12.345
				}
			]
		}`)
	}))
	defer server.Close()

	client := New(server.URL)

	from := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	sessions, err := client.ChargeHistory(context.Background(), "token-123", "inst-1", from, to)
	if err != nil {
		t.Fatal(err)
	}

	expect := []ChargeSession{
		{
			ID:            "s1",
			DeviceName:    "Charger 1",
			StartDateTime: "2023-02-03T17:00:00+00:00",
			EndDateTime:   "2023-02-03T19:30:00+00:00",
			Energy:        12.345,
		},
	}

	if diff := cmp.Diff(expect, sessions); diff != "" {
		t.Fatal(diff)
	}
}

func TestChargeHistoryUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL)

	_, err := client.ChargeHistory(
		context.Background(),
		"expired",
		"inst-1",
		time.Now().Add(-time.Hour),
		time.Now(),
	)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestInstallationsRetriesServerErrors(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"Pages": 1, "Data": [{"Id": "a", "Name": "Garage"}]}`)
	}))
	defer server.Close()

	client := New(server.URL)

	installations, err := client.Installations(context.Background(), "token-123")
	if err != nil {
		t.Fatal(err)
	}

	if calls < 2 {
		t.Fatalf("expected a retry, got %v calls", calls)
	}

	if len(installations) != 1 {
		t.Fatalf("expected 1 installation, got %v", len(installations))
	}
}
