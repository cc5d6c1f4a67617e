package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stillwaterhq/stillwater/internal/logging"
)

func TestHTTP_TrackPostsEvent(t *testing.T) {
	received := make(chan event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var e event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- e
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink := NewHTTP(server.URL, "test-key", logging.New("analytics-test"))
	sink.Track(context.Background(), "sign_in_completed", map[string]interface{}{"provider": "google"})

	e := <-received
	if e.Event != "sign_in_completed" {
		t.Fatalf("event = %q", e.Event)
	}
	if e.Properties["provider"] != "google" {
		t.Fatalf("properties = %v", e.Properties)
	}
}

func TestHTTP_TrackSwallowsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewHTTP(server.URL, "", logging.New("analytics-test"))
	// Must not panic or propagate anything.
	sink.Track(context.Background(), "sign_in_completed", nil)
}

func TestHTTP_TrackSwallowsNetworkErrors(t *testing.T) {
	sink := NewHTTP("http://127.0.0.1:1", "", logging.New("analytics-test"))
	sink.Track(context.Background(), "sign_in_completed", nil)
}

func TestNewHTTP_EmptyEndpointIsNoop(t *testing.T) {
	sink := NewHTTP("", "", logging.New("analytics-test"))
	if _, ok := sink.(Noop); !ok {
		t.Fatalf("sink = %T, want Noop", sink)
	}
	sink.Track(context.Background(), "anything", nil)
}
