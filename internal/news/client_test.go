package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchLatest_Envelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("token"); got != "key1" {
			t.Errorf("token = %q", got)
		}
		fmt.Fprint(w, `{"code":0,"data":[{"id":123,"title":"BTC突破","content":"正文","pub_time":1715000000,"tags":"行情","url":"https://example.com"}]}`)
	}))
	defer srv.Close()

	item, err := NewClient(srv.URL, "key1").FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if item == nil {
		t.Fatal("expected an item")
	}
	if item.ID != "123" {
		t.Errorf("numeric id should stringify, got %q", item.ID)
	}
	if item.PubTime != "1715000000" {
		t.Errorf("numeric pub_time should stringify, got %q", item.PubTime)
	}
	if len(item.Tags) != 1 || item.Tags[0] != "行情" {
		t.Errorf("string tags should become a one-element list, got %v", item.Tags)
	}
}

func TestFetchLatest_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"a1","title":"第一条","tags":["BTC","ETH"]},{"id":"a2"}]`)
	}))
	defer srv.Close()

	item, err := NewClient(srv.URL, "key1").FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if item == nil || item.ID != "a1" {
		t.Fatalf("expected first item of bare array, got %+v", item)
	}
	if len(item.Tags) != 2 {
		t.Errorf("tags = %v", item.Tags)
	}
}

func TestFetchLatest_EmptyAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":[]}`)
	}))
	defer srv.Close()
	item, err := NewClient(srv.URL, "k").FetchLatest(context.Background())
	if err != nil || item != nil {
		t.Errorf("empty feed should yield nil, nil; got %+v, %v", item, err)
	}

	srvErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":401,"message":"invalid key"}`)
	}))
	defer srvErr.Close()
	if _, err := NewClient(srvErr.URL, "k").FetchLatest(context.Background()); err == nil {
		t.Error("expected error for API-level error code")
	}

	srv500 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv500.Close()
	if _, err := NewClient(srv500.URL, "k").FetchLatest(context.Background()); err == nil {
		t.Error("expected error for HTTP 500")
	}
}
