package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return &Client{BaseURL: srv.URL, AuthToken: "tok", HTTP: srv.Client()}, srv
}

func TestCreateAcceptsEitherIDKey(t *testing.T) {
	for _, body := range []string{`{"id":"cmp_9"}`, `{"campaignId":"cmp_9"}`} {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("missing bearer token, got %q", got)
			}
			w.Write([]byte(body))
		})
		id, err := c.Create(context.Background(), "s", "c")
		srv.Close()
		if err != nil {
			t.Fatalf("create with %s: %v", body, err)
		}
		if id != "cmp_9" {
			t.Fatalf("expected cmp_9, got %q", id)
		}
	}
}

func TestCreateRejectsMissingID(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	defer srv.Close()
	if _, err := c.Create(context.Background(), "s", "c"); err == nil {
		t.Fatal("expected an error when the response carries no id")
	}
}

func TestListCampaignsAcceptsBothShapes(t *testing.T) {
	shapes := []string{
		`[{"id":"cmp_1","subject":"A","category":"NEWSLETTER"}]`,
		`{"campaigns":[{"id":"cmp_1","subject":"A","category":"NEWSLETTER"}]}`,
	}
	for _, body := range shapes {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		got, err := c.ListCampaigns(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("list with %s: %v", body, err)
		}
		if len(got) != 1 || got[0].ID != "cmp_1" {
			t.Fatalf("unexpected records %+v", got)
		}
		if got[0].Category != "newsletter" {
			t.Fatalf("category must be normalized, got %q", got[0].Category)
		}
	}
}

func TestGetRecipientsWrapped(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/campaigns/cmp_1/getRecipients") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"recipients":[{"email":"a@x.com","status":"Delivered"}]}`))
	})
	defer srv.Close()

	got, err := c.GetRecipients(context.Background(), "cmp_1")
	if err != nil {
		t.Fatalf("get recipients: %v", err)
	}
	if len(got) != 1 || got[0].Status != "Delivered" {
		t.Fatalf("unexpected recipients %+v", got)
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"campaign already dispatched"}`))
	})
	defer srv.Close()

	err := c.Send(context.Background(), "cmp_1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "campaign already dispatched") {
		t.Fatalf("expected backend message in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "409") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	url := "https://hooks.example.com/v1/webhooks/agent/delivery"
	body := []byte(`{"eventId":"evt_1"}`)

	// Signature computed the way the agent computes it.
	good := signForTest(secret, url, body)
	if !VerifySignature(secret, url, good, body) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(secret, url, good, []byte(`{"eventId":"evt_2"}`)) {
		t.Fatal("signature must bind the body")
	}
	if VerifySignature(secret, "https://other.example.com/cb", good, body) {
		t.Fatal("signature must bind the URL")
	}
	if VerifySignature("wrong", url, good, body) {
		t.Fatal("signature must bind the secret")
	}
}
