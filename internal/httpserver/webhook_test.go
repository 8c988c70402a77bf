package httpserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"hradmin/internal/providers/agent"
	sqsqueue "hradmin/internal/queue/sqs"
)

type captureQueue struct {
	events []sqsqueue.DeliveryCallback
	err    error
}

func (q *captureQueue) Enqueue(ctx context.Context, ev sqsqueue.DeliveryCallback) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

func sign(secret, url string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(url))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newWebhook(q *captureQueue) *Webhook {
	return &Webhook{
		Queue:           q,
		VerifySignature: agent.VerifySignature,
		Secret:          "whsec_test",
		PublicURL:       "https://hooks.example.com/v1/webhooks/agent/delivery",
	}
}

func postDelivery(wh *Webhook, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/agent/delivery", bytes.NewReader(body))
	req.Header.Set("X-Agent-Signature", signature)
	rec := httptest.NewRecorder()
	wh.handleDelivery(rec, req)
	return rec
}

func TestWebhookEnqueuesSignedCallback(t *testing.T) {
	q := &captureQueue{}
	wh := newWebhook(q)

	body := []byte(`{"eventId":"evt_1","campaignId":"cmp_1","email":"a@x.com","status":"delivered"}`)
	rec := postDelivery(wh, body, sign(wh.Secret, wh.PublicURL, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.events) != 1 {
		t.Fatalf("expected one enqueued event, got %d", len(q.events))
	}
	ev := q.events[0]
	if ev.EventID != "evt_1" || ev.CampaignID != "cmp_1" || ev.Status != "delivered" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	q := &captureQueue{}
	wh := newWebhook(q)

	body := []byte(`{"eventId":"evt_1","campaignId":"cmp_1","email":"a@x.com","status":"delivered"}`)
	rec := postDelivery(wh, body, "not-a-signature")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(q.events) != 0 {
		t.Fatal("unsigned callback must not be enqueued")
	}
}

func TestWebhookRejectsIncompleteCallback(t *testing.T) {
	q := &captureQueue{}
	wh := newWebhook(q)

	body := []byte(`{"eventId":"evt_1","status":"delivered"}`)
	rec := postDelivery(wh, body, sign(wh.Secret, wh.PublicURL, body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookSynthesizesMissingEventID(t *testing.T) {
	q := &captureQueue{}
	wh := newWebhook(q)

	body := []byte(`{"campaignId":"cmp_1","email":"a@x.com","status":"bounced"}`)
	rec := postDelivery(wh, body, sign(wh.Secret, wh.PublicURL, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(q.events) != 1 || q.events[0].EventID == "" {
		t.Fatalf("expected a synthesized event id, got %+v", q.events)
	}
}
