package sqsqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// DeliveryCallback is the internal envelope for agent delivery
// callbacks. Keep it small; SQS has a 256KB message size limit.
type DeliveryCallback struct {
	EventID    string            `json:"eventId"`
	CampaignID string            `json:"campaignId"`
	Email      string            `json:"email"`
	Status     string            `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Payload    map[string]string `json:"payload,omitempty"`
	ReceivedAt time.Time         `json:"receivedAt"`
}

type Producer struct {
	SQS      *sqs.Client
	QueueURL string
}

func (p *Producer) Enqueue(ctx context.Context, ev DeliveryCallback) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: str(string(body)),
	})
	return err
}

func str(s string) *string { return &s }

type Handler func(ctx context.Context, ev DeliveryCallback) error

type Consumer struct {
	SQS      *sqs.Client
	QueueURL string

	WaitTimeSeconds   int32
	MaxMessages       int32
	VisibilityTimeout int32
}

// PollConcurrent processes delivery callbacks with a worker pool.
// Messages are deleted only after the handler completes; a failed
// handler leaves the message for SQS redrive/DLQ.
func (c *Consumer) PollConcurrent(ctx context.Context, workers int, handler Handler) error {
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan types.Message, workers*2)
	errCh := make(chan error, 1)

	sendErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				// Always handle poison / invalid messages so they don't loop forever
				if m.Body == nil {
					c.delete(ctx, m)
					continue
				}

				var ev DeliveryCallback
				if err := json.Unmarshal([]byte(*m.Body), &ev); err != nil {
					c.delete(ctx, m)
					continue
				}

				if err := handler(ctx, ev); err == nil {
					c.delete(ctx, m)
				} else {
					slog.Error("sqs delivery callback handler error", "err", err,
						"campaign_id", ev.CampaignID, "email", ev.Email, "status", ev.Status)
				}
			}
		}()
	}

	// Producer: fetch messages and enqueue for workers
	go func() {
		defer close(jobs)

		for {
			if ctx.Err() != nil {
				sendErr(ctx.Err())
				return
			}

			out, err := c.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            &c.QueueURL,
				MaxNumberOfMessages: c.MaxMessages,
				WaitTimeSeconds:     c.WaitTimeSeconds,
				VisibilityTimeout:   c.VisibilityTimeout,
			})
			if err != nil {
				slog.Error("sqs receive message failed", "err", err)
				time.Sleep(500 * time.Millisecond)
				continue
			}

			for _, m := range out.Messages {
				select {
				case jobs <- m:
				case <-ctx.Done():
					sendErr(ctx.Err())
					return
				}
			}
		}
	}()

	err := <-errCh

	// Let workers drain whatever is already in `jobs`
	wg.Wait()
	return err
}

func (c *Consumer) delete(ctx context.Context, m types.Message) {
	_, _ = c.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.QueueURL,
		ReceiptHandle: m.ReceiptHandle,
	})
}
