//go:build integration

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/launchdeck/launchdeck/internal/testutil"
)

func TestIntegrationAMQP_PublishRoutesByType(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	url := testutil.RequireEnv(t, "AMQP_URL")
	exchange := fmt.Sprintf("launchdeck.test.%d", time.Now().UnixNano())

	pub, err := NewAMQP(url, exchange)
	if err != nil {
		t.Fatalf("NewAMQP: %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })

	// A separate connection consumes what the publisher sends.
	conn, err := amqp.Dial(url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	t.Cleanup(func() { _ = ch.ExchangeDelete(exchange, false, false) })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("queue declare: %v", err)
	}
	if err := ch.QueueBind(q.Name, TypeTripBooked, exchange, false, nil); err != nil {
		t.Fatalf("queue bind: %v", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	ctx := context.Background()
	if err := pub.Publish(ctx, Event{Type: TypeTripCancelled, UserID: "u1", LaunchID: 1, OccurredAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Publish cancelled: %v", err)
	}
	if err := pub.Publish(ctx, Event{Type: TypeTripBooked, UserID: "u1", LaunchID: 2, OccurredAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Publish booked: %v", err)
	}

	select {
	case d := <-deliveries:
		if d.RoutingKey != TypeTripBooked || d.ContentType != "application/json" {
			t.Errorf("unexpected delivery: key=%s type=%s", d.RoutingKey, d.ContentType)
		}
		var got Event
		if err := json.Unmarshal(d.Body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.LaunchID != 2 {
			t.Errorf("expected only the booked event to be routed, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery received")
	}
}
