package handlers

import (
	"testing"

	"go.uber.org/zap"

	"iot-anomaly-engine/models"
)

func TestStreamHubBroadcast(t *testing.T) {
	hub := NewStreamHub(zap.NewNop())

	id, ch := hub.subscribe()
	defer hub.unsubscribe(id)

	hub.Broadcast(models.DetectionSummary{SnapshotID: "run-1", TotalPoints: 3})

	select {
	case got := <-ch:
		if got.SnapshotID != "run-1" {
			t.Fatalf("got snapshot %q, want run-1", got.SnapshotID)
		}
	default:
		t.Fatal("subscriber did not receive the summary")
	}
}

func TestStreamHubDropsSlowSubscriber(t *testing.T) {
	hub := NewStreamHub(zap.NewNop())

	id, _ := hub.subscribe()
	defer hub.unsubscribe(id)

	// переполняем буфер подписчика: рассылка не должна блокироваться
	for i := 0; i < 100; i++ {
		hub.Broadcast(models.DetectionSummary{TotalPoints: i})
	}
}

func TestStreamHubUnsubscribe(t *testing.T) {
	hub := NewStreamHub(zap.NewNop())

	id, ch := hub.subscribe()
	hub.unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatal("channel must be closed after unsubscribe")
	}

	// повторная отписка безопасна
	hub.unsubscribe(id)
}
