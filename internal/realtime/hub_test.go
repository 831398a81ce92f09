package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testClient(cameraID uuid.UUID, id string) *Client {
	return &Client{
		ID:       id,
		CameraID: cameraID,
		send:     make(chan WSMessage, 64),
	}
}

func TestBroadcastReachesCameraWatchersOnly(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	camA := uuid.New()
	camB := uuid.New()

	watcherA := testClient(camA, "a1")
	watcherB := testClient(camB, "b1")
	hub.Register(watcherA)
	hub.Register(watcherB)

	hub.BroadcastToCamera(camA, EventAlertCreated, map[string]string{"alert_type": "spoof"})

	select {
	case msg := <-watcherA.send:
		if msg.Event != EventAlertCreated {
			t.Errorf("event = %q, want %q", msg.Event, EventAlertCreated)
		}
	default:
		t.Fatal("watcher on the camera received nothing")
	}
	select {
	case msg := <-watcherB.send:
		t.Errorf("watcher on another camera received %q", msg.Event)
	default:
	}
}

func TestBroadcastDuringWatcherChurn(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	cameraID := uuid.New()

	watcher := testClient(cameraID, "steady")
	hub.Register(watcher)
	defer hub.Unregister(watcher)

	// Keep the steady watcher's buffer from filling so deliveries keep
	// flowing while the room mutates.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range watcher.send {
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			c := testClient(cameraID, fmt.Sprintf("churn-%d", i))
			hub.Register(c)
			hub.Unregister(c)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			hub.BroadcastToCamera(cameraID, EventActivityCreated, map[string]int{"seq": i})
		}
	}()
	wg.Wait()

	close(watcher.send)
	<-drained

	if got := hub.WatcherCount(cameraID); got != 1 {
		t.Errorf("WatcherCount = %d, want 1", got)
	}
}
