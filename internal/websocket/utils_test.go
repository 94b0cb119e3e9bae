package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gws "github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return client
}

// The tick loop and the read loop write to the same connection from
// different goroutines; gorilla allows one writer at a time, so the
// wrapper must serialize them.
func TestConcurrentWritersSerialized(t *testing.T) {
	const perWriter = 50
	upgrader := gws.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := Wrap(raw)
		defer conn.Close()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := conn.WriteTyped(TickResponse{Event: EventTick, SecondsLeft: i, Running: true}); err != nil {
					t.Errorf("tick write %d: %v", i, err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := conn.WriteTyped(PongResponse{Event: EventPong}); err != nil {
					t.Errorf("pong write %d: %v", i, err)
					return
				}
			}
		}()
		wg.Wait()
	}))
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	for i := 0; i < 2*perWriter; i++ {
		var msg struct {
			Event Event `json:"event"`
		}
		if err := client.ReadJSON(&msg); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if msg.Event != EventTick && msg.Event != EventPong {
			t.Fatalf("read %d: unexpected event %q", i, msg.Event)
		}
	}
}

func TestReadMessageRoundTrip(t *testing.T) {
	upgrader := gws.Upgrader{}
	echoed := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := Wrap(raw)
		defer conn.Close()

		frame, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read: %v", err)
			return
		}
		echoed <- frame
	}))
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	if err := client.WriteJSON(RequestEnvelope{Action: ActionPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := <-echoed
	if !strings.Contains(string(frame), string(ActionPing)) {
		t.Fatalf("frame %q does not carry the action", frame)
	}
}
