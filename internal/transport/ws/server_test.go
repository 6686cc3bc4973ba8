package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mad-liquid/internal/sims/sandbox"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		ok   bool
	}{
		{"pour", `{"type":"add_liquid","x":3,"y":2,"amount":1.5}`, true},
		{"wall", `{"type":"set_cell","x":3,"y":2,"solid":true}`, true},
		{"reset", `{"type":"reset","seed":9}`, true},
		{"pause", `{"type":"pause"}`, true},
		{"unknown type", `{"type":"explode"}`, false},
		{"missing amount", `{"type":"add_liquid","x":3,"y":2}`, false},
		{"negative amount", `{"type":"add_liquid","x":3,"y":2,"amount":-1}`, false},
		{"fractional x", `{"type":"set_cell","x":1.5,"y":2,"solid":false}`, false},
		{"extra field", `{"type":"pause","speed":2}`, false},
		{"not json", `pause`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(tt.msg))
			if tt.ok && err != nil {
				t.Fatalf("DecodeCommand(%s) = %v", tt.msg, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidCommand) {
				t.Fatalf("DecodeCommand(%s) = %v, want ErrInvalidCommand", tt.msg, err)
			}
		})
	}

	cmd, err := DecodeCommand([]byte(`{"type":"add_liquid","x":4,"y":1,"amount":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if cmd.X != 4 || cmd.Y != 1 || cmd.Amount != 2 {
		t.Fatalf("decoded = %+v", cmd)
	}
}

type envelope struct {
	Type string `json:"type"`
}

func startServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	world := sandbox.New(10, 8)
	srv := NewServer(world, Options{TPS: 60, Paused: true})

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = srv.Run(ctx)
	}()
	hs := httptest.NewServer(srv.Mux())

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-loopDone
		hs.Close()
	})
	return srv, conn
}

func readUntil(t *testing.T, conn *websocket.Conn, wantType string) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Type == wantType {
			return msg
		}
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	var f Frame
	if err := json.Unmarshal(readUntil(t, conn, TypeFrame), &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func TestServerStreamsFramesAndAppliesEdits(t *testing.T) {
	srv, conn := startServer(t)

	first := readFrame(t, conn)
	if first.Width != 10 || first.Height != 8 || len(first.Cells) != 80 {
		t.Fatalf("initial frame = %dx%d with %d cells", first.Width, first.Height, len(first.Cells))
	}
	if !first.Paused || first.Tick != 0 {
		t.Fatalf("initial frame paused=%v tick=%d", first.Paused, first.Tick)
	}

	if err := conn.WriteJSON(Command{Type: TypeAddLiquid, X: 4, Y: 6, Amount: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := readFrame(t, conn)
	if f.Stats.TotalLiquid != 1 || f.Stats.Wet != 1 {
		t.Fatalf("stats after pour = %+v", f.Stats)
	}

	if err := conn.WriteJSON(Command{Type: TypeStep}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f = readFrame(t, conn)
	if f.Tick != 1 {
		t.Fatalf("tick after step = %d", f.Tick)
	}
	if st := srv.Status(); st.Tick != 1 || st.Clients != 1 {
		t.Fatalf("status = %+v", st)
	}

	if err := conn.WriteJSON(Command{Type: TypeSetCell, X: 0, Y: 3, Solid: false}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f = readFrame(t, conn)
	if f.Cells[3*10] != 1 {
		t.Fatal("border wall must survive remote edits")
	}
}

func TestServerRejectsInvalidCommand(t *testing.T) {
	_, conn := startServer(t)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"add_liquid","x":2}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg ErrorMsg
	if err := json.Unmarshal(readUntil(t, conn, TypeError), &msg); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !strings.Contains(msg.Error, ErrInvalidCommand.Error()) {
		t.Fatalf("error message = %q", msg.Error)
	}
}

func TestStatusHandler(t *testing.T) {
	srv := NewServer(sandbox.New(6, 5), Options{Paused: true})
	rec := httptest.NewRecorder()
	srv.StatusHandler()(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Paused || st.Tick != 0 {
		t.Fatalf("status = %+v", st)
	}

	rec = httptest.NewRecorder()
	srv.StatusHandler()(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status code = %d", rec.Code)
	}
}
