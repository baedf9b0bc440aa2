package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/probegrid"
)

// Stream message types
const (
	MessageSegment  = "segment"
	MessageProgress = "progress"
	MessageConsole  = "console"
	MessageResult   = "result"
	MessageError    = "error"
)

// progressEvery is how often each pass reports progress on the stream
const progressEvery = 100

// Progress reports how far a pass has got
type Progress struct {
	Stage probegrid.Stage `json:"stage"`
	Done  int             `json:"done"`
	Total int             `json:"total"`
}

// StreamMessage is one websocket message of a segment stream
type StreamMessage struct {
	Type     string             `json:"type"`
	Segment  *probegrid.Segment `json:"segment,omitempty"`
	Progress *Progress          `json:"progress,omitempty"`
	Console  *ConsoleMessage    `json:"console,omitempty"`
	Result   *RunResponse       `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

var runCounter atomic.Uint64

// handleSegments runs a scene and streams every traced test segment over a
// websocket, followed by a final result message. The query takes the same
// fields as RunRequest: scene, bake and workers.
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := RunRequest{Scene: query.Get("scene"), Bake: query.Get("bake")}
	if workers := query.Get("workers"); workers != "" {
		if _, err := fmt.Sscanf(workers, "%d", &req.Workers); err != nil {
			writeError(w, http.StatusBadRequest, "invalid workers: "+workers)
			return
		}
	}
	cfg, err := s.configFor(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader goroutine: the client closing the socket cancels the run
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	out := make(chan StreamMessage, 1024)
	consoleChan := make(chan ConsoleMessage, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeStream(conn, out, consoleChan)
	}()

	send := func(msg StreamMessage) {
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	}

	runID := fmt.Sprintf("run-%d", runCounter.Add(1))
	logger := NewWebLogger(runID, s.logger, consoleChan)

	startTime := time.Now()
	job, err := cfg.Prepare(ctx, logger)
	if err != nil {
		send(StreamMessage{Type: MessageError, Error: err.Error()})
	} else {
		for _, g := range job.Groups {
			g.Settings.ShowSegments = true
		}
		job.Env.Segments = probegrid.SegmentFunc(func(start, end core.Vec3) {
			send(StreamMessage{Type: MessageSegment, Segment: &probegrid.Segment{Start: start, End: end}})
		})
		job.Env.Progress = func(stage probegrid.Stage, done, total int) {
			send(StreamMessage{Type: MessageProgress, Progress: &Progress{Stage: stage, Done: done, Total: total}})
		}
		job.Env.ProgressEvery = progressEvery

		results := job.Run(ctx, nil)
		response := summarize(job, results, startTime)
		send(StreamMessage{Type: MessageResult, Result: &response})
	}

	close(out)
	<-writerDone
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
}

// writeStream is the only goroutine that writes to conn. It returns once out
// is closed and drained, or the connection fails.
func (s *Server) writeStream(conn *websocket.Conn, out <-chan StreamMessage, consoleChan <-chan ConsoleMessage) {
	write := func(msg StreamMessage) error {
		b, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteMessage(websocket.TextMessage, b)
	}

	for {
		select {
		case console := <-consoleChan:
			if err := write(StreamMessage{Type: MessageConsole, Console: &console}); err != nil {
				drain(out)
				return
			}
		case msg, ok := <-out:
			if !ok {
				return
			}
			if err := write(msg); err != nil {
				drain(out)
				return
			}
		}
	}
}

// drain discards messages until out is closed so senders never block on a dead socket
func drain(out <-chan StreamMessage) {
	for range out {
	}
}
