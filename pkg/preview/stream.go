package preview

import (
	"context"
	"lps/pkg/fixed"
	"lps/pkg/logs"
	"lps/pkg/vm"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type streamHello struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	FPS     int    `json:"fps"`
	Returns string `json:"returns"`
}

// handleStream upgrades to a websocket, sends one JSON hello and then one
// binary RGBA frame per tick until the client goes away. Every connection
// runs its own VM over the shared program.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	prog, ok := s.program(w, r)
	if !ok {
		return
	}
	width, height, err := s.size(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	machine, err := vm.New(prog, s.opts.Limits, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer machine.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// a hijacked connection outlives the request context
	ctx, cancel := context.WithCancel(logs.WithProgram(s.base, r.PathValue("id")[:12]))
	defer cancel()
	// the read loop only watches for the close handshake
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	fps := max(1, s.opts.FPS)
	if err := conn.WriteJSON(streamHello{Width: width, Height: height, FPS: fps, Returns: prog.ReturnType().String()}); err != nil {
		return
	}
	s.logger.InfoContext(ctx, "stream started", "width", width, "height", height, "fps", fps)

	img := vm.NewImage(width, height, prog.ReturnType())
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	start := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			if s.base.Err() != nil {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			}
			s.logger.InfoContext(ctx, "stream closed", "frames", frames)
			return
		case now := <-ticker.C:
			s.render(ctx, machine, img, fixed.FromFloat(now.Sub(start).Seconds()))
			_ = conn.SetWriteDeadline(now.Add(time.Second))
			if err := conn.WriteMessage(websocket.BinaryMessage, img.RGBA8()); err != nil {
				s.logger.DebugContext(ctx, "stream write", "error", err)
				return
			}
			frames++
		}
	}
}
