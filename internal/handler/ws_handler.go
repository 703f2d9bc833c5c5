package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/response"
	"github.com/stemsi/exstem-local/internal/scoring"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/session"
	ws "github.com/stemsi/exstem-local/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // non-browser client, e.g. the terminal
			}
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the active session over a WebSocket: countdown ticks and
// end-of-exam events are pushed, and intents may be sent back.
type WSHandler struct {
	session  *service.ExamSessionService
	data     *service.DataService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(session *service.ExamSessionService, data *service.DataService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		session:  session,
		data:     data,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/session/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	if h.data.CurrentStudent() == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	events, cancel := h.session.Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go h.forward(conn, events, done)

	h.log.Info().Msg("Stream connected")

	// Greet with the current state so the client can render immediately.
	if v, err := h.session.View(); err == nil {
		_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Session: v})
	}

	for {
		req, err := conn.ReadRequest()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				h.log.Debug().Msg("Stream closed")
			}
			return
		}
		h.dispatch(c.Request.Context(), conn, req)
	}
}

// forward pushes session events to the client until the stream ends.
func (h *WSHandler) forward(conn *ws.Conn, events <-chan service.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteTyped(toWire(ev)); err != nil {
				h.log.Debug().Err(err).Msg("Push failed")
				return
			}
		}
	}
}

func toWire(ev service.Event) any {
	switch ev.Type {
	case service.EventTick:
		return ws.TickResponse{Event: ws.EventTick, Remaining: ev.Remaining, RemainingFormatted: ev.RemainingFormatted}
	case service.EventSubmitted, service.EventTimedOut:
		out := ws.FinishedResponse{Event: ws.EventSubmitted}
		if ev.Type == service.EventTimedOut {
			out.Event = ws.EventTimedOut
		}
		if ev.Attempt != nil {
			out.Attempt = *ev.Attempt
			out.Grade = scoring.GradeFor(ev.Attempt.Percentage)
		}
		return out
	default:
		return ws.ErrorResponse{Event: ws.EventError, Code: string(response.ErrInternal), Error: "unknown event " + string(ev.Type)}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, conn *ws.Conn, req ws.Request) {
	var (
		v   session.View
		err error
	)

	switch req.Action {
	case ws.ActionPing:
		_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		return
	case ws.ActionState:
		v, err = h.session.View()
	case ws.ActionAnswer:
		if req.OptionIndex == nil {
			_ = conn.WriteError(string(response.ErrValidation), "option_index is required")
			return
		}
		if req.QuestionID != "" {
			v, err = h.session.SelectAnswerFor(req.QuestionID, *req.OptionIndex)
		} else {
			v, err = h.session.SelectAnswer(*req.OptionIndex)
		}
	case ws.ActionNavigate:
		v, err = navigate(h.session, model.NavigateRequest{Direction: req.Direction, Index: req.Index})
	case ws.ActionFlag:
		if req.QuestionID != "" {
			v, err = h.session.ToggleFlagFor(req.QuestionID)
		} else {
			v, err = h.session.ToggleFlag()
		}
	case ws.ActionSubmit:
		// The submitted event reaches this client through the subscription.
		if _, err := h.session.Submit(ctx); err != nil {
			h.writeErr(conn, err)
		}
		return
	default:
		h.log.Warn().Str("action", string(req.Action)).Msg("Unknown action")
		_ = conn.WriteError(string(response.ErrUnknownWSAction), response.GetMessage(response.ErrUnknownWSAction))
		return
	}

	if err != nil {
		h.writeErr(conn, err)
		return
	}
	_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Session: v})
}

func (h *WSHandler) writeErr(conn *ws.Conn, err error) {
	_, code := Classify(err)
	if code == response.ErrInternal {
		h.log.Error().Err(err).Msg("Stream intent failed")
	}
	_ = conn.WriteError(string(code), response.GetMessage(code))
}
