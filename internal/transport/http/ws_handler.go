package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// WSHandler runs one quiz session per websocket connection. Closing the
// connection tears the session down; unfinished attempts are discarded.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type finishPayload struct {
	Confirm bool `json:"confirm"`
}

type autoAdvancePayload struct {
	Enabled bool `json:"enabled"`
}

type startedPayload struct {
	SessionID  string      `json:"sessionId"`
	Mode       domain.Mode `json:"mode"`
	QuizID     string      `json:"quizId"`
	QuizTitle  string      `json:"quizTitle"`
	CourseID   string      `json:"courseId"`
	CourseName string      `json:"courseName"`
	Total      int         `json:"total"`
	TimeLimit  int         `json:"timeLimit"`
}

type tickPayload struct {
	TimeRemaining int    `json:"timeRemaining"`
	Clock         string `json:"clock"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeQuiz starts a graded attempt of the quiz in the path.
func (h *WSHandler) ServeQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	params := h.service.Limits().ParseStartParams(domain.ModeQuiz, r.URL.Query())
	h.serve(w, r, func(ctx context.Context) (*app.Session, error) {
		return h.service.StartQuiz(ctx, quizID, params)
	})
}

// ServeMockTest starts a mock test over the course in the path.
func (h *WSHandler) ServeMockTest(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	params := h.service.Limits().ParseStartParams(domain.ModeMockTest, r.URL.Query())
	h.serve(w, r, func(ctx context.Context) (*app.Session, error) {
		return h.service.StartMockTest(ctx, courseID, params)
	})
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, start func(context.Context) (*app.Session, error)) {
	// Starting a session clears the previous result, so only real handshakes get that far.
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusBadRequest, "websocket upgrade required")
		return
	}
	session, err := start(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	defer h.service.End(session.ID())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "session_id", session.ID(), "error", err)
				// Unblock the read loop and drop whatever is still queued.
				conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	quiz, course := session.Quiz(), session.Course()
	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		SessionID:  session.ID(),
		Mode:       session.Mode(),
		QuizID:     quiz.ID,
		QuizTitle:  quiz.Title,
		CourseID:   course.ID,
		CourseName: course.Name,
		Total:      len(quiz.Questions),
		TimeLimit:  session.TimeLimit(),
	}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- eventMessage(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(session *app.Session, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid select payload")
		}
		return session.Select(payload.Option)
	case "next":
		return session.Next()
	case "back":
		return session.Back()
	case "finish":
		var payload finishPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return errors.New("invalid finish payload")
			}
		}
		return session.Finish(payload.Confirm)
	case "autoAdvance":
		var payload autoAdvancePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid autoAdvance payload")
		}
		return session.SetAutoAdvance(payload.Enabled)
	}
	return errors.New("unsupported message type")
}

func eventMessage(ev app.Event) outboundMessage[any] {
	switch ev.Type {
	case app.EventQuestion:
		return outboundMessage[any]{Type: ev.Type, Payload: ev.Question}
	case app.EventFinished:
		return outboundMessage[any]{Type: ev.Type, Payload: ev.Finished}
	}
	return outboundMessage[any]{Type: ev.Type, Payload: tickPayload{
		TimeRemaining: ev.TimeRemaining,
		Clock:         app.FormatClock(ev.TimeRemaining),
	}}
}
