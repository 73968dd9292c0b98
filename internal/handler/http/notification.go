package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	MarkRead(w http.ResponseWriter, r *http.Request)
	SSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
	keepalive    time.Duration
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
		keepalive:    30 * time.Second,
	}
}

// List returns one page of the caller's inbox.
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	q := query(r)
	result, err := h.notifService.List(r.Context(), userID, notification.ListQuery{
		Page:       q.intOr("page", 1),
		PageSize:   q.intOr("page_size", notification.DefaultPageSize),
		UnreadOnly: q.boolOr("unread_only", false),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *notificationHandlerImpl) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req notification.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	updated, err := h.notifService.MarkRead(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Notifications marked as read", notification.MarkReadResponse{Updated: updated})
}

// SSEToken issues the short-lived token that Stream accepts.
func (h *notificationHandlerImpl) SSEToken(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		slog.Error("Failed to sign SSE token", "user_id", userID, "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, notification.SSETokenResponse{Token: token, ExpiresIn: expiresIn})
}

// Stream pushes notifications to the user named by the SSE token. The token
// travels as a query parameter because EventSource cannot set headers.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.Unauthorized(w, "Missing token")
		return
	}
	userID, err := h.jwtService.ValidateSSEToken(token)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		response.InternalServerError(w, err.Error())
		return
	}

	events, unsubscribe := h.notifService.Subscribe(r.Context(), userID)
	defer unsubscribe()

	stream.send("connected", map[string]string{"status": "connected", "user_id": userID})

	ping := time.NewTicker(h.keepalive)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			stream.send(ev.Name, ev.Data)
		case t := <-ping.C:
			stream.send("ping", map[string]int64{"timestamp": t.Unix()})
		case <-r.Context().Done():
			return
		}
	}
}

// eventStream writes text/event-stream frames and flushes after each one.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

func (s *eventStream) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to encode SSE payload", "event", event, "error", err)
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data)
	s.flusher.Flush()
}
