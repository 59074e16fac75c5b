// Package api provides the REST and streaming endpoints of the chat platform.
//
//	@title						Chat Platform API
//	@version					1.0
//	@description				Conversational sessions with streamed answers.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/txn2/chat-platform/pkg/analytics"
	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
	"github.com/txn2/chat-platform/pkg/feedback"
	mwhttp "github.com/txn2/chat-platform/pkg/http"
	"github.com/txn2/chat-platform/pkg/user"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

// DefaultHeartbeat is the interval between SSE keepalive comments.
const DefaultHeartbeat = 15 * time.Second

// Accounts handles registration and login.
type Accounts interface {
	SignUp(ctx context.Context, in user.SignUpInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.LoginResult, error)
}

// Conversations answers questions and manages threads.
type Conversations interface {
	Ask(ctx context.Context, caller auth.Identity, question, model string) (*chat.Exchange, error)
	AskStream(ctx context.Context, caller auth.Identity, question, model string) (int64, <-chan chat.Event, error)
	ListThreads(ctx context.Context, caller auth.Identity, q chat.PageQuery) (*chat.ThreadPage, error)
	DeleteThread(ctx context.Context, caller auth.Identity, threadID int64) error
}

// Ratings manages feedback.
type Ratings interface {
	Create(ctx context.Context, caller auth.Identity, exchangeID int64, positive bool) (*feedback.Feedback, error)
	List(ctx context.Context, caller auth.Identity, q feedback.Query) (*feedback.Page, error)
	UpdateStatus(ctx context.Context, caller auth.Identity, id int64, status feedback.Status) (*feedback.Feedback, error)
}

// Reports produces admin analytics.
type Reports interface {
	Stats(ctx context.Context, caller auth.Identity) (*analytics.DailyStats, error)
	WriteReport(ctx context.Context, caller auth.Identity, w io.Writer) error
}

// Deps holds the services behind the API.
type Deps struct {
	Accounts      Accounts
	Conversations Conversations
	Ratings       Ratings
	Reports       Reports
	Authenticator auth.Authenticator

	// Heartbeat overrides DefaultHeartbeat.
	Heartbeat time.Duration
}

// Handler serves the API.
type Handler struct {
	mux       *http.ServeMux
	deps      Deps
	heartbeat time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		mux:       http.NewServeMux(),
		deps:      deps,
		heartbeat: deps.Heartbeat,
	}
	if h.heartbeat <= 0 {
		h.heartbeat = DefaultHeartbeat
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all API routes.
func (h *Handler) registerRoutes() {
	authed := func(fn http.HandlerFunc) http.Handler {
		return mwhttp.RequireAuth(h.deps.Authenticator)(fn)
	}

	if h.deps.Accounts != nil {
		h.mux.HandleFunc("POST "+BasePath+"/auth/signup", h.signUp)
		h.mux.HandleFunc("POST "+BasePath+"/auth/login", h.login)
	}
	if h.deps.Conversations != nil {
		h.mux.Handle("POST "+BasePath+"/chats", authed(h.ask))
		h.mux.Handle("GET "+BasePath+"/chats/threads", authed(h.listThreads))
		h.mux.Handle("DELETE "+BasePath+"/chats/threads/{id}", authed(h.deleteThread))
	}
	if h.deps.Ratings != nil {
		h.mux.Handle("POST "+BasePath+"/feedbacks", authed(h.createFeedback))
		h.mux.Handle("GET "+BasePath+"/feedbacks", authed(h.listFeedback))
		h.mux.Handle("PATCH "+BasePath+"/feedbacks/{id}/status", authed(h.updateFeedbackStatus))
	}
	if h.deps.Reports != nil {
		h.mux.Handle("GET "+BasePath+"/analytics/activity", authed(h.activityStats))
		h.mux.Handle("GET "+BasePath+"/analytics/report", authed(h.report))
	}
}

// caller returns the authenticated identity placed by RequireAuth.
func caller(r *http.Request) (auth.Identity, error) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return *id, nil
}
