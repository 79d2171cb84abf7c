package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/user/tagrelease/internal/database"
	"github.com/user/tagrelease/internal/logger"
	"github.com/user/tagrelease/pkg/release"
)

const (
	maxBodyBytes = 5 << 20
	defaultLimit = 50
	zeroSHA      = "0000000000000000000000000000000000000000"
)

type HistoryLister interface {
	ListAttempts(ctx context.Context, f database.ListFilter) ([]database.Attempt, error)
}

type Options struct {
	Secret   string
	Verifier TokenVerifier
	Queue    *Queue
	History  HistoryLister
	Logger   *zerolog.Logger
}

type Server struct {
	secret   []byte
	verifier TokenVerifier
	queue    *Queue
	history  HistoryLister
	log      *zerolog.Logger
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	return &Server{
		secret:   []byte(opts.Secret),
		verifier: opts.Verifier,
		queue:    opts.Queue,
		history:  opts.History,
		log:      log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.withBearer(s.handlePush))
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/attempts", s.handleAttempts)
	return mux
}

type pushPayload struct {
	Ref     string `json:"ref"`
	After   string `json:"after"`
	Deleted bool   `json:"deleted"`

	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var provider, event, signature string
	switch {
	case r.Header.Get("X-Gitea-Event") != "":
		provider = "gitea"
		event = r.Header.Get("X-Gitea-Event")
		signature = r.Header.Get("X-Gitea-Signature")
	case r.Header.Get("X-GitHub-Event") != "":
		provider = "github"
		event = r.Header.Get("X-GitHub-Event")
		signature = strings.TrimPrefix(r.Header.Get("X-Hub-Signature-256"), "sha256=")
	default:
		http.Error(w, "unsupported webhook event", http.StatusBadRequest)
		return
	}

	if len(s.secret) > 0 && (signature == "" || !verifySignature(body, s.secret, signature)) {
		s.log.Warn().Str("provider", provider).Msg("Webhook signature rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	switch event {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
		return
	case "push":
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "event " + event})
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if !strings.HasPrefix(payload.Ref, "refs/tags/") {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "not a tag push"})
		return
	}
	if payload.Deleted || payload.After == zeroSHA {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "tag deleted"})
		return
	}

	ev := release.Event{
		Tag:        strings.TrimPrefix(payload.Ref, "refs/tags/"),
		Repository: payload.Repository.FullName,
		Ref:        payload.Ref,
		CommitSHA:  payload.After,
	}

	job, err := s.queue.Enqueue(Job{Provider: provider, Events: []release.Event{ev}})
	if err != nil {
		s.log.Error().Err(err).Str("tag", ev.Tag).Msg("Dropping tag push")
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrQueueClosed) {
			status = http.StatusGone
		}
		http.Error(w, err.Error(), status)
		return
	}

	s.log.Info().
		Str("job", job.ID).
		Str("provider", provider).
		Str("tag", ev.Tag).
		Str("commit", ev.CommitSHA).
		Msg("Tag push queued")

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "queued",
		"id":     job.ID,
		"tag":    ev.Tag,
	})
}

func (s *Server) withBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := s.verifier.Verify(r.Context(), raw); err != nil {
			s.log.Warn().Err(err).Msg("Bearer token rejected")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is not enabled", http.StatusNotFound)
		return
	}

	filter := database.ListFilter{
		Package: r.URL.Query().Get("package"),
		Status:  r.URL.Query().Get("status"),
		Limit:   defaultLimit,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	attempts, err := s.history.ListAttempts(r.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("Listing attempts failed")
		http.Error(w, "failed to list attempts", http.StatusInternalServerError)
		return
	}
	if attempts == nil {
		attempts = []database.Attempt{}
	}

	writeJSON(w, http.StatusOK, attempts)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func verifySignature(payload, secret []byte, signature string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
