// Package webhook authenticates inbound platform events and decides which
// of them should start a review session. Signature validation happens over
// the raw body before any payload is parsed.
package webhook

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/go-github/v71/github"

	"github.com/env0/claude-pr-reviewer/internal/config"
	"github.com/env0/claude-pr-reviewer/internal/metrics"
	"github.com/env0/claude-pr-reviewer/internal/session"
)

// Dispatcher hands a validated trigger off to an isolated review session
// and returns immediately
type Dispatcher interface {
	Dispatch(p session.Params) error
}

// Handler is the webhook endpoint
type Handler struct {
	secret     []byte
	trigger    string
	botLogin   string
	dispatcher Dispatcher
	recorder   *metrics.Recorder
	logger     *log.Logger
}

// NewHandler creates the webhook Handler
func NewHandler(cfg *config.Config, dispatcher Dispatcher, recorder *metrics.Recorder, logger *log.Logger) *Handler {
	return &Handler{
		secret:     []byte(cfg.GitHub.WebhookSecret),
		trigger:    cfg.Review.TriggerCommand,
		botLogin:   cfg.GitHub.BotLogin,
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     logger,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respond(w, http.StatusBadRequest, "unreadable body")
		return
	}

	// Constant-time HMAC check before the payload is parsed. A missing
	// signature fails the same way as a bad one.
	sig := r.Header.Get("X-Hub-Signature-256")
	if err := github.ValidateSignature(sig, body, h.secret); err != nil {
		h.recorder.ObserveWebhook("unauthorized")
		h.respond(w, http.StatusUnauthorized, "bad signature")
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), body)
	if err != nil {
		h.recorder.ObserveWebhook("malformed")
		h.respond(w, http.StatusBadRequest, "unparseable payload")
		return
	}

	params, ok := h.classify(event)
	if !ok {
		h.recorder.ObserveWebhook("ignored")
		h.respond(w, http.StatusOK, "ignored")
		return
	}
	if params.Owner == "" || params.Repo == "" || params.Number == 0 {
		h.recorder.ObserveWebhook("malformed")
		h.respond(w, http.StatusBadRequest, "missing repository or PR number")
		return
	}

	if err := h.dispatcher.Dispatch(params); err != nil {
		h.logger.Printf("dispatch failed for %s: %v", params, err)
		h.recorder.ObserveWebhook("error")
		h.respond(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	h.logger.Printf("dispatched review session for %s", params)
	h.recorder.ObserveWebhook("accepted")
	h.respond(w, http.StatusAccepted, "review dispatched")
}

// classify decides whether an authenticated event should start a review.
// Everything not matching a trigger is a no-op.
func (h *Handler) classify(event any) (session.Params, bool) {
	switch e := event.(type) {
	case *github.IssueCommentEvent:
		if e.GetAction() != "created" {
			return session.Params{}, false
		}
		// Only comments on issues that are pull requests
		if !e.GetIssue().IsPullRequest() {
			return session.Params{}, false
		}
		if !h.isTriggerCommand(e.GetComment().GetBody()) {
			return session.Params{}, false
		}
		return session.Params{
			Owner:  e.GetRepo().GetOwner().GetLogin(),
			Repo:   e.GetRepo().GetName(),
			Number: e.GetIssue().GetNumber(),
		}, true

	case *github.PullRequestEvent:
		pr := e.GetPullRequest()
		if pr.GetState() != "open" || pr.GetDraft() {
			return session.Params{}, false
		}
		switch e.GetAction() {
		case "review_requested":
			if !h.isBot(e.GetRequestedReviewer().GetLogin()) {
				return session.Params{}, false
			}
		case "ready_for_review":
		default:
			return session.Params{}, false
		}
		return session.Params{
			Owner:  e.GetRepo().GetOwner().GetLogin(),
			Repo:   e.GetRepo().GetName(),
			Number: e.GetNumber(),
		}, true
	}
	return session.Params{}, false
}

// isTriggerCommand matches the exact command or the command followed by
// arguments, nothing looser
func (h *Handler) isTriggerCommand(body string) bool {
	body = strings.TrimSpace(body)
	return body == h.trigger || strings.HasPrefix(body, h.trigger+" ")
}

func (h *Handler) isBot(login string) bool {
	if login == "" {
		return false
	}
	return login == h.botLogin || login+"[bot]" == h.botLogin
}

func (h *Handler) respond(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	fmt.Fprintln(w, msg)
}
