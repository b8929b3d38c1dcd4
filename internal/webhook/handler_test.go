package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/env0/claude-pr-reviewer/internal/config"
	"github.com/env0/claude-pr-reviewer/internal/session"
)

const secret = "s3cret"

type fakeDispatcher struct {
	dispatched []session.Params
	err        error
}

func (d *fakeDispatcher) Dispatch(p session.Params) error {
	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, p)
	return nil
}

func newHandler(d Dispatcher) *Handler {
	cfg := config.DefaultConfig()
	cfg.GitHub.WebhookSecret = secret
	cfg.GitHub.BotLogin = "ai-reviewer[bot]"
	return NewHandler(cfg, d, nil, log.New(io.Discard, "", 0))
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func deliver(t *testing.T, h *Handler, eventType string, payload any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(body))
	if mutate != nil {
		mutate(req)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func commentEvent(action, body string, isPR bool) map[string]any {
	issue := map[string]any{"number": 7}
	if isPR {
		issue["pull_request"] = map[string]any{"url": "https://api.github.com/repos/env0/api/pulls/7"}
	}
	return map[string]any{
		"action":     action,
		"issue":      issue,
		"comment":    map[string]any{"body": body},
		"repository": map[string]any{"name": "api", "owner": map[string]any{"login": "env0"}},
	}
}

func prEvent(action string, draft bool, reviewer string) map[string]any {
	e := map[string]any{
		"action":       action,
		"number":       7,
		"pull_request": map[string]any{"state": "open", "draft": draft},
		"repository":   map[string]any{"name": "api", "owner": map[string]any{"login": "env0"}},
	}
	if reviewer != "" {
		e["requested_reviewer"] = map[string]any{"login": reviewer}
	}
	return e
}

func TestBadSignatureRejectedBeforeParsing(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("created", "/review", true), func(r *http.Request) {
		r.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(make([]byte, 32)))
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestMissingSignatureRejected(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("created", "/review", true), func(r *http.Request) {
		r.Header.Del("X-Hub-Signature-256")
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTriggerCommandDispatches(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("created", "/review", true), nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, d.dispatched, 1)
	assert.Equal(t, session.Params{Owner: "env0", Repo: "api", Number: 7}, d.dispatched[0])
}

func TestTriggerCommandWithArguments(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("created", "  /review focus on security  ", true), nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, d.dispatched, 1)
}

func TestNonTriggerCommentIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	for _, body := range []string{"looks good", "/reviewing this later", "please /review"} {
		w := deliver(t, h, "issue_comment", commentEvent("created", body, true), nil)
		assert.Equal(t, http.StatusOK, w.Code, "body %q", body)
	}
	assert.Empty(t, d.dispatched)
}

func TestCommentOnPlainIssueIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("created", "/review", false), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestEditedCommentIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("edited", "/review", true), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestReadyForReviewDispatches(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "pull_request", prEvent("ready_for_review", false, ""), nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, d.dispatched, 1)
	assert.Equal(t, 7, d.dispatched[0].Number)
}

func TestReviewRequestedForBotDispatches(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "pull_request", prEvent("review_requested", false, "ai-reviewer[bot]"), nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, d.dispatched, 1)
}

func TestReviewRequestedForHumanIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "pull_request", prEvent("review_requested", false, "some-human"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestDraftPRIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "pull_request", prEvent("ready_for_review", true, ""), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestUnrelatedEventIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	w := deliver(t, h, "push", map[string]any{"ref": "refs/heads/main"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestMissingRepositoryRejected(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d)

	payload := commentEvent("created", "/review", true)
	delete(payload, "repository")
	w := deliver(t, h, "issue_comment", payload, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, d.dispatched)
}

func TestDispatchFailureReturns500(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("no capacity")}
	h := newHandler(d)

	w := deliver(t, h, "issue_comment", commentEvent("created", "/review", true), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
