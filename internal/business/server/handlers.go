package server

import (
	"context"
	"encoding/json"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pawskey/ceremony-manager/internal/ceremony"
	"github.com/pawskey/ceremony-manager/internal/config"
	"github.com/pawskey/ceremony-manager/internal/middleware/responsewriter"
	"github.com/pawskey/ceremony-manager/internal/serviceerr"
	"github.com/pawskey/ceremony-manager/internal/session"
	"github.com/pawskey/ceremony-manager/pkg/csrf"
	"github.com/pawskey/ceremony-manager/pkg/fingerprint"
)

const sessionCookieName = "pawskey_session"

// Handler serves the public ceremony API.
type Handler struct {
	cfg     *config.Config
	manager *ceremony.Manager
	session *session.State
	csrfKey []byte
}

func NewHandler(cfg *config.Config, manager *ceremony.Manager, sess *session.State, csrfKey []byte) *Handler {
	return &Handler{
		cfg:     cfg,
		manager: manager,
		session: sess,
		csrfKey: csrfKey,
	}
}

func (h *Handler) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/registration", withOperation(h.cfg, "registration", h.registration))
	mux.HandleFunc("POST /v1/authentication", withOperation(h.cfg, "authentication", h.authentication))
	mux.HandleFunc("POST /v1/logout", withOperation(h.cfg, "logout", h.logout))
	mux.HandleFunc("GET /v1/session", withOperation(h.cfg, "session", h.sessionInfo))
	mux.HandleFunc("GET /ping", withOperation(h.cfg, "ping", h.ping))
}

type registrationRequest struct {
	UserName string `json:"userName"`
}

type ceremonyResponse struct {
	Outcome    string          `json:"outcome"`
	Credential json.RawMessage `json:"credential,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Message    string          `json:"message,omitempty"`
	Retryable  bool            `json:"retryable,omitempty"`
	CSRFToken  string          `json:"csrfToken,omitempty"`
}

type sessionResponse struct {
	SignedIn bool   `json:"signedIn"`
	Method   string `json:"method"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"errorDescription,omitempty"`
}

func (h *Handler) registration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, serviceerr.New(serviceerr.CodeInvalidRequest, "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	result, err := h.manager.SignUp(ctx, body.UserName)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.writeResult(ctx, w, result)
}

func (h *Handler) authentication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.manager.SignIn(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.writeResult(ctx, w, result)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.Header.Get("X-CSRF-Token")
	if !csrf.Validate(token, h.session.Snapshot().SessionID, h.csrfKey) {
		writeServiceError(ctx, w, serviceerr.ErrInvalidCSRFToken)
		return
	}

	if fp, err := fingerprint.ExtractFingerprint(ctx); err == nil {
		if recorded := h.session.Snapshot().Fingerprint; recorded != "" && fp != recorded {
			slogctx.Warn(ctx, "logout from a different client fingerprint")
		}
	}

	if err := h.manager.Logout(ctx); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"result": "ping"})
}

func (h *Handler) sessionInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{
		SignedIn: h.session.IsSignedIn(),
		Method:   string(h.session.CurrentMethod()),
	})
}

// writeResult renders a terminal ceremony outcome. A dismissed prompt
// is reported as a distinct outcome with no error payload.
func (h *Handler) writeResult(ctx context.Context, w http.ResponseWriter, result ceremony.Result) {
	if result.Succeeded() {
		token := csrf.NewToken(h.session.Snapshot().SessionID, h.csrfKey)
		writeJSON(w, http.StatusOK, ceremonyResponse{
			Outcome:    "succeeded",
			Credential: json.RawMessage(result.Credential),
			CSRFToken:  token,
		})

		return
	}

	failure := *result.Failure
	if !failure.Surfaced() {
		writeJSON(w, http.StatusOK, ceremonyResponse{Outcome: "cancelled"})
		return
	}

	slogctx.Warn(ctx, "ceremony failed",
		"kind", string(failure.Kind),
		"retryable", failure.Retryable,
	)
	writeJSON(w, http.StatusOK, ceremonyResponse{
		Outcome:   "failed",
		Kind:      string(failure.Kind),
		Message:   failure.Message,
		Retryable: failure.Retryable,
	})
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	writeError(ctx, w, serviceerr.FromError(err))
}

func writeError(ctx context.Context, w http.ResponseWriter, serr *serviceerr.Error) {
	if serr.HTTPStatus() >= http.StatusInternalServerError {
		slogctx.Error(ctx, "request failed", "error", serr)
	}

	writeJSON(w, serr.HTTPStatus(), errorResponse{
		Error:            string(serr.Err),
		ErrorDescription: serr.Description,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// CookieObserver publishes a session cookie when a ceremony driven by
// an HTTP request succeeds. The response writer travels in the request
// context; CLI-driven ceremonies carry none and are skipped.
type CookieObserver struct {
	session *session.State
}

func NewCookieObserver(sess *session.State) *CookieObserver {
	return &CookieObserver{session: sess}
}

func (o *CookieObserver) OnSucceeded(ctx context.Context, _ ceremony.Result) {
	w, err := responsewriter.FromContext(ctx)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    o.session.Snapshot().SessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (o *CookieObserver) OnFailed(ctx context.Context, failure ceremony.Failure) {
	slogctx.Debug(ctx, "ceremony did not complete", "kind", string(failure.Kind))
}
