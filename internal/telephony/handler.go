package telephony

import (
	"context"
	"net/http"

	"github.com/ordervox/ordervox/internal/engine"
	"github.com/ordervox/ordervox/internal/observe"
)

const (
	// routeIncoming receives the initial call webhook and speaks the greeting.
	routeIncoming = "/twilio/voice/incoming"

	// routeHandleSpeech receives every subsequent speech result.
	routeHandleSpeech = "/twilio/voice/handle-speech"
)

// promptNotConfigured is spoken when the called number maps to no restaurant.
const promptNotConfigured = "This number is not configured yet. Please contact the restaurant directly."

// promptInternalError is spoken when a turn fails server-side. The caller
// gets a graceful hangup rather than Twilio's default error message.
const promptInternalError = "Something went wrong on our side. Please call again."

// Option configures a [Handler].
type Option func(*Handler)

// WithLanguage sets the Gather/Say language tag. Default "en-US".
func WithLanguage(tag string) Option {
	return func(h *Handler) { h.language = tag }
}

// Handler serves the Twilio voice webhook endpoints.
type Handler struct {
	engine   *engine.Engine
	tenants  *TenantResolver
	language string
}

// NewHandler creates a Handler over the engine and tenant resolver.
func NewHandler(e *engine.Engine, tenants *TenantResolver, opts ...Option) *Handler {
	h := &Handler{
		engine:   e,
		tenants:  tenants,
		language: "en-US",
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register adds the voice webhook routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+routeIncoming, h.Incoming)
	mux.HandleFunc("POST "+routeHandleSpeech, h.HandleSpeech)
}

// Incoming handles the start-of-call webhook: it creates the session and
// answers with the greeting inside a speech Gather.
func (h *Handler) Incoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	callSid := r.PostFormValue("CallSid")
	to := r.PostFormValue("To")

	tenant, ok := h.tenants.Resolve(to)
	if !ok {
		observe.Logger(ctx).Warn("call to unconfigured number", "to", to, "call_sid", callSid)
		h.respond(ctx, w, sayHangup(h.language, promptNotConfigured))
		return
	}

	out, err := h.engine.StartCall(ctx, callSid, tenant.ID)
	if err != nil {
		observe.Logger(ctx).Error("start call failed", "call_sid", callSid, "error", err)
		h.respond(ctx, w, sayHangup(h.language, promptInternalError))
		return
	}

	h.respond(ctx, w, gatherSpeech(h.language, routeHandleSpeech, out.Prompt))
}

// HandleSpeech handles every speech-result webhook: one dialogue turn in,
// one TwiML document out.
func (h *Handler) HandleSpeech(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	callSid := r.PostFormValue("CallSid")
	to := r.PostFormValue("To")
	speech := r.PostFormValue("SpeechResult")

	tenant, ok := h.tenants.Resolve(to)
	if !ok {
		observe.Logger(ctx).Warn("speech for unconfigured number", "to", to, "call_sid", callSid)
		h.respond(ctx, w, sayHangup(h.language, promptNotConfigured))
		return
	}

	out, err := h.engine.HandleTurn(ctx, callSid, tenant.ID, speech)
	if err != nil {
		observe.Logger(ctx).Error("turn failed", "call_sid", callSid, "error", err)
		h.respond(ctx, w, sayHangup(h.language, promptInternalError))
		return
	}

	if out.Terminal {
		h.respond(ctx, w, sayHangup(h.language, out.Prompt))
		return
	}
	h.respond(ctx, w, gatherSpeech(h.language, routeHandleSpeech, out.Prompt))
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, resp twimlResponse) {
	if err := writeTwiML(w, resp); err != nil {
		observe.Logger(ctx).Error("write twiml failed", "error", err)
	}
}
