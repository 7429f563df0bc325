package telephony_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/internal/dialogue"
	"github.com/ordervox/ordervox/internal/engine"
	"github.com/ordervox/ordervox/internal/observe"
	"github.com/ordervox/ordervox/internal/store"
	"github.com/ordervox/ordervox/internal/telephony"
	"github.com/ordervox/ordervox/internal/utterance"
)

const tenantNumber = "+15550100"

func newHandler(t *testing.T) (*telephony.Handler, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	cat := catalog.Default()
	machine := dialogue.NewMachine(cat, utterance.NewExtractor(cat))

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	e := engine.New(st, machine, engine.WithMetrics(met))
	resolver := telephony.NewTenantResolver(map[string]telephony.Tenant{
		tenantNumber: {ID: "la-bella", DisplayName: "La Bella"},
	})
	return telephony.NewHandler(e, resolver), st
}

func post(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newMux(t *testing.T) (*http.ServeMux, *store.MemStore) {
	t.Helper()
	h, st := newHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, st
}

func TestIncomingGreetsWithGather(t *testing.T) {
	t.Parallel()
	mux, st := newMux(t)

	rec := post(t, mux, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA100"},
		"To":      {tenantNumber},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("Content-Type = %q, want application/xml", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("body = %q, want a Gather verb", body)
	}
	if !strings.Contains(body, `input="speech"`) {
		t.Error("Gather is missing speech input")
	}
	if !strings.Contains(body, `actionOnEmptyResult="true"`) {
		t.Error("Gather must post on empty results")
	}
	if !strings.Contains(body, "/twilio/voice/handle-speech") {
		t.Error("Gather action does not point at the speech route")
	}

	if _, err := st.Load(context.Background(), "CA100"); err != nil {
		t.Fatalf("session was not created: %v", err)
	}
}

func TestIncomingUnknownNumberHangsUp(t *testing.T) {
	t.Parallel()
	mux, st := newMux(t)

	rec := post(t, mux, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA101"},
		"To":      {"+19998887777"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "<Hangup") {
		t.Fatalf("body = %q, want a Hangup verb", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Error("unconfigured number must not gather speech")
	}
	if _, err := st.Load(context.Background(), "CA101"); err == nil {
		t.Error("session must not be created for unconfigured numbers")
	}
}

func TestHandleSpeechRunsTurn(t *testing.T) {
	t.Parallel()
	mux, _ := newMux(t)

	post(t, mux, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA102"},
		"To":      {tenantNumber},
	})

	rec := post(t, mux, "/twilio/voice/handle-speech", url.Values{
		"CallSid":      {"CA102"},
		"To":           {tenantNumber},
		"SpeechResult": {"a Margherita please"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "Margherita") {
		t.Fatalf("body = %q, want item confirmation", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Error("non-terminal turn must gather the next utterance")
	}
}

func TestHandleSpeechTerminalHangsUp(t *testing.T) {
	t.Parallel()
	mux, _ := newMux(t)

	post(t, mux, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA103"},
		"To":      {tenantNumber},
	})

	rec := post(t, mux, "/twilio/voice/handle-speech", url.Values{
		"CallSid":      {"CA103"},
		"To":           {tenantNumber},
		"SpeechResult": {"cancel the order"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "<Hangup") {
		t.Fatalf("body = %q, want a Hangup verb", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Error("terminal turn must not gather further speech")
	}
}

func TestHandleSpeechSilentTurn(t *testing.T) {
	t.Parallel()
	mux, _ := newMux(t)

	post(t, mux, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA104"},
		"To":      {tenantNumber},
	})

	// actionOnEmptyResult posts with an empty SpeechResult.
	rec := post(t, mux, "/twilio/voice/handle-speech", url.Values{
		"CallSid": {"CA104"},
		"To":      {tenantNumber},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<Gather") {
		t.Error("silent turn must re-prompt, not hang up")
	}
}

func TestTenantResolverNormalizesNumbers(t *testing.T) {
	t.Parallel()
	r := telephony.NewTenantResolver(map[string]telephony.Tenant{
		"+49 30 123 4567": {ID: "berlin"},
	})

	for _, to := range []string{"+493012 34567", "+49301234567", "0049301234567"} {
		if _, ok := r.Resolve(to); !ok {
			t.Errorf("Resolve(%q) failed, want match", to)
		}
	}
	if _, ok := r.Resolve("+49309999999"); ok {
		t.Error("Resolve matched an unknown number")
	}
}
