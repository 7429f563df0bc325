// Package telephony is the Twilio-facing edge: it parses voice webhooks,
// resolves the called number to a restaurant, and renders TwiML responses.
// Everything conversational happens in the engine; this package only speaks
// HTTP and XML.
package telephony

import (
	"encoding/xml"
	"fmt"
	"net/http"
)

// TwiML response elements, in document order. Twilio executes the verbs top
// to bottom; a Gather that collects speech posts to its action URL and
// abandons the rest of the document.
type twimlResponse struct {
	XMLName  xml.Name       `xml:"Response"`
	Gather   *twimlGather   `xml:"Gather,omitempty"`
	Say      *twimlSay      `xml:"Say,omitempty"`
	Redirect *twimlRedirect `xml:"Redirect,omitempty"`
	Hangup   *twimlHangup   `xml:"Hangup,omitempty"`
}

type twimlGather struct {
	Input string `xml:"input,attr"`
	// Language selects Twilio's speech recognition model.
	Language      string `xml:"language,attr"`
	SpeechTimeout string `xml:"speechTimeout,attr"`
	// ActionOnEmptyResult makes Twilio post even when the caller stays
	// silent, so silent turns reach the retry policy instead of looping in
	// the document.
	ActionOnEmptyResult string    `xml:"actionOnEmptyResult,attr"`
	Action              string    `xml:"action,attr"`
	Method              string    `xml:"method,attr"`
	Say                 *twimlSay `xml:"Say,omitempty"`
}

type twimlSay struct {
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

type twimlRedirect struct {
	Method string `xml:"method,attr"`
	URL    string `xml:",chardata"`
}

type twimlHangup struct{}

// gatherSpeech renders a prompt inside a speech Gather posting to action.
// When the Gather falls through (no speech at all, repeatedly), the trailing
// Redirect re-enters the same action so the turn still reaches the engine.
func gatherSpeech(language, action, prompt string) twimlResponse {
	return twimlResponse{
		Gather: &twimlGather{
			Input:               "speech",
			Language:            language,
			SpeechTimeout:       "auto",
			ActionOnEmptyResult: "true",
			Action:              action,
			Method:              http.MethodPost,
			Say:                 &twimlSay{Language: language, Text: prompt},
		},
		Redirect: &twimlRedirect{Method: http.MethodPost, URL: action},
	}
}

// sayHangup renders a final prompt followed by Hangup.
func sayHangup(language, prompt string) twimlResponse {
	return twimlResponse{
		Say:    &twimlSay{Language: language, Text: prompt},
		Hangup: &twimlHangup{},
	}
}

// writeTwiML serialises the response with the XML declaration Twilio expects.
func writeTwiML(w http.ResponseWriter, resp twimlResponse) error {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	body, err := xml.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("telephony: marshal twiml: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", xml.Header, body); err != nil {
		return fmt.Errorf("telephony: write twiml: %w", err)
	}
	return nil
}
