package phone

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

const (
	// PatientVoice is the TTS voice for everything the patient says.
	PatientVoice = "Polly.Matthew-Neural"

	// gatherSpeechTimeout waits this many seconds of silence before the
	// agent's turn counts as finished; avoids mid-sentence cutoffs.
	gatherSpeechTimeout = "3"
)

// ListenDocument is the call-init TwiML: connect and listen immediately so
// the clinic greeting plays and gets captured. The patient speaks only
// after the first agent utterance arrives at the action URL. One POST per
// completed utterance; no barge-in.
func ListenDocument(actionURL string) (string, error) {
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Timeout:       "20",
		SpeechTimeout: gatherSpeechTimeout,
		Action:        actionURL,
		Method:        "POST",
	}
	// Fallback when no speech is ever detected.
	pause := &twiml.VoicePause{Length: "1"}
	say := &twiml.VoiceSay{Message: "Hello?", Voice: PatientVoice}
	hangup := &twiml.VoiceHangup{}

	doc, err := twiml.Voice([]twiml.Element{gather, pause, say, hangup})
	if err != nil {
		return "", fmt.Errorf("render listen twiml: %w", err)
	}
	return doc, nil
}

// ReplyDocument speaks the patient's reply and gathers the next agent
// turn. The leading pause masks generation latency and keeps the patient
// from sounding like an interruption.
func ReplyDocument(text, actionURL string) (string, error) {
	pause := &twiml.VoicePause{Length: "1"}
	say := &twiml.VoiceSay{Message: text, Voice: PatientVoice}
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Timeout:       "10",
		SpeechTimeout: gatherSpeechTimeout,
		Action:        actionURL,
		Method:        "POST",
	}

	doc, err := twiml.Voice([]twiml.Element{pause, say, gather})
	if err != nil {
		return "", fmt.Errorf("render reply twiml: %w", err)
	}
	return doc, nil
}

// GoodbyeDocument speaks the final line and hangs up.
func GoodbyeDocument(text string) (string, error) {
	pause := &twiml.VoicePause{Length: "1"}
	say := &twiml.VoiceSay{Message: text, Voice: PatientVoice}
	hangup := &twiml.VoiceHangup{}

	doc, err := twiml.Voice([]twiml.Element{pause, say, hangup})
	if err != nil {
		return "", fmt.Errorf("render goodbye twiml: %w", err)
	}
	return doc, nil
}

// SilentDocument returns an empty response: no patient speech, the agent
// already signaled hang-up and the transport tears the call down.
func SilentDocument() (string, error) {
	doc, err := twiml.Voice(nil)
	if err != nil {
		return "", fmt.Errorf("render silent twiml: %w", err)
	}
	return doc, nil
}
