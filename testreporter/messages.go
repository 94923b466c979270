package testreporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/strangelove-ventures/labeltest/label"
)

// Message is one line of a report.
type Message interface {
	typ() string
}

type BeginSuiteMessage struct {
	StartedAt time.Time
}

type FinishSuiteMessage struct {
	FinishedAt time.Time
}

// SelectionMessage records the labels a run included and excluded.
type SelectionMessage struct {
	When time.Time

	Include, Exclude []label.Label
}

// BeginTestMessage starts a test.
// Package is the import path of the test's package, when known.
type BeginTestMessage struct {
	Package   string `json:",omitempty"`
	Name      string
	StartedAt time.Time

	Labels []label.Label `json:",omitempty"`
}

// TestLabelsMessage records labels attached to a running test after it began,
// such as by a second marker. Labels holds every label the test carries so far.
type TestLabelsMessage struct {
	Package string `json:",omitempty"`
	Name    string
	When    time.Time

	Labels []label.Label
}

type FinishTestMessage struct {
	Name       string
	FinishedAt time.Time

	Failed, Skipped bool
}

// PauseTestMessage and ContinueTestMessage bracket the time
// a parallel test waits for its turn to run.
type PauseTestMessage struct {
	Name string
	When time.Time
}

type ContinueTestMessage struct {
	Name string
	When time.Time
}

type TestErrorMessage struct {
	Name    string
	When    time.Time
	Message string
}

type TestSkipMessage struct {
	Name    string
	When    time.Time
	Message string
}

func (BeginSuiteMessage) typ() string   { return "BeginSuite" }
func (FinishSuiteMessage) typ() string  { return "FinishSuite" }
func (SelectionMessage) typ() string    { return "Selection" }
func (BeginTestMessage) typ() string    { return "BeginTest" }
func (TestLabelsMessage) typ() string   { return "TestLabels" }
func (FinishTestMessage) typ() string   { return "FinishTest" }
func (PauseTestMessage) typ() string    { return "PauseTest" }
func (ContinueTestMessage) typ() string { return "ContinueTest" }
func (TestErrorMessage) typ() string    { return "TestError" }
func (TestSkipMessage) typ() string     { return "TestSkip" }

// decoders maps each message type name to its decoder.
var decoders = map[string]func(json.RawMessage) (Message, error){
	BeginSuiteMessage{}.typ():   decode[BeginSuiteMessage],
	FinishSuiteMessage{}.typ():  decode[FinishSuiteMessage],
	SelectionMessage{}.typ():    decode[SelectionMessage],
	BeginTestMessage{}.typ():    decode[BeginTestMessage],
	TestLabelsMessage{}.typ():   decode[TestLabelsMessage],
	FinishTestMessage{}.typ():   decode[FinishTestMessage],
	PauseTestMessage{}.typ():    decode[PauseTestMessage],
	ContinueTestMessage{}.typ(): decode[ContinueTestMessage],
	TestErrorMessage{}.typ():    decode[TestErrorMessage],
	TestSkipMessage{}.typ():     decode[TestSkipMessage],
}

func decode[M Message](raw json.RawMessage) (Message, error) {
	var m M
	err := json.Unmarshal(raw, &m)
	return m, err
}

// WrappedMessage is the form of a Message on one line of a report:
// {"Type":"BeginTest","Message":{...}}.
type WrappedMessage struct {
	Type string
	Message
}

// JSONMessage tags m with its type for encoding.
func JSONMessage(m Message) WrappedMessage {
	return WrappedMessage{Type: m.typ(), Message: m}
}

type rawMessage struct {
	Type    string
	Message json.RawMessage
}

func (w *WrappedMessage) UnmarshalJSON(b []byte) error {
	var raw rawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	dec, ok := decoders[raw.Type]
	if !ok {
		return fmt.Errorf("unknown message type %q", raw.Type)
	}
	msg, err := dec(raw.Message)
	if err != nil {
		return fmt.Errorf("failed to unmarshal message for type %q: %w", raw.Type, err)
	}
	*w = WrappedMessage{Type: raw.Type, Message: msg}
	return nil
}
