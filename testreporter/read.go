package testreporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ReadMessages decodes every message written by a Reporter to r.
func ReadMessages(r io.Reader) ([]Message, error) {
	var msgs []Message

	dec := json.NewDecoder(r)
	for {
		var wm WrappedMessage
		if err := dec.Decode(&wm); err != nil {
			if errors.Is(err, io.EOF) {
				return msgs, nil
			}
			return msgs, fmt.Errorf("decode message %d: %w", len(msgs), err)
		}
		msgs = append(msgs, wm.Message)
	}
}
