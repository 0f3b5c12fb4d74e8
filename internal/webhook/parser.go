package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxBodyBytes bounds how much of a webhook body is read.
const MaxBodyBytes = 1 << 20

var (
	ErrMissingSecret    = errors.New("webhook: secret not configured")
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrMalformed        = errors.New("webhook: malformed body")
)

// Parser reads and authenticates Reepay webhooks.
type Parser struct {
	Secret string
}

func NewParser(secret string) *Parser {
	return &Parser{Secret: secret}
}

// Parse reads one JSON object from body. It returns (nil, nil) when any of
// the id, timestamp or signature fields is absent. The payload is decoded
// into an Event only after the signature verifies.
func (p *Parser) Parse(body io.Reader) (*Event, error) {
	if body == nil {
		return nil, nil
	}
	if s, ok := body.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: rewind body: %v", ErrMalformed, err)
		}
	}

	fields, err := readObject(io.LimitReader(body, MaxBodyBytes))
	if err != nil {
		return nil, err
	}

	env, ok := envelopeOf(fields)
	if !ok {
		return nil, nil
	}
	if p.Secret == "" {
		return nil, ErrMissingSecret
	}
	if !Verify(p.Secret, env.Timestamp, env.ID, env.Signature) {
		return nil, ErrInvalidSignature
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	evt.ID = env.ID
	evt.Timestamp = env.Timestamp
	evt.Signature = env.Signature
	if evt.EventType == "" {
		if v, ok := scalar(fields["event"]); ok {
			evt.EventType = EventType(v)
		}
	}
	evt.Raw = raw
	return &evt, nil
}

// EventFromRequest returns the event cached in ctx by an earlier call within
// the same request scope, or parses body and caches the verified result.
func (p *Parser) EventFromRequest(ctx context.Context, body io.Reader) (*Event, error) {
	s := scopeFrom(ctx)
	if s == nil {
		return p.Parse(body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event != nil {
		return s.event, nil
	}
	evt, err := p.Parse(body)
	if err != nil || evt == nil {
		return evt, err
	}
	s.event = evt
	return evt, nil
}

// readObject tokenizes a single top-level JSON object, keeping member values
// raw so no dates or numbers are interpreted.
func readObject(r io.Reader) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrMalformed)
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected key", ErrMalformed)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
		}
		fields[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fields, nil
}

func envelopeOf(fields map[string]json.RawMessage) (Envelope, bool) {
	var env Envelope
	var ok bool
	if env.ID, ok = scalar(fields["id"]); !ok {
		return env, false
	}
	if env.Timestamp, ok = scalar(fields["timestamp"]); !ok {
		return env, false
	}
	if env.Signature, ok = scalar(fields["signature"]); !ok {
		return env, false
	}
	return env, true
}

// scalar returns a JSON string or number as text. Null, objects and arrays
// count as absent.
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw), true
	}
	return "", false
}
