package ui

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActionKind classifies what a button does. The wire values are embedded in
// encoded identifiers that live inside already-posted Discord messages, so
// they must stay stable across releases.
type ActionKind string

const (
	ActionNavigate ActionKind = "nav"     // pagination, navigation
	ActionToggle   ActionKind = "toggle"  // binary state switches
	ActionStatic   ActionKind = "action"  // static actions (help, welcome)
	ActionModal    ActionKind = "modal"   // modal dialog triggers
	ActionConfirm  ActionKind = "confirm" // confirmation dialogs
)

// ParseActionKind maps a wire value back to an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionNavigate, ActionToggle, ActionStatic, ActionModal, ActionConfirm:
		return ActionKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown action kind %q", ErrMalformedState, s)
}

// EncodedStateMaxLength is the default budget for an encoded state string.
// States that do not fit fall back to database persistence.
const EncodedStateMaxLength = 80

var (
	// ErrStateTooComplex signals that a state does not fit the encoding
	// budget. It is a control-flow signal for the persistence-mode fallback,
	// not a failure.
	ErrStateTooComplex = errors.New("state too complex for inline encoding")

	// ErrMalformedState signals an identifier that cannot be decoded
	// (tampered, truncated, or from an incompatible release).
	ErrMalformedState = errors.New("malformed button state")
)

// Payload carries a button's business data as short string keys mapped to
// strings or int64 values. Other value types are rejected at encode time.
type Payload map[string]any

// String returns the string value for key, if present and a string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer value for key, if present and an integer.
func (p Payload) Int(key string) (int64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// ButtonState is the unit of persistent button state. It round-trips through
// an encoded identifier (inline mode) or a database row (database mode).
type ButtonState struct {
	// OwnerID is the user authorized to activate the button. Zero means
	// public: any user may activate it.
	OwnerID int64

	// Action classifies the button.
	Action ActionKind

	// Data holds the handler-specific payload.
	Data Payload

	// GuildID scopes the button to a guild. Zero means no guild scope.
	GuildID int64

	// Expires is a unix timestamp after which the button is dead.
	// Zero means the button never expires.
	Expires int64
}

// IsExpired reports whether the state is past its expiry. States without an
// expiry never expire.
func (s *ButtonState) IsExpired() bool {
	if s.Expires == 0 {
		return false
	}
	return time.Now().Unix() > s.Expires
}

// IsAuthorized reports whether userID may activate this button.
func (s *ButtonState) IsAuthorized(userID int64) bool {
	return s.OwnerID == 0 || s.OwnerID == userID
}

// Encode serializes the state to a URL-safe base64 string short enough to
// embed in a custom identifier.
//
// Single-entry payloads with a short string value use a compact pipe layout
// (owner|action|key:value[|g:guild][|e:expires]); everything else is minified
// JSON with one-letter keys. Returns ErrStateTooComplex when the encoded form
// exceeds the budget, which callers treat as the trigger to switch to
// database persistence.
func (s *ButtonState) Encode() (string, error) {
	raw, err := s.encodeRaw()
	if err != nil {
		return "", err
	}
	encoded := base64.URLEncoding.EncodeToString(raw)
	if len(encoded) > EncodedStateMaxLength {
		return "", fmt.Errorf("%w: encoded length %d exceeds budget %d", ErrStateTooComplex, len(encoded), EncodedStateMaxLength)
	}
	return encoded, nil
}

func (s *ButtonState) encodeRaw() ([]byte, error) {
	if compact, ok := s.compactForm(); ok {
		return []byte(compact), nil
	}

	record := map[string]any{
		"u": s.OwnerID,
		"a": string(s.Action),
		"d": s.Data,
	}
	if s.GuildID != 0 {
		record["g"] = s.GuildID
	}
	if s.Expires != 0 {
		record["e"] = s.Expires
	}

	for k, v := range s.Data {
		switch v.(type) {
		case string, int64:
		default:
			return nil, fmt.Errorf("payload key %q has unsupported type %T", k, v)
		}
	}

	// encoding/json sorts map keys, so the output is deterministic.
	return json.Marshal(record)
}

// compactForm returns the pipe-delimited layout when the payload is a single
// short string value, the only shape the compact format can represent.
func (s *ButtonState) compactForm() (string, bool) {
	if len(s.Data) != 1 {
		return "", false
	}
	var key, value string
	for k, v := range s.Data {
		str, ok := v.(string)
		if !ok || len(str) >= 10 {
			return "", false
		}
		key, value = k, str
	}
	if strings.ContainsAny(key, "|:") || strings.Contains(value, "|") {
		return "", false
	}

	var b strings.Builder
	b.WriteString(strconv.FormatInt(s.OwnerID, 10))
	b.WriteByte('|')
	b.WriteString(string(s.Action))
	b.WriteByte('|')
	b.WriteString(key)
	b.WriteByte(':')
	b.WriteString(value)
	if s.GuildID != 0 {
		b.WriteString("|g:")
		b.WriteString(strconv.FormatInt(s.GuildID, 10))
	}
	if s.Expires != 0 {
		b.WriteString("|e:")
		b.WriteString(strconv.FormatInt(s.Expires, 10))
	}
	return b.String(), true
}

// DecodeState reconstructs a ButtonState from an encoded string. It accepts
// both the compact pipe layout and the JSON layout. Any failure is reported
// as ErrMalformedState; callers must treat such a button as permanently
// broken rather than surfacing the error to the end user.
func DecodeState(encoded string) (*ButtonState, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	text := string(raw)

	if strings.Contains(text, "|") && !strings.HasPrefix(text, "{") {
		return decodeCompact(text)
	}
	return decodeJSON(raw)
}

func decodeCompact(text string) (*ButtonState, error) {
	parts := strings.Split(text, "|")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: compact layout needs at least 3 segments", ErrMalformedState)
	}

	ownerID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad owner id: %v", ErrMalformedState, err)
	}
	action, err := ParseActionKind(parts[1])
	if err != nil {
		return nil, err
	}

	key, value, found := strings.Cut(parts[2], ":")
	if !found || key == "" {
		return nil, fmt.Errorf("%w: bad payload segment %q", ErrMalformedState, parts[2])
	}

	state := &ButtonState{
		OwnerID: ownerID,
		Action:  action,
		Data:    Payload{key: value},
	}

	for _, part := range parts[3:] {
		switch {
		case strings.HasPrefix(part, "g:"):
			state.GuildID, err = strconv.ParseInt(part[2:], 10, 64)
		case strings.HasPrefix(part, "e:"):
			state.Expires, err = strconv.ParseInt(part[2:], 10, 64)
		default:
			err = fmt.Errorf("unknown segment %q", part)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
	}
	return state, nil
}

func decodeJSON(raw []byte) (*ButtonState, error) {
	var record struct {
		OwnerID int64           `json:"u"`
		Action  string          `json:"a"`
		Data    json.RawMessage `json:"d"`
		GuildID int64           `json:"g"`
		Expires int64           `json:"e"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if record.Action == "" {
		return nil, fmt.Errorf("%w: missing action", ErrMalformedState)
	}
	action, err := ParseActionKind(record.Action)
	if err != nil {
		return nil, err
	}

	data, err := decodePayload(record.Data)
	if err != nil {
		return nil, err
	}

	return &ButtonState{
		OwnerID: record.OwnerID,
		Action:  action,
		Data:    data,
		GuildID: record.GuildID,
		Expires: record.Expires,
	}, nil
}

// UnmarshalJSON applies the codec's number normalization, so payloads read
// back from a JSON column carry int64 values, not float64.
func (p *Payload) UnmarshalJSON(raw []byte) error {
	decoded, err := decodePayload(raw)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// decodePayload parses the payload object, normalizing numbers to int64 so
// that decode(encode(s)) compares equal to s.
func decodePayload(raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrMalformedState)
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var generic map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	data := make(Payload, len(generic))
	for k, v := range generic {
		switch tv := v.(type) {
		case string:
			data[k] = tv
		case json.Number:
			n, err := tv.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: non-integer number for key %q", ErrMalformedState, k)
			}
			data[k] = n
		default:
			return nil, fmt.Errorf("%w: unsupported payload value for key %q", ErrMalformedState, k)
		}
	}
	return data, nil
}
