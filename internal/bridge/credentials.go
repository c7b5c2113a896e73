package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// SubscriptionTypeMax is the Claude subscription type mapped to IsMax.
const SubscriptionTypeMax = "max"

// ErrNoCredentials is returned when a document has no claudeAiOauth record.
var ErrNoCredentials = errors.New("no claudeAiOauth record")

// SourceCredentials is the OAuth record maintained by the Claude CLI.
// Values are kept as raw JSON and copied through whatever their shape;
// only subscriptionType is interpreted. Absent fields stay nil.
type SourceCredentials struct {
	AccessToken      json.RawMessage `json:"accessToken,omitempty"`
	RefreshToken     json.RawMessage `json:"refreshToken,omitempty"`
	ExpiresAt        json.RawMessage `json:"expiresAt,omitempty"` // epoch millis
	Scopes           json.RawMessage `json:"scopes,omitempty"`
	SubscriptionType json.RawMessage `json:"subscriptionType,omitempty"`
}

// SourceDocument is the layout of the Claude CLI credentials file.
type SourceDocument struct {
	ClaudeAiOauth *SourceCredentials `json:"claudeAiOauth"`
}

// TargetCredentials is the normalized record written for the downstream consumer.
// Field order is the serialization order. Fields absent from the source are
// left out of the output.
type TargetCredentials struct {
	AccessToken  json.RawMessage `json:"accessToken,omitempty"`
	RefreshToken json.RawMessage `json:"refreshToken,omitempty"`
	ExpiresAt    json.RawMessage `json:"expiresAt,omitempty"`
	Scopes       json.RawMessage `json:"scopes,omitempty"`
	IsMax        bool            `json:"isMax"`
}

// TargetDocument is the layout of the persisted credentials.json.
type TargetDocument struct {
	ClaudeAiOauth TargetCredentials `json:"claudeAiOauth"`
}

// NewTargetCredentials maps a source record to the target schema.
// Only subscriptionType changes shape; every other field is copied as is.
func NewTargetCredentials(src SourceCredentials) TargetCredentials {
	return TargetCredentials{
		AccessToken:  bytes.Clone(src.AccessToken),
		RefreshToken: bytes.Clone(src.RefreshToken),
		ExpiresAt:    bytes.Clone(src.ExpiresAt),
		Scopes:       bytes.Clone(src.Scopes),
		IsMax:        rawString(src.SubscriptionType) == SubscriptionTypeMax,
	}
}

// ExpiresAtMillis returns expiresAt as epoch millis, or 0 if it is not numeric.
func (t TargetCredentials) ExpiresAtMillis() int64 {
	var n json.Number
	if err := json.Unmarshal(t.ExpiresAt, &n); err != nil {
		return 0
	}
	if millis, err := n.Int64(); err == nil {
		return millis
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int64(f)
}

// ScopeList returns scopes as a list. A single string is treated as one scope.
func (t TargetCredentials) ScopeList() []string {
	var scopes []string
	if err := json.Unmarshal(t.Scopes, &scopes); err == nil {
		return scopes
	}
	if scope := rawString(t.Scopes); scope != "" {
		return []string{scope}
	}
	return nil
}

// Token converts the record to an oauth2.Token. Non-string tokens become empty.
func (t TargetCredentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  rawString(t.AccessToken),
		TokenType:    "Bearer",
		RefreshToken: rawString(t.RefreshToken),
		Expiry:       time.UnixMilli(t.ExpiresAtMillis()),
	}
}

// DecodeSource parses a Claude CLI credentials document. Only JSON
// well-formedness and the presence of the claudeAiOauth record are checked.
func DecodeSource(data []byte) (*SourceCredentials, error) {
	var doc *SourceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil || doc.ClaudeAiOauth == nil {
		return nil, ErrNoCredentials
	}
	return doc.ClaudeAiOauth, nil
}

// EncodeTarget serializes tokens inside the claudeAiOauth envelope with
// two-space indentation.
func EncodeTarget(tokens TargetCredentials) ([]byte, error) {
	return json.MarshalIndent(TargetDocument{ClaudeAiOauth: tokens}, "", "  ")
}

// DecodeTarget parses a persisted credentials.json document.
func DecodeTarget(data []byte) (*TargetCredentials, error) {
	var doc struct {
		ClaudeAiOauth *TargetCredentials `json:"claudeAiOauth"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.ClaudeAiOauth == nil {
		return nil, ErrNoCredentials
	}
	return doc.ClaudeAiOauth, nil
}

// rawString returns the string held by a raw JSON value, or "" for any other value.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
