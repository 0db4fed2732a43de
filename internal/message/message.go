package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names a message on the wire.
type Kind string

const (
	// KindPageReady is sent by a page once it has loaded.
	KindPageReady Kind = "page-ready"

	// KindEnableAnnotations asks a page to scan and annotate.
	KindEnableAnnotations Kind = "enable-annotations"

	// KindDisableAnnotations asks a page to remove all annotations.
	KindDisableAnnotations Kind = "disable-annotations"
)

// Message is one of PageReady, EnableAnnotations or DisableAnnotations.
type Message interface {
	// Kind returns the wire name of the message.
	Kind() Kind

	isMessage()
}

// PageReady announces a loaded page to the shell.
type PageReady struct {
	URL string
}

// EnableAnnotations tells a page to (re)annotate itself.
type EnableAnnotations struct{}

// DisableAnnotations tells a page to remove every annotation.
type DisableAnnotations struct{}

// Kind returns KindPageReady.
func (PageReady) Kind() Kind { return KindPageReady }

// Kind returns KindEnableAnnotations.
func (EnableAnnotations) Kind() Kind { return KindEnableAnnotations }

// Kind returns KindDisableAnnotations.
func (DisableAnnotations) Kind() Kind { return KindDisableAnnotations }

func (PageReady) isMessage()          {}
func (EnableAnnotations) isMessage()  {}
func (DisableAnnotations) isMessage() {}

// envelope is the JSON form of every message.
type envelope struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url,omitempty"`
}

// Encode returns the JSON envelope for m.
func Encode(m Message) ([]byte, error) {
	env := envelope{}
	switch v := m.(type) {
	case PageReady:
		if strings.TrimSpace(v.URL) == "" {
			return nil, ErrMissingURL
		}
		env = envelope{Kind: KindPageReady, URL: v.URL}
	case EnableAnnotations:
		env.Kind = KindEnableAnnotations
	case DisableAnnotations:
		env.Kind = KindDisableAnnotations
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, m)
	}
	return json.Marshal(env)
}

// Decode parses a JSON envelope into a Message.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return env.message()
}

func (e envelope) message() (Message, error) {
	switch e.Kind {
	case KindPageReady:
		url := strings.TrimSpace(e.URL)
		if url == "" {
			return nil, ErrMissingURL
		}
		return PageReady{URL: url}, nil
	case KindEnableAnnotations:
		return EnableAnnotations{}, nil
	case KindDisableAnnotations:
		return DisableAnnotations{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}
