package ai

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	c, err := New(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.model != defaultModel {
		t.Fatalf("model = %q", c.model)
	}
	if c.maxRetries != defaultMaxRetries {
		t.Fatalf("maxRetries = %d", c.maxRetries)
	}
	if c.timeout != defaultTimeout {
		t.Fatalf("timeout = %v", c.timeout)
	}
}

func TestDecodeJSONStripsFences(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"plain", `["a", "b"]`},
		{"fenced", "```json\n[\"a\", \"b\"]\n```"},
		{"fenced bare", "```\n[\"a\", \"b\"]\n```"},
		{"padded", "  \n```json\n[\"a\", \"b\"]\n```\n  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			if err := decodeJSON(tc.raw, &got); err != nil {
				t.Fatalf("decodeJSON: %v", err)
			}
			if !reflect.DeepEqual(got, []string{"a", "b"}) {
				t.Fatalf("got %v", got)
			}
		})
	}
}

func TestDecodeJSONBadPayloadIsParseFailure(t *testing.T) {
	var got []string
	err := decodeJSON("desculpe, não consegui", &got)
	var pf *ParseFailure
	if !errors.As(err, &pf) {
		t.Fatalf("err = %v, want ParseFailure", err)
	}
	if pf.Raw != "desculpe, não consegui" {
		t.Fatalf("raw = %q", pf.Raw)
	}
}

func TestUnquote(t *testing.T) {
	if got := unquote(`"cinematic shot"`); got != "cinematic shot" {
		t.Fatalf("got %q", got)
	}
	if got := unquote("no quotes"); got != "no quotes" {
		t.Fatalf("got %q", got)
	}
}
