package ai

import (
	"reflect"
	"strings"
	"testing"

	"promptforge/internal/domain"
	"promptforge/internal/store"
)

func TestChannelDefaultStyleOnlyDNACosmico(t *testing.T) {
	c := &Client{}
	style, ok := c.ChannelDefaultStyle(domain.ChannelDNACosmico)
	if !ok {
		t.Fatalf("dnacosmico must carry a default style")
	}
	if !style.IsPredefined || style.Prompt != DNACosmicoStylePrompt {
		t.Fatalf("style = %+v", style)
	}
	if !strings.HasPrefix(style.ID, "default-dnacosmico-") {
		t.Fatalf("id = %q", style.ID)
	}
	if _, ok := c.ChannelDefaultStyle(domain.ChannelHQ); ok {
		t.Fatalf("hq must not carry a default style")
	}
}

func TestChannelAesthetic(t *testing.T) {
	for _, ch := range []domain.Channel{
		domain.ChannelDNACosmico, domain.ChannelSombrasDarkive, domain.ChannelHQ, domain.ChannelBW,
	} {
		if channelAesthetic(ch) == "" {
			t.Fatalf("empty aesthetic for %q", ch)
		}
	}
	if channelAesthetic(domain.ChannelDNACosmico) != DNACosmicoStylePrompt {
		t.Fatalf("dnacosmico aesthetic must be the fixed style prompt")
	}
}

func TestSombrasBaseCatalog(t *testing.T) {
	if len(sombrasBaseStyles) != 9 {
		t.Fatalf("base catalog has %d styles, want 9", len(sombrasBaseStyles))
	}
	for _, s := range sombrasBaseStyles {
		if !s.IsPredefined {
			t.Fatalf("base style %q not predefined", s.Name)
		}
		if s.Name == "" || s.Prompt == "" || len(s.Tags) == 0 {
			t.Fatalf("incomplete base style: %+v", s)
		}
	}
}

func TestFirstSentence(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Primeira frase. Segunda frase.", "Primeira frase."},
		{"Sem pontuação final", "Sem pontuação final"},
		{"  E se tudo mudasse?  depois", "E se tudo mudasse?"},
	}
	for _, tc := range cases {
		if got := firstSentence(tc.in); got != tc.want {
			t.Fatalf("firstSentence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnionTags(t *testing.T) {
	got := unionTags([]string{"dark", "film"}, []string{"film", "bright"})
	if !reflect.DeepEqual(got, []string{"dark", "film", "bright"}) {
		t.Fatalf("got %v", got)
	}
}

func TestToStylesAssignsFreshIDs(t *testing.T) {
	styles := toStyles([]styleRecord{
		{Name: "A", Prompt: "a", Tags: []string{"t"}},
		{Name: "B", Prompt: "b", Tags: []string{"t"}, IsExtra: true},
	})
	if styles[0].ID == "" || styles[0].ID == styles[1].ID {
		t.Fatalf("ids not unique: %q %q", styles[0].ID, styles[1].ID)
	}
	if !styles[1].IsExtra {
		t.Fatalf("isExtra dropped")
	}
}

func TestSuffixClause(t *testing.T) {
	in := store.GenerationInput{GlobalSuffix: "--ar 9:16 --v 6.0", NegativePrompt: "text, watermark"}
	if got := suffixClause(in); got != "--ar 9:16 --v 6.0 --no text, watermark" {
		t.Fatalf("got %q", got)
	}
	in.NegativePrompt = ""
	if got := suffixClause(in); got != "--ar 9:16 --v 6.0" {
		t.Fatalf("got %q", got)
	}
}

func TestSystemInstructionPerPersonality(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range []domain.Personality{
		domain.PersonalityCreative, domain.PersonalityTechnical, domain.PersonalitySarcastic,
	} {
		instr := systemInstruction(p)
		if instr == "" || seen[instr] {
			t.Fatalf("personality %q instruction empty or duplicated", p)
		}
		seen[instr] = true
	}
	if systemInstruction("unknown") != systemInstruction(domain.PersonalityCreative) {
		t.Fatalf("unknown personality must fall back to creative")
	}
}
