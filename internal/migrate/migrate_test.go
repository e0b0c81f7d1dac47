package migrate

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"promptforge/internal/domain"
)

func loadFailureReason(t *testing.T, err error) FailureReason {
	t.Helper()
	var lf *LoadFailure
	if !errors.As(err, &lf) {
		t.Fatalf("expected *LoadFailure, got %T: %v", err, err)
	}
	return lf.Reason
}

func TestLoadAbsentBlob(t *testing.T) {
	_, err := Load(nil)
	if got := loadFailureReason(t, err); got != NotFound {
		t.Fatalf("reason = %q, want %q", got, NotFound)
	}
	_, err = Load([]byte("   "))
	if got := loadFailureReason(t, err); got != NotFound {
		t.Fatalf("reason = %q, want %q", got, NotFound)
	}
}

func TestLoadUnparsableBlob(t *testing.T) {
	_, err := Load([]byte("{not json"))
	if got := loadFailureReason(t, err); got != ParseError {
		t.Fatalf("reason = %q, want %q", got, ParseError)
	}
}

func TestLoadEmptyProjectMap(t *testing.T) {
	_, err := Load([]byte(`{"projects":{},"settings":{},"activeProjectId":null}`))
	if got := loadFailureReason(t, err); got != Empty {
		t.Fatalf("reason = %q, want %q", got, Empty)
	}
}

func TestLegacyFlatScenesAreWrapped(t *testing.T) {
	blob := []byte(`{
		"projects": {
			"p1": {
				"projectName": "Antigo",
				"segmentedScenes": ["cena um", "cena dois"]
			}
		},
		"activeProjectId": "p1",
		"settings": {"negativePrompt": "", "globalSuffix": ""}
	}`)
	state, err := Load(blob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := state.Projects["p1"]
	if p == nil {
		t.Fatalf("project p1 missing")
	}
	want := []string{"cena um", "cena dois"}
	if !reflect.DeepEqual(p.SegmentedScenes.PTBR, want) {
		t.Fatalf("pt-br = %v, want %v", p.SegmentedScenes.PTBR, want)
	}
	if len(p.SegmentedScenes.EN) != 0 {
		t.Fatalf("en should be empty, got %v", p.SegmentedScenes.EN)
	}
}

func TestMissingFieldsGetDefaults(t *testing.T) {
	blob := []byte(`{
		"projects": {"p1": {"projectName": "Velho"}},
		"activeProjectId": "p1",
		"settings": {}
	}`)
	state, err := Load(blob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := state.Projects["p1"]
	if p.CharacterBrief != "" {
		t.Fatalf("characterBrief = %q", p.CharacterBrief)
	}
	if p.ChatVersion != 1 {
		t.Fatalf("chatVersion = %d, want 1", p.ChatVersion)
	}
	if p.GenerationContext == nil || len(p.GenerationContext) != 0 {
		t.Fatalf("generationContext = %v", p.GenerationContext)
	}
	if p.MusicSuggestions == nil || len(p.MusicSuggestions) != 0 {
		t.Fatalf("musicSuggestions = %v", p.MusicSuggestions)
	}
	if p.ViralAnalysis != nil {
		t.Fatalf("viralAnalysis should stay absent")
	}
	if state.Settings.AssistantPersonality != domain.PersonalityCreative {
		t.Fatalf("personality = %q", state.Settings.AssistantPersonality)
	}
}

func TestLegacySegmentationConfig(t *testing.T) {
	cases := []struct {
		auto bool
		want domain.SegmentationMode
	}{
		{true, domain.SegmentationAutomatic},
		{false, domain.SegmentationManual},
	}
	for _, tc := range cases {
		blob := []byte(`{
			"projects": {"p1": {
				"projectName": "Cfg",
				"segmentationConfig": {"isAutomatic": ` + boolJSON(tc.auto) + `, "sceneCount": 10}
			}},
			"activeProjectId": "p1",
			"settings": {}
		}`)
		state, err := Load(blob)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		cfg := state.Projects["p1"].SegmentationConfig
		if cfg.Mode != tc.want {
			t.Fatalf("mode = %q, want %q", cfg.Mode, tc.want)
		}
		if cfg.SceneCount != 10 {
			t.Fatalf("sceneCount = %d", cfg.SceneCount)
		}
		if cfg.CustomScenes != "" {
			t.Fatalf("customScenes = %q", cfg.CustomScenes)
		}
	}
}

func TestEphemeralFieldsReset(t *testing.T) {
	blob := []byte(`{
		"projects": {"p1": {"projectName": "X"}},
		"activeProjectId": "p1",
		"settings": {},
		"isLoading": true,
		"loadingMessage": "busy",
		"error": "boom",
		"toast": "hi",
		"isSettingsOpen": true,
		"isProjectModalOpen": true,
		"isChatting": true,
		"isFocusMode": true
	}`)
	state, err := Load(blob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.IsLoading || state.LoadingMessage != "" || state.Error != "" || state.Toast != "" {
		t.Fatalf("loading/error/toast not reset: %+v", state)
	}
	if state.IsSettingsOpen || state.IsProjectModalOpen || state.IsChatting || state.IsFocusMode {
		t.Fatalf("modal/chat/focus flags not reset")
	}
	if !state.ShowWelcomeScreen {
		t.Fatalf("welcome screen should default to true")
	}
}

func TestWelcomeScreenPreservedOnlyWhenExplicitlyFalse(t *testing.T) {
	base := `{"projects": {"p1": {"projectName": "X"}}, "activeProjectId": "p1", "settings": {}`
	state, err := Load([]byte(base + `, "showWelcomeScreen": false}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.ShowWelcomeScreen {
		t.Fatalf("explicit false should be preserved")
	}
	state, err = Load([]byte(base + `}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !state.ShowWelcomeScreen {
		t.Fatalf("absent flag should default to true")
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	first := domain.FreshState()
	first.Projects[first.ActiveProjectID].SegmentedScenes = domain.SceneSet{
		PTBR: []string{"cena"},
		EN:   []string{"scene"},
	}
	blob, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	once, err := Load(blob)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	blob2, err := json.Marshal(once)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	twice, err := Load(blob2)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("migration is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
