package language

import (
	"strings"
	"testing"
)

func TestTableShape(t *testing.T) {
	all := All()
	if len(all) != 16 {
		t.Fatalf("expected 16 languages, got %d", len(all))
	}
	seenKeys := make(map[string]bool)
	seenModels := make(map[string]bool)
	for _, p := range all {
		if p.Key == "" || p.Name == "" || p.NativeName == "" || p.Ethnonym == "" {
			t.Fatalf("incomplete profile %+v", p)
		}
		if !strings.HasPrefix(p.RecognitionModelID, "formosan_") {
			t.Fatalf("unexpected model id %q", p.RecognitionModelID)
		}
		if seenKeys[p.Key] || seenModels[p.RecognitionModelID] {
			t.Fatalf("duplicate key or model in %+v", p)
		}
		seenKeys[p.Key] = true
		seenModels[p.RecognitionModelID] = true
	}
	if all[0].Key != "truku" {
		t.Fatalf("expected table order to start with truku, got %q", all[0].Key)
	}
	if len(Keys()) != len(all) {
		t.Fatal("Keys and All disagree in length")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantModel string
		wantEth   string
	}{
		{"truku", "truku", "formosan_trv", "太魯閣"},
		{"  TRUKU ", "truku", "formosan_trv", "太魯閣"},
		{"太魯閣語", "truku", "formosan_trv", "太魯閣"},
		{"formosan_ami", "amis", "formosan_ami", "阿美"},
		{"Amis", "amis", "formosan_ami", "阿美"},
		{"雅美語(達悟語)", "yami", "formosan_tao", "雅美"},
		{"tao", "yami", "formosan_tao", "雅美"},
		{"Hla'alua", "hlaalua", "formosan_laa", "拉阿魯哇"},
		{"卡那卡那富", "kanakanavu", "formosan_kan", "卡那卡那富"},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.input)
		if !ok {
			t.Fatalf("Lookup(%q) not found", tt.input)
		}
		if got.Key != tt.wantKey || got.RecognitionModelID != tt.wantModel || got.Ethnonym != tt.wantEth {
			t.Errorf("Lookup(%q) = %+v", tt.input, got)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, input := range []string{"", "english", "formosan_xxx"} {
		if _, ok := Lookup(input); ok {
			t.Errorf("expected %q to be unknown", input)
		}
	}
}

func TestLabel(t *testing.T) {
	p, _ := Lookup("bunun")
	if got := p.Label(); got != "布農語 (Bunun)" {
		t.Fatalf("unexpected label %q", got)
	}
	if TargetCode != "zho_Hant" {
		t.Fatalf("unexpected target code %q", TargetCode)
	}
}
