package taxonomy

import "testing"

func TestParseAccount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Account
		wantOK bool
	}{
		{"valid account", "仕入高", AccountCostOfGoods, true},
		{"valid with spaces", "  消耗品費  ", AccountSupplies, true},
		{"deduction with parens", "値引（控除）", AccountDeduction, true},
		{"typo", "仕入れ高", "", false},
		{"empty", "", "", false},
		{"free text", "食べ物", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAccount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseAccount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseAccount(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseUse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Use
		wantOK bool
	}{
		{"lodging", "宿", UseLodging, true},
		{"work with spaces", " 仕事 ", UseWork, true},
		{"shared", "共通", UseShared, true},
		{"unclassified", "未分類", UseUnclassified, true},
		{"invalid", "自宅", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUse(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseUse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseUse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTaxonomySizes(t *testing.T) {
	if got := len(AllAccounts()); got != 11 {
		t.Errorf("len(AllAccounts()) = %d, want 11", got)
	}
	if got := len(AllUses()); got != 4 {
		t.Errorf("len(AllUses()) = %d, want 4", got)
	}
}
