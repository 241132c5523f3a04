package taxonomy

import "testing"

func TestGuessAccount(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        Account
	}{
		{"discount word", "会計割引", AccountDeduction},
		{"coupon", "店内クーポン", AccountDeduction},
		{"transit card", "Suicaチャージ", AccountTravel},
		{"transit card upper case", "SUICA チャージ", AccountTravel},
		{"taxi", "タクシー代", AccountTravel},
		{"mobile", "スマホ料金", AccountCommunication},
		{"wifi upper case", "ポケットWiFi", AccountCommunication},
		{"bread", "メロンパン", AccountCostOfGoods},
		{"coffee", "コーヒー", AccountCostOfGoods},
		{"rice", "お米 5kg", AccountCostOfGoods},
		{"detergent", "洗剤つめかえ", AccountSupplies},
		{"trash bags", "ゴミ袋 45L", AccountSupplies},
		{"no match", "謎の商品", AccountMisc},
		{"empty description", "", AccountMisc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuessAccount(tt.description); got != tt.want {
				t.Errorf("GuessAccount(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

// Group order decides ties: the discount vocabulary is scanned before the
// food vocabulary, so a line mentioning both stays a deduction.
func TestGuessAccountPrecedence(t *testing.T) {
	tests := []struct {
		description string
		want        Account
	}{
		{"コーヒー クーポン値引", AccountDeduction},
		{"お茶 割引", AccountDeduction},
		{"バス回数券 割引", AccountDeduction},
		{"電池 ジュース", AccountCostOfGoods}, // food group beats supplies group
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := GuessAccount(tt.description); got != tt.want {
				t.Errorf("GuessAccount(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}
