package taxonomy

import "strings"

// keywordGroup maps a vocabulary to the account it implies. Groups are
// scanned in order and the first hit wins, so the discount vocabulary always
// beats e.g. the food vocabulary for a line like "コーヒー クーポン割引".
type keywordGroup struct {
	account  Account
	keywords []string
}

// Matching is substring-based on a lower-cased copy of the description, not
// tokenized. That is intentional: the stored sheet data was produced with
// exactly this scan, and tightening it to token matching would reclassify
// existing names. Known false positives (product names that happen to contain
// a transit word) are accepted.
var keywordGroups = []keywordGroup{
	{AccountDeduction, []string{"会計割引", "割引", "値引", "クーポン"}},
	{AccountTravel, []string{"suica", "pasmo", "電車", "バス", "タクシー", "ガソリン", "高速"}},
	{AccountCommunication, []string{"通信", "スマホ", "携帯", "回線", "wifi", "インターネット"}},
	{AccountCostOfGoods, []string{"パン", "おにぎり", "弁当", "コーヒー", "お茶", "牛乳", "ヨーグルト", "菓子", "チョコ", "アイス", "ジュース", "米", "肉", "魚", "野菜"}},
	{AccountSupplies, []string{"袋", "マスク", "洗剤", "ティッシュ", "トイレット", "ラップ", "電池", "歯ブラシ", "シャンプー", "タオル", "スポンジ", "ゴミ袋"}},
}

// GuessAccount assigns an account to an item description when the model's
// own suggestion was missing or outside the allowed set. It never fails and
// does no I/O; descriptions with no vocabulary hit fall through to 雑費.
func GuessAccount(description string) Account {
	s := strings.ToLower(description)
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(s, kw) {
				return g.account
			}
		}
	}
	return AccountMisc
}
