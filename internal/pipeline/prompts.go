package pipeline

import (
	"strings"

	"github.com/yadoya/receipt-ledger/internal/taxonomy"
)

// buildExtractionPrompt assembles the instruction sent alongside the receipt
// image. It constrains the model to the line item schema and to the two fixed
// enumerations; the wording is a configuration constant of the system and can
// be tuned without touching the pipeline, as long as the output contract
// (購入日付 + 明細 array with the fields below) is preserved.
func buildExtractionPrompt() string {
	var b strings.Builder

	b.WriteString("以下のレシート画像から情報を抽出してください。\n")
	b.WriteString("必ず「JSONのみ」を返してください（余計な文章・コードブロック禁止）。\n\n")

	b.WriteString("【前提】\n")
	b.WriteString("- 本レシートは事業経費（宿運営/業務）として整理します。\n")
	b.WriteString("- 宿用と仕事用が混在するため、「用途」も推定してください。\n\n")

	b.WriteString("【勘定科目ルール（必須）】\n")
	b.WriteString("- 勘定科目は次の候補から必ず1つ選ぶ（新しい科目名を作らない）:\n")
	b.WriteString(quotedList(accountNames()) + "\n\n")

	b.WriteString("【用途ルール（必須）】\n")
	b.WriteString("- 用途は次の候補から必ず1つ選ぶ:\n")
	b.WriteString(quotedList(useNames()) + "\n\n")

	b.WriteString("【判断基準（例）】\n")
	b.WriteString("- 食材/飲料/客に提供するもの → 仕入高（用途=宿）\n")
	b.WriteString("- アメニティ/清掃用品/雑貨/文具 → 消耗品費（用途=宿 or 共通）\n")
	b.WriteString("- 電車/バス/タクシー/ガソリン/高速 → 旅費交通費（用途=仕事が多い）\n")
	b.WriteString("- 通信/スマホ/回線 → 通信費\n")
	b.WriteString("- 会計割引/値引/クーポン → 値引（控除）\n")
	b.WriteString("- 迷う場合は「雑費」または「未分類」を選ぶ\n\n")

	b.WriteString("【値引の扱い】\n")
	b.WriteString("- 値引きが別行（例: 値引 -20）で出る場合は、原則「直前の商品」に紐づけてその商品の割引に入れる。\n")
	b.WriteString("- 会計全体の割引しか分からない場合は、商品名=\"会計割引\" として1行追加し、支払金額=割引額(マイナス)で返す。\n\n")

	b.WriteString("【返却JSON形式】\n")
	b.WriteString("{\n")
	b.WriteString("  \"購入日付\": string | null,\n")
	b.WriteString("  \"明細\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"商品名\": string | null,\n")
	b.WriteString("      \"金額\": number | null,\n")
	b.WriteString("      \"割引\": number | null,\n")
	b.WriteString("      \"支払金額\": number | null,\n")
	b.WriteString("      \"想定勘定科目\": " + pipedList(accountNames()) + ",\n")
	b.WriteString("      \"用途\": " + pipedList(useNames()) + "\n")
	b.WriteString("    }\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n")

	return b.String()
}

func accountNames() []string {
	accounts := taxonomy.AllAccounts()
	names := make([]string, len(accounts))
	for i, a := range accounts {
		names[i] = string(a)
	}
	return names
}

func useNames() []string {
	uses := taxonomy.AllUses()
	names := make([]string, len(uses))
	for i, u := range uses {
		names[i] = string(u)
	}
	return names
}

// quotedList renders ["a","b",...].
func quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// pipedList renders "a"|"b"|... for the schema sketch.
func pipedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, "|")
}
