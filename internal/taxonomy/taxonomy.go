package taxonomy

import "strings"

// Account is one of the fixed accounting categories a line item can be
// booked under. The set is closed: rows are only ever written with one of
// the values below, never with free text from the model.
type Account string

const (
	AccountCostOfGoods   Account = "仕入高"
	AccountSupplies      Account = "消耗品費"
	AccountTravel        Account = "旅費交通費"
	AccountCommunication Account = "通信費"
	AccountFees          Account = "支払手数料"
	AccountMeetings      Account = "会議費"
	AccountEntertainment Account = "接待交際費"
	AccountAdvertising   Account = "広告宣伝費"
	AccountRepairs       Account = "修繕費"
	AccountMisc          Account = "雑費"
	AccountDeduction     Account = "値引（控除）"
)

// Use tags what a purchase was for: the guesthouse, outside work, both,
// or not yet decided.
type Use string

const (
	UseLodging      Use = "宿"
	UseWork         Use = "仕事"
	UseShared       Use = "共通"
	UseUnclassified Use = "未分類"
)

// AllAccounts lists every valid account, in the order they are presented
// to the model.
func AllAccounts() []Account {
	return []Account{
		AccountCostOfGoods,
		AccountSupplies,
		AccountTravel,
		AccountCommunication,
		AccountFees,
		AccountMeetings,
		AccountEntertainment,
		AccountAdvertising,
		AccountRepairs,
		AccountMisc,
		AccountDeduction,
	}
}

// AllUses lists every valid use tag.
func AllUses() []Use {
	return []Use{UseLodging, UseWork, UseShared, UseUnclassified}
}

var validAccounts = func() map[Account]bool {
	m := make(map[Account]bool, len(AllAccounts()))
	for _, a := range AllAccounts() {
		m[a] = true
	}
	return m
}()

var validUses = func() map[Use]bool {
	m := make(map[Use]bool, len(AllUses()))
	for _, u := range AllUses() {
		m[u] = true
	}
	return m
}()

// ParseAccount checks a raw string against the account set. The input is
// trimmed but otherwise must match verbatim; there is no fuzzy matching here,
// repair of invalid values is the classifier's job.
func ParseAccount(raw string) (Account, bool) {
	a := Account(strings.TrimSpace(raw))
	return a, validAccounts[a]
}

// ParseUse checks a raw string against the use set.
func ParseUse(raw string) (Use, bool) {
	u := Use(strings.TrimSpace(raw))
	return u, validUses[u]
}
