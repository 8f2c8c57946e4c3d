// Package packing suggests what to bring on an errand, matching a task's
// purpose text against a small keyword rule table. The scheduler never
// reads this package, and a plan is fully valid without it: it is a
// collaborator consulted after scheduling to build the day's checklist.
package packing

import (
	"sort"
	"strings"
)

// rules maps a purpose keyword to the items it suggests. The items in
// defaultItems are added regardless of keyword matches. Recovered from
// original_source's PACKING_RULES table.
var rules = map[string][]string{
	"dmv":          {"Driver's license/ID", "Proof of address", "Payment method", "Appointment confirmation"},
	"license":      {"Driver's license/ID", "Proof of address", "Payment method", "Appointment confirmation"},
	"registration": {"Driver's license/ID", "Vehicle registration", "Insurance card", "Payment method"},

	"bank":   {"ID", "Documents to sign", "Payment method", "Account information"},
	"notary": {"ID", "Documents to sign", "Payment method"},
	"tax":    {"ID", "Tax documents", "W-2/1099 forms", "Payment method"},

	"car service":    {"Car keys", "Insurance card", "Service appointment details"},
	"service center": {"Car keys", "Insurance card", "Service appointment details"},
	"mechanic":       {"Car keys", "Insurance card", "Service appointment details"},
	"oil change":     {"Car keys", "Service coupon"},
	"inspection":     {"Car keys", "Insurance card", "Vehicle registration"},

	"doctor":   {"ID", "Insurance card", "List of medications", "Appointment confirmation"},
	"hospital": {"ID", "Insurance card", "List of medications", "Emergency contact info"},
	"pharmacy": {"ID", "Insurance card", "Prescription"},
	"dentist":  {"ID", "Insurance card", "Appointment confirmation"},

	"school":     {"Forms", "ID", "Payment method"},
	"university": {"Student ID", "Forms", "Laptop"},

	"passport":    {"Current passport", "ID", "Passport photos", "Payment method", "Supporting documents"},
	"court":       {"ID", "Court summons", "Documents"},
	"post office": {"ID", "Package/mail", "Tracking number"},

	"grocery": {"Reusable bags", "Shopping list"},
	"returns": {"Receipt", "Item to return", "ID"},
}

const defaultRuleKey = "_default"

var defaultItems = []string{"Phone", "Wallet"}

// SuggestForPurpose matches free-text purpose against the keyword table
// and returns a deduplicated, sorted item list, always including the
// default essentials.
func SuggestForPurpose(purpose string) []string {
	suggestions := make(map[string]struct{})

	if purpose != "" {
		lower := strings.ToLower(purpose)
		for keyword, items := range rules {
			if strings.Contains(lower, keyword) {
				for _, item := range items {
					suggestions[item] = struct{}{}
				}
			}
		}
	}
	for _, item := range defaultItems {
		suggestions[item] = struct{}{}
	}

	return sortedKeys(suggestions)
}

// Checklist combines a task's explicit required items with purpose-based
// suggestions into one deduplicated, sorted list.
func Checklist(purpose string, requiredItems []string) []string {
	items := make(map[string]struct{}, len(requiredItems))
	for _, item := range requiredItems {
		item = strings.TrimSpace(item)
		if item != "" {
			items[item] = struct{}{}
		}
	}
	for _, item := range SuggestForPurpose(purpose) {
		items[item] = struct{}{}
	}
	return sortedKeys(items)
}

// ConsolidatedChecklist merges per-task checklists across a whole plan,
// deduplicating across tasks.
func ConsolidatedChecklist(purposes []string, requiredItemsByTask [][]string) []string {
	merged := make(map[string]struct{})
	for i, purpose := range purposes {
		var required []string
		if i < len(requiredItemsByTask) {
			required = requiredItemsByTask[i]
		}
		for _, item := range Checklist(purpose, required) {
			merged[item] = struct{}{}
		}
	}
	return sortedKeys(merged)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
