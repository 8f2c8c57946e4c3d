package packing

import "testing"

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func TestSuggestForPurpose_MatchesKeyword(t *testing.T) {
	items := SuggestForPurpose("Renew license at the DMV")
	if !contains(items, "Driver's license/ID") {
		t.Errorf("expected DMV-related items, got %v", items)
	}
	if !contains(items, "Phone") || !contains(items, "Wallet") {
		t.Errorf("expected default essentials included, got %v", items)
	}
}

func TestSuggestForPurpose_NoMatchStillHasDefaults(t *testing.T) {
	items := SuggestForPurpose("Walk the dog")
	if len(items) != 2 || !contains(items, "Phone") || !contains(items, "Wallet") {
		t.Errorf("expected only defaults for an unmatched purpose, got %v", items)
	}
}

func TestSuggestForPurpose_EmptyPurpose(t *testing.T) {
	items := SuggestForPurpose("")
	if len(items) != 2 {
		t.Errorf("expected only defaults for empty purpose, got %v", items)
	}
}

func TestChecklist_MergesExplicitAndSuggested(t *testing.T) {
	items := Checklist("Dentist appointment", []string{"Retainer case"})
	if !contains(items, "Retainer case") {
		t.Errorf("expected explicit item retained, got %v", items)
	}
	if !contains(items, "Insurance card") {
		t.Errorf("expected dentist-related suggestion, got %v", items)
	}
}

func TestChecklist_DeduplicatesOverlap(t *testing.T) {
	items := Checklist("", []string{"Phone", "Phone"})
	count := 0
	for _, it := range items {
		if it == "Phone" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one Phone entry, got %d", count)
	}
}

func TestConsolidatedChecklist_MergesAcrossTasks(t *testing.T) {
	purposes := []string{"DMV renewal", "Grocery run"}
	required := [][]string{{"Old license"}, {"Coupons"}}

	items := ConsolidatedChecklist(purposes, required)
	for _, want := range []string{"Old license", "Coupons", "Driver's license/ID", "Reusable bags", "Phone"} {
		if !contains(items, want) {
			t.Errorf("expected consolidated checklist to include %q, got %v", want, items)
		}
	}
}
