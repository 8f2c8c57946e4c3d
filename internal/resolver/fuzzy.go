package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// jaroWinklerPrefixSize and jaroWinklerBoost are the standard Winkler
// adjustment parameters: when the Jaro score exceeds jaroWinklerBoost,
// smetrics raises it by 0.1*(1-jaro) per matching prefix character, over
// a common prefix of up to 4 characters.
const (
	jaroWinklerPrefixSize = 4
	jaroWinklerBoost      = 0.7
)

var (
	nonWordChar = regexp.MustCompile(`[^\w\s]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// normalize lowercases s, strips punctuation (keeping spaces), and
// collapses runs of whitespace, so "Walmart Supercenter #123" and
// "walmart supercenter 123" compare as near-identical.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = nonWordChar.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// baseSimilarity returns the Jaro-Winkler similarity between two already
// normalized strings, scaled to the 0-100 range nameSimilarity uses.
func baseSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, jaroWinklerBoost, jaroWinklerPrefixSize) * 100
}

// fullRatio is the simple whole-string similarity.
func fullRatio(a, b string) float64 {
	return baseSimilarity(normalize(a), normalize(b))
}

// partialRatio finds the best-aligning substring of the longer string
// against the shorter one, so "Walmart" scores well against "Walmart
// Supercenter of Austin".
func partialRatio(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if short == "" {
		return baseSimilarity(a, b)
	}
	if len(long) <= len(short) {
		return baseSimilarity(short, long)
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		window := long[i : i+len(short)]
		if score := baseSimilarity(short, window); score > best {
			best = score
		}
	}
	return best
}

// tokenSortRatio compares the two strings after sorting each one's tokens
// alphabetically, so word order differences ("Main St Cafe" vs "Cafe Main
// St") don't depress the score.
func tokenSortRatio(a, b string) float64 {
	return baseSimilarity(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio compares the intersection and symmetric-difference token
// sets, which performs best when one string is a superset of the other's
// words (extra qualifiers like "Inc" or a store number).
func tokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	intersection := sortedJoin(setIntersection(tokensA, tokensB))
	onlyA := sortedJoin(setDifference(tokensA, tokensB))
	onlyB := sortedJoin(setDifference(tokensB, tokensA))

	combinedA := strings.TrimSpace(intersection + " " + onlyA)
	combinedB := strings.TrimSpace(intersection + " " + onlyB)

	scores := []float64{
		baseSimilarity(intersection, combinedA),
		baseSimilarity(intersection, combinedB),
		baseSimilarity(combinedA, combinedB),
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	return best
}

// nameSimilarity scores two place names as the maximum of four ratio
// variants, which makes the score robust to the ways two renderings of the
// same place name commonly differ.
func nameSimilarity(a, b string) float64 {
	scores := []float64{
		fullRatio(a, b),
		partialRatio(a, b),
		tokenSortRatio(a, b),
		tokenSetRatio(a, b),
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalize(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func sortedTokens(s string) string {
	tokens := strings.Fields(normalize(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func setIntersection(a, b map[string]struct{}) []string {
	var out []string
	for tok := range a {
		if _, ok := b[tok]; ok {
			out = append(out, tok)
		}
	}
	return out
}

func setDifference(a, b map[string]struct{}) []string {
	var out []string
	for tok := range a {
		if _, ok := b[tok]; !ok {
			out = append(out, tok)
		}
	}
	return out
}

func sortedJoin(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
