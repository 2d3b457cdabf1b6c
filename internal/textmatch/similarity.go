package textmatch

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Tokens returns the sorted, de-duplicated word set of text after
// normalisation. Anything that is not a letter or digit separates words.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Ratio is the Indel similarity of a and b in [0, 100]: twice the longest
// common subsequence over the combined length, rounded half to even.
func Ratio(a, b string) int {
	return int(math.RoundToEven(ratio([]rune(a), []rune(b))))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := total - 2*lcs(a, b)
	return 100 * (1 - float64(dist)/float64(total))
}

// lcs is the length of the longest common subsequence, two rows at a time.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			switch {
			case a[i] == b[j]:
				cur[j+1] = prev[j] + 1
			case prev[j+1] >= cur[j]:
				cur[j+1] = prev[j+1]
			default:
				cur[j+1] = cur[j]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// TokenSetRatio scores two strings independently of word order and repeated
// words. The shared words are compared against each side's full word set and
// the best pairwise ratio wins. When every word of one side appears in the
// other the score is 100.
func TokenSetRatio(a, b string) int {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		inB[t] = struct{}{}
	}
	var common, onlyA, onlyB []string
	for _, t := range ta {
		if _, ok := inB[t]; ok {
			common = append(common, t)
			delete(inB, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if _, ok := inB[t]; ok {
			onlyB = append(onlyB, t)
		}
	}
	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	base := []rune(strings.Join(common, " "))
	withA := []rune(strings.TrimSpace(string(base) + " " + strings.Join(onlyA, " ")))
	withB := []rune(strings.TrimSpace(string(base) + " " + strings.Join(onlyB, " ")))

	best := ratio(withA, withB)
	if len(base) > 0 {
		best = max(best, ratio(base, withA), ratio(base, withB))
	}
	return int(math.RoundToEven(best))
}

// BestMatch returns the first choice with the highest TokenSetRatio against
// query. ok is false only when there are no choices.
func BestMatch(query string, choices []string) (best string, score int, ok bool) {
	score = -1
	for _, c := range choices {
		if s := TokenSetRatio(query, c); s > score {
			best, score, ok = c, s, true
		}
	}
	if !ok {
		return "", 0, false
	}
	return best, score, true
}
