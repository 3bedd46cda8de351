package main

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

// maxSuggestDistance bounds the edit distance of a "did you mean" suggestion
const maxSuggestDistance = 4

// parseAccept turns a comma separated list of kind names into a valid set.
// "all" accepts every kind.
func parseAccept(list string) (scanner.ValidSet, error) {
	var valid scanner.ValidSet
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, "all") {
			valid |= scanner.AllValid()
			continue
		}

		kind, ok := scanner.ParseKind(name)
		if !ok {
			return 0, unknownKindError(name)
		}
		valid = valid.With(kind)
	}

	if valid == 0 {
		return 0, &CLIError{
			Type:    "kind",
			Message: "no token kinds to accept",
			Hint:    "use --accept TEXT,SOFT_LINE_BREAK or --accept all",
		}
	}
	return valid, nil
}

func unknownKindError(name string) *CLIError {
	err := &CLIError{
		Type:    "kind",
		Message: fmt.Sprintf("unknown token kind %q", name),
		Hint:    "run 'markdoc scan --list' for every kind",
	}
	if match := findClosestKind(name); match != "" {
		err.Hint = fmt.Sprintf("did you mean %s?", match)
	}
	return err
}

// findClosestKind finds the closest kind name using fuzzy matching. Names that
// contain the input in order win; otherwise the nearest by edit distance.
func findClosestKind(target string) string {
	candidates := scanner.KindNames()

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		best := ranks[0]
		for _, r := range ranks[1:] {
			if r.Distance < best.Distance {
				best = r
			}
		}
		return best.Target
	}

	best, bestDistance := "", maxSuggestDistance+1
	upper := strings.ToUpper(target)
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(upper, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
