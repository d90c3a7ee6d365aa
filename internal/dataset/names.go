package dataset

import (
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// locationSuffix matches the " IN <place>" tail the lab appends to names
var locationSuffix = regexp.MustCompile(`\s+IN.*$`)

var badMarkers = []string{"SS-", "Distillate"}

// StripSuffix removes a trailing " IN..." suffix
func StripSuffix(name string) string {
	return locationSuffix.ReplaceAllString(name, "")
}

// IsBadName reports whether name carries no usable strain information
func IsBadName(name string) bool {
	if utf8.RuneCountInString(name) <= 2 {
		return true
	}
	for _, m := range badMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func isPoolName(name string) bool {
	return utf8.RuneCountInString(name) > 5 &&
		!strings.Contains(name, "#") &&
		!strings.Contains(name, "Distillate") &&
		!IsBadName(name)
}

// NamePool returns the sorted, de-duplicated names that can stand in for bad
// ones
func NamePool(names []string) []string {
	seen := make(map[string]bool)
	var pool []string
	for _, n := range names {
		if isPoolName(n) && !seen[n] {
			seen[n] = true
			pool = append(pool, n)
		}
	}
	sort.Strings(pool)
	return pool
}

// RepairNames strips location suffixes and replaces bad names with a pool
// name plus a " <n>" counter, n counting up from 1 until the result is
// unused. Bad names are visited in input order with a PCG source seeded from
// seed, so equal input and seed give equal output. With an empty pool, bad
// names are kept as stripped. The second result counts replaced names.
func RepairNames(names []string, seed uint64) ([]string, int) {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, n := range names {
		out[i] = StripSuffix(n)
		if !IsBadName(out[i]) {
			used[out[i]] = true
		}
	}

	pool := NamePool(out)
	if len(pool) == 0 {
		return out, 0
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	replaced := 0
	for i, n := range out {
		if !IsBadName(n) {
			continue
		}
		base := pool[rng.IntN(len(pool))]
		for k := 1; ; k++ {
			candidate := base + " " + strconv.Itoa(k)
			if !used[candidate] {
				used[candidate] = true
				out[i] = candidate
				break
			}
		}
		replaced++
	}
	return out, replaced
}
