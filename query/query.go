// Package query manages the persistence and retrieval of previously resolved
// media addresses, used for "did you mean" suggestions.
package query

import (
	"strings"

	"github.com/crunchy-cli/crunchy/filesystem"
	"github.com/crunchy-cli/crunchy/key"
	"github.com/crunchy-cli/crunchy/where"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// record is one remembered address together with how often it resolved.
type record struct {
	Rank    int    `json:"rank"`
	Address string `json:"address"`
}

var cacher = gache.New[map[string]*record](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var suggestionCache = make(map[string][]*record)

// Remember records a resolved address in the persistent history or increments its popularity rank.
func Remember(address string, weight int) error {
	address = sanitize(address)
	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*record)
	}

	if entry, ok := cached[address]; ok {
		entry.Rank += weight
	} else {
		cached[address] = &record{Rank: weight, Address: address}
	}

	return cacher.Set(cached)
}

// Suggest returns the most relevant historical address for a partial or mistyped input.
func Suggest(address string) mo.Option[string] {
	suggestions := SuggestMany(address)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns the historical addresses matching the partial input, sorted by popularity rank.
func SuggestMany(address string) []string {
	if !viper.GetBool(key.CliQuerySuggestions) {
		return []string{}
	}

	address = sanitize(address)
	var records []*record

	if prev, ok := suggestionCache[address]; ok {
		records = prev
	} else {
		cached, expired, err := cacher.Get()
		if err != nil || expired || cached == nil {
			return []string{}
		}

		for _, entry := range cached {
			if fuzzy.Match(address, entry.Address) {
				records = append(records, entry)
			}
		}

		slices.SortFunc(records, func(a, b *record) int {
			return b.Rank - a.Rank // Descending rank
		})

		suggestionCache[address] = records
	}

	return lo.Map(records, func(r *record, _ int) string {
		return r.Address
	})
}

func sanitize(address string) string {
	return strings.TrimSpace(strings.ToLower(address))
}
