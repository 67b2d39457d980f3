package linkage

import (
	"sort"
	"strings"

	"github.com/cfdb/internal/phonetics"
	"github.com/cfdb/internal/table"
)

// pair is a candidate pair of row positions, A < B, with the index of the
// blocking rule that produced it.
type pair struct {
	A, B int
	Rule int
}

// OversizedBlock is a block skipped for exceeding max_block_size.
type OversizedBlock struct {
	Rule string
	Key  string
	Size int
}

const keySep = "\x1f"

// blockKey returns the key of row i under rule, or false when any key
// column is null.
func blockKey(t *table.Table, rule BlockingRule, i int) (string, bool) {
	parts := make([]string, len(rule.Keys))
	for k, key := range rule.Keys {
		v, _ := t.String(i, key.Column)
		v = strings.TrimSpace(v)
		switch key.Transform {
		case TransformMetaphone:
			v = phonetics.Metaphone(v)
		case TransformInitial:
			if r := []rune(v); len(r) > 0 {
				v = string(r[0])
			}
		}
		if v == "" {
			return "", false
		}
		parts[k] = v
	}
	return strings.Join(parts, keySep), true
}

// block generates each candidate pair once, credited to the first rule that
// produces it. Rows must already be in id order.
func block(t *table.Table, rules []BlockingRule, maxBlockSize int) ([]pair, []OversizedBlock) {
	var (
		pairs     []pair
		oversized []OversizedBlock
	)
	seen := make(map[[2]int]bool)
	for r, rule := range rules {
		blocks := make(map[string][]int)
		var order []string
		for i := range t.Rows {
			k, ok := blockKey(t, rule, i)
			if !ok {
				continue
			}
			if _, exists := blocks[k]; !exists {
				order = append(order, k)
			}
			blocks[k] = append(blocks[k], i)
		}

		for _, k := range order {
			members := blocks[k]
			if len(members) < 2 {
				continue
			}
			if maxBlockSize > 0 && len(members) > maxBlockSize {
				oversized = append(oversized, OversizedBlock{
					Rule: rule.Name,
					Key:  strings.ReplaceAll(k, keySep, "|"),
					Size: len(members),
				})
				continue
			}
			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					key := [2]int{members[a], members[b]}
					if seen[key] {
						continue
					}
					seen[key] = true
					pairs = append(pairs, pair{A: key[0], B: key[1], Rule: r})
				}
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs, oversized
}
