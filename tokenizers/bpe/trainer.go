package bpe

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Strategy selects how training finds the most frequent pair at every merge.
// Both strategies produce identical vocabularies.
type Strategy int

const (
	// StrategyHeap keeps pair counts up to date across merges, only recounting the chunks a merge touched,
	// and finds the top pair with a priority queue. It's the default.
	StrategyHeap Strategy = iota

	// StrategyScan recounts every pair of every chunk at each merge. Slow, but simple enough to serve
	// as the reference.
	StrategyScan
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyHeap:
		return "heap"
	case StrategyScan:
		return "scan"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts the name returned by Strategy.String back to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "heap", "":
		return StrategyHeap, nil
	case "scan":
		return StrategyScan, nil
	}
	return 0, configErrorf("unknown training strategy %q (valid: heap, scan)", name)
}

type trainOptions struct {
	strategy Strategy
	progress func(done, total int)
}

// TrainOption configures one call to Tokenizer.Train.
type TrainOption func(*trainOptions)

// WithStrategy selects the pair counting strategy. The default is StrategyHeap.
func WithStrategy(strategy Strategy) TrainOption {
	return func(o *trainOptions) { o.strategy = strategy }
}

// WithProgress registers a function called after every merge with the number of merges done so far
// and the number requested. It's purely informative.
func WithProgress(fn func(done, total int)) TrainOption {
	return func(o *trainOptions) { o.progress = fn }
}

// pair of adjacent token ids within one chunk.
type pair struct {
	left, right int
}

// pairCount orders pairs by decreasing count, then increasing (left, right): the first pair in this
// order is the one merged next.
type pairCount struct {
	pair
	count int
}

func comparePairCounts(a, b pairCount) int {
	if c := cmp.Compare(b.count, a.count); c != 0 {
		return c
	}
	if c := cmp.Compare(a.left, b.left); c != 0 {
		return c
	}
	return cmp.Compare(a.right, b.right)
}

// merger is the state of the chunks during training.
type merger interface {
	// best returns the pair to merge next, or false if no chunk has two tokens left.
	best() (pairCount, bool)

	// apply replaces every non-overlapping occurrence of p, left to right, by id.
	apply(p pair, id int)
}

// train builds a new vocabulary from corpus. It doesn't touch any existing state, so a failure
// leaves the caller's tokenizer as it was.
func train(pre *PreTokenizer, specials []string, unknown string, corpus string, targetSize int, opts trainOptions) (*Vocabulary, error) {
	reserved := NumBytes + len(specials)
	if targetSize < reserved {
		return nil, configErrorf("target vocabulary size %d is smaller than the %d byte tokens plus %d special tokens",
			targetSize, NumBytes, len(specials))
	}
	epochs := targetSize - reserved

	start := time.Now()
	chunks := pre.Split(corpus)
	var m merger
	switch opts.strategy {
	case StrategyHeap:
		m = newHeapMerger(chunks)
	case StrategyScan:
		m = newScanMerger(chunks)
	default:
		return nil, configErrorf("unknown training strategy %s", opts.strategy)
	}

	base := NewVocabulary()
	values, ids := base.values, base.ids

	// Merges whose value already exists (the same bytes reached through a different pair) reuse the
	// existing id instead of creating a duplicate, so they don't count toward epochs.
	var reused int
	for len(values)-NumBytes < epochs {
		top, found := m.best()
		if !found {
			klog.V(1).Infof("bpe: no pairs left after %d of %d merges", len(values)-NumBytes, epochs)
			break
		}
		value := values[top.left] + values[top.right]
		id, exists := ids[value]
		if exists {
			reused++
		} else {
			id = len(values)
			values = append(values, value)
			ids[value] = id
		}
		m.apply(top.pair, id)
		if klog.V(2).Enabled() {
			klog.Infof("bpe: merge %d+%d -> %d %q (count=%d)", top.left, top.right, id, value, top.count)
		}
		if opts.progress != nil && !exists {
			opts.progress(len(values)-NumBytes, epochs)
		}
	}
	numMerges := len(values) - NumBytes

	for _, special := range specials {
		if prev, found := ids[special]; found {
			return nil, configErrorf("special token %q collides with token %d", special, prev)
		}
		ids[special] = len(values)
		values = append(values, special)
	}
	if prev, found := ids[unknown]; found {
		return nil, configErrorf("unknown token %q collides with token %d", unknown, prev)
	}
	unknownID := len(values)
	values = append(values, unknown)

	klog.V(1).Infof("bpe: trained %d merges (%d requested, %d reused) over %d chunks in %s; vocabulary size %d",
		numMerges, epochs, reused, len(chunks), time.Since(start), len(values))
	return newVocabulary(values, numMerges, append([]string(nil), specials...), unknownID), nil
}

// mergePair replaces every non-overlapping occurrence of p in seq, scanning left to right, with id.
// A position consumed by a merge is not matched again in the same pass. seq is rewritten in place.
func mergePair(seq []int, p pair, id int) []int {
	out := seq[:0]
	for i := 0; i < len(seq); i++ {
		if i+1 < len(seq) && seq[i] == p.left && seq[i+1] == p.right {
			out = append(out, id)
			i++
			continue
		}
		out = append(out, seq[i])
	}
	return out
}

// containsPair reports whether p occurs in seq.
func containsPair(seq []int, p pair) bool {
	for i := 0; i+1 < len(seq); i++ {
		if seq[i] == p.left && seq[i+1] == p.right {
			return true
		}
	}
	return false
}

// Train learns a vocabulary of targetSize tokens (plus the unknown token) from corpus, and replaces
// the tokenizer's vocabulary with it.
//
// The special tokens configured with SetSpecialTokens take the ids right after the merged tokens,
// in the order given, and the unknown token takes the last id. Training stops early, with a smaller
// vocabulary, if the corpus runs out of pairs to merge.
//
// It returns an error wrapping ErrConfiguration if targetSize can't hold the 256 byte tokens and the
// special tokens, or if a special literal collides with a learned value. On error the tokenizer is
// left unchanged.
//
// Train must not be called concurrently with any other method of the same Tokenizer.
func (t *Tokenizer) Train(corpus string, targetSize int, opts ...TrainOption) error {
	options := trainOptions{strategy: StrategyHeap}
	for _, opt := range opts {
		opt(&options)
	}
	vocab, err := train(t.pre, t.specials, t.unknown, corpus, targetSize, options)
	if err != nil {
		return errors.WithMessagef(err, "while training a vocabulary of %d tokens", targetSize)
	}
	t.vocab = vocab
	return nil
}
