package bpe

import (
	"slices"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

// scanMerger recounts all pairs of all chunks every time it's asked for the best pair.
type scanMerger struct {
	seqs [][]int
}

func newScanMerger(chunks []string) *scanMerger {
	m := &scanMerger{seqs: make([][]int, 0, len(chunks))}
	for _, chunk := range chunks {
		m.seqs = append(m.seqs, ToBytes(chunk))
	}
	return m
}

func (m *scanMerger) best() (pairCount, bool) {
	counts := make(map[pair]int)
	for _, seq := range m.seqs {
		for i := 0; i+1 < len(seq); i++ {
			counts[pair{seq[i], seq[i+1]}]++
		}
	}
	var top pairCount
	for p, count := range counts {
		candidate := pairCount{pair: p, count: count}
		if top.count == 0 || comparePairCounts(candidate, top) < 0 {
			top = candidate
		}
	}
	return top, top.count > 0
}

func (m *scanMerger) apply(p pair, id int) {
	for i, seq := range m.seqs {
		m.seqs[i] = mergePair(seq, p, id)
	}
}

// word is a distinct chunk and how many times it occurs in the corpus.
type word struct {
	ids   []int
	count int
}

// heapMerger keeps the pair counts of the corpus current across merges. Identical chunks are
// stored once, weighted by their count. A merge only recounts the words that contained the
// merged pair.
//
// The queue is lazy: whenever a pair's count changes a new entry is pushed, and entries whose count
// no longer matches are dropped when they reach the top.
type heapMerger struct {
	words  []word
	counts map[pair]int
	where  map[pair][]int // indices of words that held the pair at some point; may be stale
	queue  *heap.Heap[pairCount]
}

func newHeapMerger(chunks []string) *heapMerger {
	m := &heapMerger{
		counts: make(map[pair]int),
		where:  make(map[pair][]int),
		queue:  heap.NewWith(comparePairCounts),
	}
	index := make(map[string]int)
	for _, chunk := range chunks {
		if wi, found := index[chunk]; found {
			m.words[wi].count++
			continue
		}
		index[chunk] = len(m.words)
		m.words = append(m.words, word{ids: ToBytes(chunk), count: 1})
	}
	touched := make(map[pair]struct{})
	for wi := range m.words {
		m.countWord(wi, 1, touched)
	}
	m.requeue(touched)
	return m
}

// countWord adds (sign=1) or removes (sign=-1) the pairs of word wi to the counts.
func (m *heapMerger) countWord(wi, sign int, touched map[pair]struct{}) {
	w := m.words[wi]
	for i := 0; i+1 < len(w.ids); i++ {
		p := pair{w.ids[i], w.ids[i+1]}
		m.counts[p] += sign * w.count
		touched[p] = struct{}{}
		if sign > 0 {
			if list := m.where[p]; len(list) == 0 || list[len(list)-1] != wi {
				m.where[p] = append(list, wi)
			}
		}
	}
}

// requeue pushes the current count of every touched pair, and forgets pairs that no longer occur.
func (m *heapMerger) requeue(touched map[pair]struct{}) {
	for p := range touched {
		count := m.counts[p]
		if count <= 0 {
			delete(m.counts, p)
			delete(m.where, p)
			continue
		}
		m.queue.Push(pairCount{pair: p, count: count})
	}
}

func (m *heapMerger) best() (pairCount, bool) {
	for {
		top, ok := m.queue.Pop()
		if !ok {
			return pairCount{}, false
		}
		if m.counts[top.pair] == top.count {
			return top, true
		}
	}
}

func (m *heapMerger) apply(p pair, id int) {
	wordIndices := slices.Clone(m.where[p])
	slices.Sort(wordIndices)
	wordIndices = slices.Compact(wordIndices)

	touched := make(map[pair]struct{})
	for _, wi := range wordIndices {
		if !containsPair(m.words[wi].ids, p) {
			continue
		}
		m.countWord(wi, -1, touched)
		m.words[wi].ids = mergePair(m.words[wi].ids, p, id)
		m.countWord(wi, 1, touched)
	}
	m.requeue(touched)
}
