// Package search provides the in-memory safety knowledge base used by the
// assistant: a small, deterministic index of safety tips built from the
// built-in list or a Markdown file.
//
// Tokens are folded for case and diacritics, so "lua dao" matches
// "lừa đảo", and common Vietnamese function words are dropped. Tips are
// ranked by Jaccard similarity between the query's token set and the tip's
// (topic plus text): |Q ∩ P| / |Q ∪ P|. Ties go to the shorter tip, then to
// lexical order. An index is immutable once built and safe for concurrent use.
package search

import (
	"cmp"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Result is a ranked tip with its similarity score.
type Result struct {
	Topic   string
	Snippet string
	Score   float64
}

// Index is the lookup surface the assistant depends on.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// Tip is one knowledge base entry.
type Tip struct {
	Topic string
	Text  string
}

// Option tunes how NewIndex builds the index.
type Option func(*config)

type config struct {
	minRunes  int
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{minRunes: 20, stopwords: foldSet(VietnameseStopwords)}
}

// WithMinParagraphRunes drops tips shorter than n runes.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords replaces the default stop-word list. An empty list disables
// stop-word removal.
func WithStopwords(words []string) Option {
	return func(c *config) { c.stopwords = foldSet(words) }
}

// WithMaxDocs caps the number of indexed tips.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

type entry struct {
	topic  string
	text   string
	runes  int
	tokens int
}

// index keeps a posting list per token so TopK only scores tips that share
// at least one token with the query.
type index struct {
	stopwords map[string]struct{}
	entries   []entry
	postings  map[string][]int
}

// NewIndex builds an Index from tips. Empty or too-short tips are skipped.
func NewIndex(tips []Tip, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	idx := &index{stopwords: cfg.stopwords, postings: map[string][]int{}}
	for _, tip := range tips {
		if cfg.maxDocs > 0 && len(idx.entries) >= cfg.maxDocs {
			break
		}
		idx.add(tip, cfg.minRunes)
	}
	return idx
}

// NewDefaultIndex builds an Index over the built-in safety tips.
func NewDefaultIndex(opts ...Option) Index {
	return NewIndex(DefaultTips(), opts...)
}

// NewIndexFromMarkdown builds an Index from the Markdown file at path.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewIndex(nil), err
	}
	defer f.Close()
	return NewIndexFromReader(f, opts...)
}

// NewIndexFromReader builds an Index from UTF-8 Markdown provided by r.
// List items and table rows become individual tips; a "#" heading sets the
// topic of the tips that follow it.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	flat, err := flattenMarkdown(r)
	if err != nil {
		return NewIndex(nil), err
	}
	return NewIndex(tipsFromMarkdown(flat), opts...), nil
}

func (i *index) add(tip Tip, minRunes int) {
	text := strings.TrimSpace(collapseSpace(tip.Text))
	n := utf8.RuneCountInString(text)
	if text == "" || n < minRunes {
		return
	}
	toks := tokenize(tip.Topic+" "+text, i.stopwords)
	if len(toks) == 0 {
		return
	}
	id := len(i.entries)
	i.entries = append(i.entries, entry{
		topic:  strings.TrimSpace(tip.Topic),
		text:   text,
		runes:  n,
		tokens: len(toks),
	})
	for tok := range toks {
		i.postings[tok] = append(i.postings[tok], id)
	}
}

// Len returns the number of indexed tips.
func (i *index) Len() int { return len(i.entries) }

// TopK returns up to k best-matching tips. k <= 0 means 3.
func (i *index) TopK(q string, k int) []Result {
	if len(i.entries) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	shared := map[int]int{}
	for tok := range qTokens {
		for _, id := range i.postings[tok] {
			shared[id]++
		}
	}
	if len(shared) == 0 {
		return nil
	}

	type hit struct {
		e     *entry
		score float64
	}
	hits := make([]hit, 0, len(shared))
	for id, n := range shared {
		e := &i.entries[id]
		union := len(qTokens) + e.tokens - n
		hits = append(hits, hit{e: e, score: float64(n) / float64(union)})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.e.runes, b.e.runes); c != 0 {
			return c
		}
		return strings.Compare(a.e.text, b.e.text)
	})

	out := make([]Result, 0, min(k, len(hits)))
	for _, h := range hits[:min(k, len(hits))] {
		out = append(out, Result{Topic: h.e.topic, Snippet: h.e.text, Score: h.score})
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(Fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; !skip {
			out[w] = struct{}{}
		}
	}
	return out
}

func foldSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = Fold(strings.TrimSpace(w)); w != "" {
			m[w] = struct{}{}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

// tipsFromMarkdown splits flattened Markdown on blank lines. A paragraph
// starting with "#" is a heading and becomes the topic of what follows.
func tipsFromMarkdown(flat []byte) []Tip {
	var (
		out   []Tip
		topic string
	)
	for _, chunk := range paraSplitRE.Split(string(flat), -1) {
		t := strings.TrimSpace(chunk)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "#") {
			heading, rest, _ := strings.Cut(t, "\n")
			topic = strings.TrimSpace(strings.TrimLeft(heading, "#"))
			if t = strings.TrimSpace(rest); t == "" {
				continue
			}
		}
		out = append(out, Tip{Topic: topic, Text: t})
	}
	return out
}
