package extractive

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// SalienceMode selects how content words are weighted.
type SalienceMode string

const (
	// SalienceFrequency weights a word by the inverse of its count in the
	// document, so rare terms outweigh repeated boilerplate.
	SalienceFrequency SalienceMode = "frequency"
	// SalienceLiteral gives every content word the same base offset.
	SalienceLiteral SalienceMode = "literal"
)

const (
	salienceOffset       = 0.1
	entityWordWeight     = 0.5
	minSentenceRunes     = 10
	minContentWordRunes  = 3
	defaultParallelLimit = 512
)

var (
	wordPattern    = regexp.MustCompile(`\p{L}+`)
	moneyPattern   = regexp.MustCompile(`(?:[$€£₹]\s?\d[\d,]*(?:\.\d+)?(?:\s(?:million|billion|thousand))?)|(?:\d[\d,]*(?:\.\d+)?\s(?:dollars|rupees|euros|pounds))`)
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s?(?:%|percent)`)
	datePattern    = regexp.MustCompile(`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s\d{1,2}(?:,\s\d{4})?|\d{1,2}\s(?:January|February|March|April|May|June|July|August|September|October|November|December)\s\d{4}|\d{4}-\d{2}-\d{2}`)
)

// Options configures an Analyzer.
type Options struct {
	Salience SalienceMode
	// Workers above one lets large documents be scored in parallel.
	Workers int
	// ParallelThreshold is the sentence count from which parallel scoring
	// kicks in. Zero means the package default.
	ParallelThreshold int
	// ExtraStopwords are merged into the built-in English list.
	ExtraStopwords []string
}

// Analyzer holds the language resources used for scoring. It is built once
// and never mutated, so one instance can serve concurrent callers.
type Analyzer struct {
	salience          SalienceMode
	stopwords         map[string]struct{}
	workers           int
	parallelThreshold int
}

func NewAnalyzer(opts Options) *Analyzer {
	mode := opts.Salience
	if mode != SalienceLiteral {
		mode = SalienceFrequency
	}

	stop := make(map[string]struct{}, len(englishStopwords)+len(opts.ExtraStopwords))
	for _, w := range englishStopwords {
		stop[w] = struct{}{}
	}
	for _, w := range opts.ExtraStopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}

	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = defaultParallelLimit
	}

	return &Analyzer{
		salience:          mode,
		stopwords:         stop,
		workers:           max(opts.Workers, 1),
		parallelThreshold: threshold,
	}
}

func (a *Analyzer) Salience() SalienceMode {
	return a.salience
}

// Sentence is a retained segment of the input with its position.
type Sentence struct {
	Index   int
	Content string
}

// Segment splits text on Unicode sentence boundaries and keeps the trimmed
// segments longer than ten characters, numbered in document order.
func (a *Analyzer) Segment(text string) []Sentence {
	var out []Sentence

	iter := sentences.FromString(text)
	for iter.Next() {
		s := strings.TrimSpace(iter.Value())
		if utf8.RuneCountInString(s) <= minSentenceRunes {
			continue
		}

		out = append(out, Sentence{Index: len(out), Content: s})
	}

	return out
}

func (a *Analyzer) isStopword(w string) bool {
	_, ok := a.stopwords[w]
	return ok
}

// isContentWord approximates a noun/verb/adjective filter without a tagger.
func (a *Analyzer) isContentWord(w string) bool {
	if utf8.RuneCountInString(w) < minContentWordRunes {
		return false
	}
	if a.isStopword(w) {
		return false
	}
	_, fn := functionWords[w]

	return !fn
}

// TermWeights maps every lower-cased content word of text to its weight.
func (a *Analyzer) TermWeights(text string) map[string]float64 {
	counts := make(map[string]int)

	for _, tok := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if !a.isContentWord(tok) {
			continue
		}

		counts[tok]++
	}

	weights := make(map[string]float64, len(counts))
	for w, c := range counts {
		switch a.salience {
		case SalienceLiteral:
			weights[w] = salienceOffset
		default:
			weights[w] = salienceOffset + 1/float64(c)
		}
	}

	return weights
}

// EntityWeights maps lower-cased entity phrases to half their word count.
func (a *Analyzer) EntityWeights(text string) map[string]float64 {
	weights := make(map[string]float64)

	for _, phrase := range a.entities(text) {
		key := strings.ToLower(phrase)
		weights[key] = entityWordWeight * float64(len(strings.Fields(key)))
	}

	return weights
}

func (a *Analyzer) entities(text string) []string {
	var out []string

	for _, re := range []*regexp.Regexp{moneyPattern, percentPattern, datePattern} {
		out = append(out, re.FindAllString(text, -1)...)
	}

	return append(out, a.properNounRuns(text)...)
}

// properNounRuns collects runs of capitalised words. A capitalised stopword
// such as "The" never starts a run, which drops most sentence openers.
func (a *Analyzer) properNounRuns(text string) []string {
	var (
		out []string
		run []string
	)

	flush := func() {
		if len(run) > 0 {
			out = append(out, strings.Join(run, " "))
			run = run[:0]
		}
	}

	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})

		if isCapitalised(word) && !a.isStopword(strings.ToLower(word)) {
			run = append(run, word)
		} else {
			flush()
		}

		// Punctuation after the word closes the phrase.
		if !strings.HasSuffix(field, word) {
			flush()
		}
	}
	flush()

	return out
}

func isCapitalised(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 || !unicode.IsUpper(r) {
		return false
	}

	for _, c := range word[size:] {
		if !unicode.IsLetter(c) && c != '-' && c != '\'' {
			return false
		}
	}

	return true
}
