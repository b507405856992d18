package extractive

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	termScoreFactor   = 0.6
	entityScoreFactor = 0.3
	positionBonus     = 0.2
	positionEdge      = 0.1
	selectionRatio    = 0.25
	minSelected       = 3
	maxSelected       = 5
)

var (
	ErrEmptyInput  = errors.New("input text is empty")
	ErrNoSentences = errors.New("no sentence is long enough to summarize")
)

// Result is the outcome of one summarization call.
type Result struct {
	SummaryText string
	// SelectedIndices are ascending sentence indices.
	SelectedIndices []int
	TotalSentences  int
}

type Summarizer struct {
	analyzer *Analyzer
}

func New(analyzer *Analyzer) *Summarizer {
	if analyzer == nil {
		analyzer = NewAnalyzer(Options{})
	}

	return &Summarizer{analyzer: analyzer}
}

type scored struct {
	index int
	score float64
}

// Summarize picks the highest scoring sentences of text and wraps them in a
// fixed template. It is a pure function of its input.
func (s *Summarizer) Summarize(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}

	sents := s.analyzer.Segment(text)
	if len(sents) == 0 {
		return Result{}, ErrNoSentences
	}

	terms := s.analyzer.TermWeights(text)
	entities := s.analyzer.EntityWeights(text)

	scores := s.scoreAll(sents, terms, entities)

	n := selectionSize(len(sents))

	slices.SortStableFunc(scores, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	indices := make([]int, 0, n)
	for _, sc := range scores[:n] {
		indices = append(indices, sc.index)
	}
	slices.Sort(indices)

	selected := make([]string, 0, n)
	for _, i := range indices {
		selected = append(selected, sents[i].Content)
	}

	return Result{
		SummaryText:     compose(selected),
		SelectedIndices: indices,
		TotalSentences:  len(sents),
	}, nil
}

func (s *Summarizer) scoreAll(
	sents []Sentence,
	terms map[string]float64,
	entities map[string]float64,
) []scored {
	out := make([]scored, len(sents))
	total := len(sents)

	workerCount := s.analyzer.workers
	if workerCount <= 1 || total < s.analyzer.parallelThreshold {
		for i, sent := range sents {
			out[i] = scored{index: sent.Index, score: scoreSentence(sent, total, terms, entities)}
		}

		return out
	}

	var g errgroup.Group
	g.SetLimit(workerCount)

	for i, sent := range sents {
		g.Go(func() error {
			out[i] = scored{index: sent.Index, score: scoreSentence(sent, total, terms, entities)}
			return nil
		})
	}

	// Scoring cannot fail.
	_ = g.Wait()

	return out
}

// scoreSentence matches raw whitespace-split words against both maps. Entity
// keys are phrases, so only single-word entities can ever match here.
func scoreSentence(
	sent Sentence,
	total int,
	terms map[string]float64,
	entities map[string]float64,
) float64 {
	words := strings.Fields(strings.ToLower(sent.Content))

	var termScore, entityScore float64
	for _, w := range words {
		termScore += terms[w]
		entityScore += entities[w]
	}

	score := termScore*termScoreFactor + entityScore*entityScoreFactor

	pos := float64(sent.Index)
	if pos < positionEdge*float64(total) || pos > (1-positionEdge)*float64(total) {
		score += positionBonus
	}

	return score / float64(max(len(words), 1))
}

func selectionSize(total int) int {
	n := int(math.Round(float64(total) * selectionRatio))
	n = min(max(n, minSelected), maxSelected)

	return min(n, total)
}

func compose(selected []string) string {
	insights := selected
	if len(insights) > 2 {
		insights = insights[:2]
	}

	last := strings.TrimRight(strings.ToLower(selected[len(selected)-1]), ".")

	var b strings.Builder
	b.WriteString("The document highlights that ")
	b.WriteString(normalizeSpace(strings.Join(selected, " ")))
	b.WriteString(". It provides key insights including ")
	b.WriteString(strings.Join(insights, ", "))
	b.WriteString(". Overall, the main focus is on ")
	b.WriteString(last)
	b.WriteString(".")

	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ")), " ")
}
