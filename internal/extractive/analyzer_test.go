package extractive

import (
	"math"
	"testing"
)

func TestSegmentDropsShortUnits(t *testing.T) {
	a := NewAnalyzer(Options{})

	sents := a.Segment("Yes. The court dismissed the appeal. No. Costs were awarded to the respondent.")
	if len(sents) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %+v", len(sents), sents)
	}

	if sents[0].Index != 0 || sents[0].Content != "The court dismissed the appeal." {
		t.Fatalf("unexpected first sentence: %+v", sents[0])
	}

	if sents[1].Index != 1 || sents[1].Content != "Costs were awarded to the respondent." {
		t.Fatalf("unexpected second sentence: %+v", sents[1])
	}
}

// Segmentation follows the Unicode sentence boundary rules, which break
// after an abbreviation followed by a capitalised word.
func TestSegmentSplitsAfterAbbreviations(t *testing.T) {
	a := NewAnalyzer(Options{})

	sents := a.Segment("The U.S. Supreme Court ruled that Mr. Smith owes $5 million.")
	if len(sents) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %+v", len(sents), sents)
	}

	if sents[0].Index != 0 || sents[0].Content != "Supreme Court ruled that Mr." {
		t.Fatalf("unexpected first sentence: %+v", sents[0])
	}

	if sents[1].Index != 1 || sents[1].Content != "Smith owes $5 million." {
		t.Fatalf("unexpected second sentence: %+v", sents[1])
	}
}

func TestTermWeightsFrequency(t *testing.T) {
	a := NewAnalyzer(Options{})

	weights := a.TermWeights("The lessee pays rent. The lessee keeps the premises clean.")

	if _, ok := weights["the"]; ok {
		t.Fatalf("stopwords must not be weighted")
	}

	if got := weights["lessee"]; math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("unexpected weight for repeated term: %f", got)
	}

	if got := weights["rent"]; math.Abs(got-1.1) > 1e-9 {
		t.Fatalf("unexpected weight for single occurrence: %f", got)
	}

	if weights["rent"] <= weights["lessee"] {
		t.Fatalf("rare term must outweigh repeated one: %v", weights)
	}
}

func TestTermWeightsLiteral(t *testing.T) {
	a := NewAnalyzer(Options{Salience: SalienceLiteral})

	weights := a.TermWeights("A material breach of contract gives good cause. The contract ends.")
	if len(weights) == 0 {
		t.Fatalf("expected content words to be weighted")
	}

	for _, w := range []string{"contract", "breach", "good", "material"} {
		if _, ok := weights[w]; !ok {
			t.Fatalf("missing weight for %q: %v", w, weights)
		}
	}

	for w, got := range weights {
		if math.Abs(got-salienceOffset) > 1e-9 {
			t.Fatalf("term %q: expected uniform weight %f, got %f", w, salienceOffset, got)
		}
	}
}

func TestEntityWeights(t *testing.T) {
	a := NewAnalyzer(Options{})

	weights := a.EntityWeights("The agreement between Acme Corporation and Google was signed on March 3, 2021 for $5,000.")

	cases := map[string]float64{
		"acme corporation": 1.0,
		"google":           0.5,
		"march 3, 2021":    1.5,
		"$5,000":           0.5,
	}

	for phrase, want := range cases {
		if got := weights[phrase]; math.Abs(got-want) > 1e-9 {
			t.Fatalf("phrase %q: expected %f, got %f (all: %v)", phrase, want, got, weights)
		}
	}

	if _, ok := weights["the"]; ok {
		t.Fatalf("capitalised stopword must not start an entity")
	}
}

func TestNewAnalyzerDefaultsToFrequency(t *testing.T) {
	if mode := NewAnalyzer(Options{Salience: "unknown"}).Salience(); mode != SalienceFrequency {
		t.Fatalf("unexpected salience mode: %s", mode)
	}
}
