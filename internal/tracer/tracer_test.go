package tracer

import (
	"math"
	"testing"
)

func TestUpdateStaysInsideClampBounds(t *testing.T) {
	grid := []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}
	for _, prior := range grid {
		for _, learn := range grid {
			for _, guess := range grid {
				for _, slip := range grid {
					p := Params{PLearn: learn, PGuess: guess, PSlip: slip}
					for _, correct := range []bool{true, false} {
						got := Update(prior, p, Observation{Correct: correct})
						if got < MasteryFloor || got > MasteryCeiling {
							t.Fatalf("Update(%v, %+v, correct=%v) = %v out of bounds", prior, p, correct, got)
						}
					}
				}
			}
		}
	}
}

func TestCorrectDominatesIncorrect(t *testing.T) {
	p := Params{PLearn: 0.1, PGuess: 0.25, PSlip: 0.15}
	for _, prior := range []float64{0.05, 0.3, 0.5, 0.7, 0.95} {
		up := Update(prior, p, Observation{Correct: true})
		down := Update(prior, p, Observation{Correct: false})
		if up < down {
			t.Fatalf("prior=%v: correct posterior %v < incorrect posterior %v", prior, up, down)
		}
	}
}

func TestZeroDenominatorFallsBackToPrior(t *testing.T) {
	// prior=0 with guess=0 on a correct answer zeroes both likelihood terms.
	p := Params{PLearn: 0, PGuess: 0, PSlip: 0}
	got := Update(0, p, Observation{Correct: true})
	if got != MasteryFloor {
		t.Fatalf("expected clamped prior fallback %v, got %v", MasteryFloor, got)
	}
}

func TestEightCorrectAnswersCrossMasteryThreshold(t *testing.T) {
	p := Params{PInit: 0.3, PLearn: 0.2, PGuess: 0.1, PSlip: 0.1}
	mastery := p.PInit
	crossedAt := -1
	for i := 0; i < 8; i++ {
		mastery = Update(mastery, p, Observation{Correct: true})
		if crossedAt == -1 && mastery >= 0.9 {
			crossedAt = i + 1
		}
	}
	if crossedAt == -1 {
		t.Fatalf("mastery never crossed 0.9 in 8 updates, ended at %v", mastery)
	}
}

func TestHintedSuccessIsWeakerEvidence(t *testing.T) {
	p := Params{PLearn: 0.1, PGuess: 0.2, PSlip: 0.1}
	prior := 0.4
	clean := Update(prior, p, Observation{Correct: true})
	hinted := Update(prior, p, Observation{Correct: true, HintUsed: true})
	if hinted >= clean {
		t.Fatalf("hinted posterior %v should be below clean posterior %v", hinted, clean)
	}
	if hinted <= prior {
		t.Fatalf("hinted success should still raise mastery: prior=%v got=%v", prior, hinted)
	}
}

func TestUpdateIsDeterministic(t *testing.T) {
	p := DefaultParams()
	a := Update(0.42, p, Observation{Correct: true})
	b := Update(0.42, p, Observation{Correct: true})
	if math.Abs(a-b) > 0 {
		t.Fatalf("same inputs produced %v and %v", a, b)
	}
}
