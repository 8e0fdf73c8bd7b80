package cfr

import (
	"math"
	"sync"
	"testing"
)

func TestTouchOrCreateIdempotent(t *testing.T) {
	s := NewStore(false)
	rec1, err := s.TouchOrCreate(InfoKey(1), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec2, err := s.TouchOrCreate(InfoKey(1), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec1 != rec2 {
		t.Fatalf("expected the same record on repeat touch")
	}
	if s.Size() != 1 {
		t.Fatalf("expected store size 1, got %d", s.Size())
	}
}

func TestTouchOrCreateArityMismatchIsContractViolation(t *testing.T) {
	s := NewStore(false)
	if _, err := s.TouchOrCreate(InfoKey(1), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := s.TouchOrCreate(InfoKey(1), 4)
	if err == nil {
		t.Fatalf("expected GameContractViolation for differing k")
	}
	var violation *GameContractViolation
	if !isGameContractViolation(err, &violation) {
		t.Fatalf("expected *GameContractViolation, got %T", err)
	}
}

func isGameContractViolation(err error, target **GameContractViolation) bool {
	v, ok := err.(*GameContractViolation)
	if ok {
		*target = v
	}
	return ok
}

func TestCurrentStrategyUniformWhenNoPositiveRegret(t *testing.T) {
	s := NewStore(false)
	rec, _ := s.TouchOrCreate(InfoKey(1), 4)
	sigma := s.CurrentStrategy(rec)
	for _, p := range sigma {
		if math.Abs(p-0.25) > 1e-12 {
			t.Fatalf("expected uniform 0.25, got %v", sigma)
		}
	}
}

func TestAccumulateAndCurrentStrategy(t *testing.T) {
	s := NewStore(false)
	rec, _ := s.TouchOrCreate(InfoKey(1), 2)

	s.Accumulate(rec, []float64{2, -1}, 1.0, 1.0)
	sigma := s.CurrentStrategy(rec)
	if math.Abs(sigma[0]-1.0) > 1e-9 || math.Abs(sigma[1]) > 1e-9 {
		t.Fatalf("expected all mass on action 0, got %v", sigma)
	}
}

func TestAverageStrategyUniformWhenUnvisited(t *testing.T) {
	s := NewStore(false)
	rec, _ := s.TouchOrCreate(InfoKey(1), 3)
	avg := s.AverageStrategy(rec)
	for _, p := range avg {
		if math.Abs(p-1.0/3.0) > 1e-12 {
			t.Fatalf("expected uniform average strategy, got %v", avg)
		}
	}
}

func TestCFRPlusClampsRegretNonNegative(t *testing.T) {
	s := NewStore(true)
	rec, _ := s.TouchOrCreate(InfoKey(1), 2)
	s.Accumulate(rec, []float64{-5, 1}, 1.0, 1.0)
	if rec.regret[0].load() < 0 {
		t.Fatalf("expected CFR+ to clamp negative regret to >= 0, got %v", rec.regret[0].load())
	}
}

func TestAccumulateConcurrent(t *testing.T) {
	s := NewStore(false)
	rec, _ := s.TouchOrCreate(InfoKey(1), 2)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Accumulate(rec, []float64{1, 0}, 1.0, 1.0)
		}()
	}
	wg.Wait()

	if rec.regret[0].load() != 100 {
		t.Fatalf("expected regret[0] == 100 after 100 concurrent adds of 1, got %v", rec.regret[0].load())
	}
}

func TestFreezeProducesConsistentSnapshot(t *testing.T) {
	s := NewStore(false)
	rec, _ := s.TouchOrCreate(InfoKey(42), 2)
	s.Accumulate(rec, []float64{1, 3}, 1.0, 1.0)

	frozen := s.Freeze()
	fr, ok := frozen[InfoKey(42)]
	if !ok {
		t.Fatalf("expected key 42 in frozen snapshot")
	}
	if fr.K != 2 {
		t.Fatalf("expected k=2, got %d", fr.K)
	}
	sum := fr.AverageStrategy[0] + fr.AverageStrategy[1]
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("expected average strategy to sum to 1, got %v", fr.AverageStrategy)
	}
}
