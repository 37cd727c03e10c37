package state

import (
	"sync"
	"testing"
	"time"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

func TestWithCreatesDefaults(t *testing.T) {
	s := NewStore()
	key := Key{ContextID: "c1", LayerID: "DA-13"}

	var seen LoopState
	s.With(key, func(ls *LoopState) {
		seen = ls.Clone()
	})

	if seen.Beliefs != update.DefaultBeliefs() {
		t.Fatalf("expected default beliefs, got %+v", seen.Beliefs)
	}
	if seen.IterationCount != 0 {
		t.Fatalf("expected zero iterations, got %d", seen.IterationCount)
	}
	if seen.ContextID != "c1" || seen.LayerID != "DA-13" {
		t.Fatalf("unexpected key fields: %s/%s", seen.ContextID, seen.LayerID)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 state, got %d", s.Len())
	}
}

func TestWithMutatesInPlace(t *testing.T) {
	s := NewStore()
	key := Key{ContextID: "c1", LayerID: "DA-12"}

	for i := 0; i < 3; i++ {
		s.With(key, func(ls *LoopState) {
			ls.IterationCount++
			ls.Beliefs.HallucinationRisk += 0.1
		})
	}

	got, ok := s.Get(key)
	if !ok {
		t.Fatal("expected state to exist")
	}
	if got.IterationCount != 3 {
		t.Fatalf("expected 3 iterations, got %d", got.IterationCount)
	}
	if got.Beliefs.HallucinationRisk < 0.49 || got.Beliefs.HallucinationRisk > 0.51 {
		t.Fatalf("expected risk ~0.5, got %.4f", got.Beliefs.HallucinationRisk)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	key := Key{ContextID: "c1", LayerID: "X"}
	s.With(key, func(ls *LoopState) {
		ls.Failures = append(ls.Failures, update.FailureEvent{Code: update.FailureCoherenceDecay})
	})

	got, _ := s.Get(key)
	got.Failures[0].Code = update.FailureIterationOverflow
	got.Beliefs.Coherence = 0

	again, _ := s.Get(key)
	if again.Failures[0].Code != update.FailureCoherenceDecay {
		t.Fatal("mutating a copy leaked into the store")
	}
	if again.Beliefs.Coherence != 0.7 {
		t.Fatal("mutating copied beliefs leaked into the store")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := NewStore()
	key := Key{ContextID: "c1", LayerID: "DA-13"}
	s.With(key, func(ls *LoopState) {
		ls.IterationCount = 9
		ls.Beliefs = update.Beliefs{Coherence: 0.1, Reliability: 0.2, HallucinationRisk: 0.9}
	})

	if !s.Reset(key) {
		t.Fatal("expected reset to report an existing state")
	}
	if s.Reset(key) {
		t.Fatal("second reset should report nothing to reset")
	}

	s.With(key, func(ls *LoopState) {})
	got, _ := s.Get(key)
	if got.Beliefs != update.DefaultBeliefs() || got.IterationCount != 0 {
		t.Fatalf("expected defaults after reset, got %+v iter=%d", got.Beliefs, got.IterationCount)
	}
}

func TestContextsAreIsolated(t *testing.T) {
	s := NewStore()
	a := Key{ContextID: "session-a", LayerID: "DA-13"}
	b := Key{ContextID: "session-b", LayerID: "DA-13"}

	s.With(a, func(ls *LoopState) { ls.Beliefs.HallucinationRisk = 0.95 })
	s.With(b, func(ls *LoopState) {})

	got, _ := s.Get(b)
	if got.Beliefs.HallucinationRisk != 0.2 {
		t.Fatalf("context b saw context a's risk: %.2f", got.Beliefs.HallucinationRisk)
	}
}

func TestEvict(t *testing.T) {
	s := NewStore()
	s.With(Key{ContextID: "run-1", LayerID: "A"}, func(*LoopState) {})
	s.With(Key{ContextID: "run-1", LayerID: "B"}, func(*LoopState) {})
	s.With(Key{ContextID: "run-2", LayerID: "A"}, func(*LoopState) {})

	if n := s.Evict("run-1"); n != 2 {
		t.Fatalf("expected 2 evicted, got %d", n)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", s.Len())
	}
}

func TestListOrdered(t *testing.T) {
	s := NewStore()
	s.With(Key{ContextID: "b", LayerID: "DA-1"}, func(*LoopState) {})
	s.With(Key{ContextID: "a", LayerID: "X"}, func(*LoopState) {})
	s.With(Key{ContextID: "a", LayerID: "DA-13"}, func(*LoopState) {})

	list := s.List()
	want := []Key{{"a", "DA-13"}, {"a", "X"}, {"b", "DA-1"}}
	if len(list) != len(want) {
		t.Fatalf("expected %d states, got %d", len(want), len(list))
	}
	for i, k := range want {
		if list[i].Key() != k {
			t.Errorf("position %d: got %s, want %s", i, list[i].Key(), k)
		}
	}
}

func TestWithConcurrentSameKey(t *testing.T) {
	s := NewStore()
	key := Key{ContextID: "shared", LayerID: "DA-7"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.With(key, func(ls *LoopState) { ls.IterationCount++ })
		}()
	}
	wg.Wait()

	got, _ := s.Get(key)
	if got.IterationCount != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", got.IterationCount)
	}
}

func TestAppendFailuresKeepsNewest(t *testing.T) {
	ls := NewLoopState(Key{ContextID: "c1", LayerID: "DA-13"}, time.Time{})
	for i := 0; i < MaxFailures+10; i++ {
		ls.AppendFailures(update.FailureEvent{
			Code:      update.FailureHallucinationRisk,
			Timestamp: time.Unix(int64(i), 0),
		})
	}

	if len(ls.Failures) != MaxFailures {
		t.Fatalf("expected %d failures, got %d", MaxFailures, len(ls.Failures))
	}
	if got := ls.Failures[0].Timestamp.Unix(); got != 10 {
		t.Fatalf("expected oldest kept event 10, got %d", got)
	}
	if got := ls.Failures[MaxFailures-1].Timestamp.Unix(); got != MaxFailures+9 {
		t.Fatalf("expected newest event %d, got %d", MaxFailures+9, got)
	}
}
