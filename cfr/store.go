package cfr

import (
	"math"
	"sync"
	"sync/atomic"
)

const shardCount = 256

// atomicFloat is a 64-bit float accumulated via compare-and-swap loops so
// that many goroutines can add to it concurrently without a record-wide
// lock serializing the hot path.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat) store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

func (a *atomicFloat) add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// clampNonNegative atomically clamps the value to zero if it is currently
// negative. Used by CFR+ after each accumulate.
func (a *atomicFloat) clampNonNegative() {
	for {
		old := a.bits.Load()
		if math.Float64frombits(old) >= 0 {
			return
		}
		if a.bits.CompareAndSwap(old, math.Float64bits(0)) {
			return
		}
	}
}

// Record is the per-information-set accumulator: cumulative regret and
// cumulative reach-weighted strategy mass, one slot per action. Its action
// arity k is fixed on first touch and never changes.
type Record struct {
	k        int
	regret   []atomicFloat
	stratSum []atomicFloat
}

// K returns the fixed action arity of this record.
func (r *Record) K() int { return r.k }

type shard struct {
	mu      sync.Mutex
	records map[InfoKey]*Record
}

// Store is a concurrent mapping from InfoKey to Record. It is sharded so
// that record creation on distinct keys does not contend, and per-slot
// updates use atomic CAS rather than any shard- or record-wide lock.
type Store struct {
	shards   [shardCount]shard
	size     atomic.Int64
	cfrPlus  bool
}

// NewStore creates an empty store. cfrPlus controls whether Accumulate
// clamps regrets to non-negative after each update.
func NewStore(cfrPlus bool) *Store {
	s := &Store{cfrPlus: cfrPlus}
	for i := range s.shards {
		s.shards[i].records = make(map[InfoKey]*Record)
	}
	return s
}

func (s *Store) shardFor(key InfoKey) *shard {
	h := fmix64(uint64(key))
	return &s.shards[h%shardCount]
}

// fmix64 is the finalizer mix from MurmurHash3, used here purely to spread
// InfoKeys across shards; it is not used for the keys themselves.
func fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// TouchOrCreate returns the record for key, creating it with arity k on
// first visit. Idempotent: concurrent first-touches resolve to a single
// record and k ends consistent across all callers. A differing k on a
// later visit is a GameContractViolation, surfaced by the caller.
func (s *Store) TouchOrCreate(key InfoKey, k int) (*Record, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if rec, ok := sh.records[key]; ok {
		if rec.k != k {
			return nil, &GameContractViolation{Key: key, Reason: "action arity changed across visits"}
		}
		return rec, nil
	}

	rec := &Record{
		k:        k,
		regret:   make([]atomicFloat, k),
		stratSum: make([]atomicFloat, k),
	}
	sh.records[key] = rec
	s.size.Add(1)
	return rec, nil
}

// Lookup returns the existing record for key without creating one.
func (s *Store) Lookup(key InfoKey) (*Record, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[key]
	return rec, ok
}

// Size returns the number of information sets currently held.
func (s *Store) Size() int {
	return int(s.size.Load())
}

// CurrentStrategy derives a probability distribution from regret via
// regret matching: proportional to positive regret, uniform if none.
func (s *Store) CurrentStrategy(rec *Record) []float64 {
	sigma := make([]float64, rec.k)
	sum := 0.0
	for a := 0; a < rec.k; a++ {
		r := rec.regret[a].load()
		if r > 0 {
			sigma[a] = r
			sum += r
		}
	}
	if sum <= 0 {
		u := 1.0 / float64(rec.k)
		for a := range sigma {
			sigma[a] = u
		}
		return sigma
	}
	for a := range sigma {
		sigma[a] /= sum
	}
	return sigma
}

// Accumulate adds regretDelta[a] into regret[a] and reachWeight*sigma(a)*
// strategyWeight into stratSum[a], where sigma is the current strategy at
// the moment of the call. Safe under many concurrent callers; a concurrent
// reader of CurrentStrategy may observe a partially applied update, which
// CFR tolerates.
func (s *Store) Accumulate(rec *Record, regretDelta []float64, strategyWeight, reachWeight float64) {
	sigma := s.CurrentStrategy(rec)
	for a := 0; a < rec.k; a++ {
		rec.regret[a].add(regretDelta[a])
		if s.cfrPlus {
			rec.regret[a].clampNonNegative()
		}
		rec.stratSum[a].add(reachWeight * sigma[a] * strategyWeight)
	}
}

// AverageStrategy returns stratSum normalized to a distribution, uniform
// if the sum is zero (an infoset visited for strategy-sum purposes but
// never actually reached with positive reach).
func (s *Store) AverageStrategy(rec *Record) []float64 {
	avg := make([]float64, rec.k)
	sum := 0.0
	for a := 0; a < rec.k; a++ {
		v := rec.stratSum[a].load()
		avg[a] = v
		sum += v
	}
	if sum <= 0 {
		u := 1.0 / float64(rec.k)
		for a := range avg {
			avg[a] = u
		}
		return avg
	}
	for a := range avg {
		avg[a] /= sum
	}
	return avg
}

// FrozenRecord is a read-only snapshot of one information set's strategy.
type FrozenRecord struct {
	K              int
	AverageStrategy []float64
}

// Freeze produces an immutable snapshot of every record currently held,
// suitable for export. It does not block concurrent Accumulate calls for
// longer than it takes to copy each shard's map.
func (s *Store) Freeze() map[InfoKey]FrozenRecord {
	out := make(map[InfoKey]FrozenRecord, s.Size())
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			out[key] = FrozenRecord{K: rec.k, AverageStrategy: s.AverageStrategy(rec)}
		}
		sh.mu.Unlock()
	}
	return out
}
