package cfr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opencoff/go-chd"
)

const snapshotFileVersion = 1

// SnapshotMetadata describes how a Solution Snapshot was produced.
type SnapshotMetadata struct {
	Version             int           `json:"version"`
	ConfigID            string        `json:"config_id"`
	IterationsCompleted int64         `json:"iterations_completed"`
	FinalCI             float64       `json:"final_convergence_indicator"`
	FinalExploitability float64       `json:"final_exploitability,omitempty"`
	HasExploitability   bool          `json:"has_exploitability"`
	WallClockElapsed    time.Duration `json:"wall_clock_elapsed"`
	StopReason          string        `json:"stop_reason"`
}

// StrategyEntry is one information set's exported strategy.
type StrategyEntry struct {
	Actions  []string  `json:"actions"`
	Strategy []float64 `json:"strategy"`
	History  string    `json:"history,omitempty"`
}

// Snapshot is the exported solution: metadata plus a mapping from a
// stable string form of the information key to its strategy.
type Snapshot struct {
	Metadata   SnapshotMetadata         `json:"metadata"`
	Strategies map[string]StrategyEntry `json:"strategies"`
}

// Exporter materializes a Store's frozen average strategy as a read-only
// Snapshot, optionally backed by a minimal perfect hash index over the
// frozen keys for fast lookup by downstream readers.
type Exporter struct {
	game Game
}

// NewExporter builds an exporter for game, used to supply action labels
// and key labels on export (see ActionLabeler and KeyLabeler).
func NewExporter(game Game) *Exporter {
	return &Exporter{game: game}
}

// Export freezes store and builds a Snapshot with the given metadata.
func (e *Exporter) Export(store *Store, meta SnapshotMetadata) Snapshot {
	meta.Version = snapshotFileVersion
	frozen := store.Freeze()

	labeler, _ := e.game.(ActionLabeler)
	keyLabeler, _ := e.game.(KeyLabeler)

	strategies := make(map[string]StrategyEntry, len(frozen))
	for key, rec := range frozen {
		var actions []string
		if labeler != nil {
			actions = labeler.ActionLabels(key)
		}
		if len(actions) != rec.K {
			actions = positionalLabels(rec.K)
		}

		history := ""
		if keyLabeler != nil {
			history = keyLabeler.KeyLabel(key)
		}

		strategies[keyString(key)] = StrategyEntry{
			Actions:  actions,
			Strategy: rec.AverageStrategy,
			History:  history,
		}
	}

	return Snapshot{Metadata: meta, Strategies: strategies}
}

func positionalLabels(k int) []string {
	labels := make([]string, k)
	for i := range labels {
		labels[i] = fmt.Sprintf("a%d", i)
	}
	return labels
}

func keyString(key InfoKey) string {
	return fmt.Sprintf("%d", uint64(key))
}

// Save writes the snapshot to path as indented JSON via a temp-file-then-
// rename so a reader never observes a partially written file.
func (s Snapshot) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cfr: create snapshot dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cfr: create snapshot temp file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cfr: encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cfr: close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cfr: persist snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously exported solution from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Metadata.Version != snapshotFileVersion {
		return nil, fmt.Errorf("cfr: unsupported snapshot version %d", snap.Metadata.Version)
	}
	return &snap, nil
}

// FrozenIndex is a read-only, minimally-perfect-hashed index over a
// snapshot's information keys, used by runtime policy lookups that want
// O(1) access without a general-purpose hash map's memory overhead.
type FrozenIndex struct {
	keys     []string
	entries  []StrategyEntry
	hash     *chd.CHD
}

// BuildFrozenIndex constructs a minimal perfect hash over snap's keys.
// Returns an error if chd fails to build a perfect hash for the key set
// (extremely rare in practice for sets above a handful of keys).
func BuildFrozenIndex(snap *Snapshot) (*FrozenIndex, error) {
	keys := make([]string, 0, len(snap.Strategies))
	for k := range snap.Strategies {
		keys = append(keys, k)
	}

	builder, err := chd.New(len(keys), 0)
	if err != nil {
		return nil, fmt.Errorf("cfr: create chd builder: %w", err)
	}
	for _, k := range keys {
		builder.Add([]byte(k))
	}
	h, err := builder.Freeze()
	if err != nil {
		return nil, fmt.Errorf("cfr: freeze perfect hash: %w", err)
	}

	entries := make([]StrategyEntry, len(keys))
	idx := &FrozenIndex{keys: make([]string, len(keys)), entries: entries, hash: h}
	for _, k := range keys {
		slot := h.Find([]byte(k))
		idx.keys[slot] = k
		idx.entries[slot] = snap.Strategies[k]
	}
	return idx, nil
}

// Lookup returns the strategy entry for key, if present in the index.
func (fi *FrozenIndex) Lookup(key string) (StrategyEntry, bool) {
	slot := fi.hash.Find([]byte(key))
	if slot >= uint64(len(fi.keys)) || fi.keys[slot] != key {
		return StrategyEntry{}, false
	}
	return fi.entries[slot], true
}

// Fingerprint derives a compact InfoKey from an arbitrary byte sequence,
// for games whose natural key is larger than 8 bytes. Uses FNV-1a plus
// the same avalanche mix as the store's shard selector so keys stay well
// distributed.
func Fingerprint(b []byte) InfoKey {
	var h uint64 = 0xcbf29ce484222325
	for _, c := range b {
		h ^= uint64(c)
		h *= 0x100000001b3
	}
	return InfoKey(fmix64(h))
}
