package cfr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const checkpointFileVersion = 1

type recordCheckpoint struct {
	K           int       `json:"k"`
	Regret      []float64 `json:"regret"`
	StrategySum []float64 `json:"strategy_sum"`
}

type checkpoint struct {
	Version   int                         `json:"version"`
	Config    SolverConfig                `json:"config"`
	Records   map[string]recordCheckpoint `json:"records"`
}

// SaveCheckpoint writes store's full (non-frozen, resumable) state to
// path via a temp-file-then-rename so a reader never observes a partial
// write. Unlike Export, a checkpoint preserves raw regret, not just the
// derived average strategy, so training can continue from it. The
// iteration count is not saved: a Driver resumed onto the restored store
// numbers its iterations, and their weights, from 1 again.
func SaveCheckpoint(store *Store, cfg SolverConfig, path string) error {
	ck := checkpoint{
		Version: checkpointFileVersion,
		Config:  cfg,
		Records: make(map[string]recordCheckpoint),
	}

	for i := range store.shards {
		sh := &store.shards[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			regret := make([]float64, rec.k)
			stratSum := make([]float64, rec.k)
			for a := 0; a < rec.k; a++ {
				regret[a] = rec.regret[a].load()
				stratSum[a] = rec.stratSum[a].load()
			}
			ck.Records[keyString(key)] = recordCheckpoint{K: rec.k, Regret: regret, StrategySum: stratSum}
		}
		sh.mu.Unlock()
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cfr: create checkpoint dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cfr: create checkpoint temp file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ck); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cfr: encode checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cfr: close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cfr: persist checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a Store and the SolverConfig it was trained
// under from a file written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Store, SolverConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SolverConfig{}, err
	}
	defer f.Close()

	var ck checkpoint
	if err := json.NewDecoder(f).Decode(&ck); err != nil {
		return nil, SolverConfig{}, err
	}
	if ck.Version != checkpointFileVersion {
		return nil, SolverConfig{}, fmt.Errorf("cfr: unsupported checkpoint version %d", ck.Version)
	}
	if err := ck.Config.Validate(); err != nil {
		return nil, SolverConfig{}, fmt.Errorf("cfr: checkpoint config invalid: %w", err)
	}

	store := NewStore(ck.Config.UseCFRPlus)
	for keyStr, rc := range ck.Records {
		var rawKey uint64
		if _, err := fmt.Sscanf(keyStr, "%d", &rawKey); err != nil {
			return nil, SolverConfig{}, fmt.Errorf("cfr: malformed checkpoint key %q: %w", keyStr, err)
		}
		key := InfoKey(rawKey)

		rec, err := store.TouchOrCreate(key, rc.K)
		if err != nil {
			return nil, SolverConfig{}, err
		}
		for a := 0; a < rc.K; a++ {
			rec.regret[a].store(rc.Regret[a])
			rec.stratSum[a].store(rc.StrategySum[a])
		}
	}

	return store, ck.Config, nil
}
