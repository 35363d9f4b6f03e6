package main

import (
	"context"
	randv2 "math/rand/v2"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xavl/lib/id"
	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/xlog"
)

type BenchConfig struct {
	N           int
	Seed        uint64
	CheckEvery  int
	Sequential  bool
	RemoveRatio float64
}

type BenchReport struct {
	Keys       int    `yaml:"keys"`
	Inserted   int    `yaml:"inserted"`
	Removed    int    `yaml:"removed"`
	Len        int64  `yaml:"len"`
	Height     int64  `yaml:"height"`
	InsertCost string `yaml:"insert_cost"`
	FindCost   string `yaml:"find_cost"`
	RemoveCost string `yaml:"remove_cost"`
}

type benchElem uint64

func (e benchElem) HashKey() infra.HashKey {
	return infra.HashKey(e)
}

// benchKeys returns n distinct keys. The random ones are reproducible by seed.
func benchKeys(cfg BenchConfig) ([]benchElem, error) {
	if cfg.Sequential {
		gen, err := id.MonotonicNonZeroIDFrom(cfg.Seed, 1)
		if err != nil {
			return nil, err
		}
		return lo.Times(cfg.N, func(int) benchElem {
			return benchElem(gen.Number())
		}), nil
	}
	rng := randv2.New(randv2.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	return lo.Uniq(lo.Times(cfg.N, func(int) benchElem {
		return benchElem(rng.Uint64())
	})), nil
}

func validateEvery[E any](idx tree.AVLTree[E], every, i int) error {
	if every <= 0 || (i+1)%every != 0 {
		return nil
	}
	return tree.Validate(idx)
}

func RunBench(ctx context.Context, logger xlog.XLogger, cfg BenchConfig) (*BenchReport, error) {
	if cfg.N <= 0 {
		return nil, infra.NewErrorStackf("[avlctl] bench size must be positive, got %d", cfg.N)
	}
	if cfg.RemoveRatio < 0 || cfg.RemoveRatio > 1 {
		return nil, infra.NewErrorStackf("[avlctl] remove ratio %v out of [0, 1]", cfg.RemoveRatio)
	}
	if logger == nil {
		logger = xlog.NewNopXLogger()
	}
	keys, err := benchKeys(cfg)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, ScenarioContextKey, "bench")
	idx := tree.NewHashableAVLTree[benchElem](tree.WithAVLTreeLogger[benchElem](logger.Named("avltree")))
	defer idx.Release()
	report := &BenchReport{Keys: len(keys)}

	start := time.Now()
	for i, key := range keys {
		if idx.InsertElement(key) {
			report.Inserted++
		}
		if err := validateEvery(idx, cfg.CheckEvery, i); err != nil {
			return report, infra.WrapErrorStack(err, "[avlctl] tree broken while inserting")
		}
	}
	report.InsertCost = time.Since(start).String()
	if err := ctx.Err(); err != nil {
		return report, infra.WrapErrorStack(err, "[avlctl] bench interrupted")
	}

	start = time.Now()
	for _, key := range keys {
		if _, ok := idx.Find(key.HashKey()); !ok {
			return report, infra.NewErrorStackf("[avlctl] inserted key %d not found", key)
		}
	}
	report.FindCost = time.Since(start).String()

	randv2.New(randv2.NewPCG(cfg.Seed, cfg.Seed)).Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	toRemove := keys[:int(float64(len(keys))*cfg.RemoveRatio)]
	start = time.Now()
	for i, key := range toRemove {
		if _, ok := idx.Remove(key.HashKey()); ok {
			report.Removed++
		}
		if err := validateEvery(idx, cfg.CheckEvery, i); err != nil {
			return report, infra.WrapErrorStack(err, "[avlctl] tree broken while removing")
		}
	}
	report.RemoveCost = time.Since(start).String()

	if err := tree.Validate(idx); err != nil {
		return report, infra.WrapErrorStack(err, "[avlctl] tree broken after bench")
	}
	report.Len = idx.Len()
	report.Height = tree.NodeHeight(idx.Root())
	logger.InfoContext(ctx, "bench done",
		zap.Int("keys", report.Keys),
		zap.Int64("height", report.Height),
		zap.String("insertCost", report.InsertCost),
		zap.String("removeCost", report.RemoveCost),
	)
	return report, nil
}
