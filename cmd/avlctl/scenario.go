package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/kv"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/xlog"
)

type opType string

const (
	opInsert opType = "insert"
	opRemove opType = "remove"
	opFind   opType = "find"
)

const (
	keyByID   = "id"
	keyByName = "name"
)

// ScenarioContextKey carries the scenario name to the logger context fields.
const ScenarioContextKey = "scenario"

type Op struct {
	Op     opType   `yaml:"op"`
	Keys   []uint64 `yaml:"keys,omitempty"`
	Names  []string `yaml:"names,omitempty"`
	Expect *bool    `yaml:"expect,omitempty"`
}

type Scenario struct {
	Name  string `yaml:"name"`
	KeyBy string `yaml:"key_by,omitempty"`
	Ops   []Op   `yaml:"ops"`
	Print bool   `yaml:"print,omitempty"`
}

type Report struct {
	Scenario   string `yaml:"scenario"`
	Inserted   int    `yaml:"inserted"`
	Duplicates int    `yaml:"duplicates"`
	Removed    int    `yaml:"removed"`
	Missing    int    `yaml:"missing"`
	Found      int    `yaml:"found"`
	NotFound   int    `yaml:"not_found"`
	Len        int64  `yaml:"len"`
	Height     int64  `yaml:"height"`
}

// record is the caller-owned element, the tree only references it.
type record struct {
	id   uint64
	name string
}

func LoadScenario(r io.Reader) (*Scenario, error) {
	sc := &Scenario{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		return nil, infra.WrapErrorStack(err, "[avlctl] decode scenario")
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[avlctl] open scenario")
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadScenario(f)
}

func (sc *Scenario) validate() error {
	switch sc.KeyBy {
	case "":
		sc.KeyBy = keyByID
	case keyByID, keyByName:
	default:
		return infra.NewErrorStackf("[avlctl] unknown key_by %q", sc.KeyBy)
	}
	for i, op := range sc.Ops {
		switch op.Op {
		case opInsert, opRemove, opFind:
		default:
			return infra.NewErrorStackf("[avlctl] op #%d: unknown op %q", i, op.Op)
		}
		if sc.KeyBy == keyByID && len(op.Names) > 0 {
			return infra.NewErrorStackf("[avlctl] op #%d: names need key_by %q", i, keyByName)
		}
		if sc.KeyBy == keyByName && len(op.Keys) > 0 {
			return infra.NewErrorStackf("[avlctl] op #%d: keys need key_by %q", i, keyByID)
		}
	}
	return nil
}

func (sc *Scenario) hashField() infra.HashField[*record] {
	if sc.KeyBy == keyByName {
		return kv.StringHashField(func(r *record) string { return r.name })
	}
	return func(r *record) infra.HashKey { return r.id }
}

// records expands the op operands, names are hashed the same way the tree
// orders them.
func (sc *Scenario) records(op Op) []*record {
	recs := make([]*record, 0, len(op.Keys)+len(op.Names))
	for _, key := range op.Keys {
		recs = append(recs, &record{id: key, name: fmt.Sprintf("record-%d", key)})
	}
	for _, name := range op.Names {
		recs = append(recs, &record{name: name})
	}
	return recs
}

type Runner struct {
	logger xlog.XLogger
	out    io.Writer
	// Validate the tree after every n-th op, 0 disables it.
	checkEvery int
}

func NewRunner(logger xlog.XLogger, out io.Writer, checkEvery int) *Runner {
	if logger == nil {
		logger = xlog.NewNopXLogger()
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		logger:     logger,
		out:        out,
		checkEvery: checkEvery,
	}
}

// Run replays the scenario against a fresh tree. Failed expectations are
// collected, a broken tree invariant stops the replay.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	idx, err := tree.NewAVLTree[*record](sc.hashField(), tree.WithAVLTreeLogger[*record](r.logger.Named("avltree")))
	if err != nil {
		return nil, err
	}
	defer idx.Release()

	ctx = context.WithValue(ctx, ScenarioContextKey, sc.Name)
	report := &Report{Scenario: sc.Name}
	var merr error
	for i, op := range sc.Ops {
		if err := ctx.Err(); err != nil {
			return report, infra.WrapErrorStack(err, "[avlctl] replay interrupted")
		}
		hashField := idx.HashField()
		for _, rec := range sc.records(op) {
			key := hashField(rec)
			var got bool
			switch op.Op {
			case opInsert:
				if got = idx.InsertElement(rec); got {
					report.Inserted++
				} else {
					report.Duplicates++
					if op.Expect == nil {
						r.logger.WarnContext(ctx, "duplicate key", zap.Int("index", i), zap.Uint64("key", key))
					}
				}
			case opRemove:
				var node tree.AVLNode[*record]
				if node, got = idx.Remove(key); got {
					report.Removed++
					tree.DestroyNode(node)
				} else {
					report.Missing++
					if op.Expect == nil {
						r.logger.WarnContext(ctx, "remove missing key", zap.Int("index", i), zap.Uint64("key", key))
					}
				}
			case opFind:
				if _, got = idx.Find(key); got {
					report.Found++
				} else {
					report.NotFound++
				}
			}
			if op.Expect != nil && *op.Expect != got {
				err := infra.NewErrorStackf("[avlctl] op #%d %s key %d: expect %t, got %t", i, op.Op, key, *op.Expect, got)
				r.logger.ErrorContext(ctx, err, "expectation failed", zap.Int("index", i), zap.Uint64("key", key))
				merr = multierr.Append(merr, err)
			}
		}
		r.logger.DebugContext(ctx, "op replayed",
			zap.Int("index", i),
			zap.String("op", string(op.Op)),
			zap.Int64("len", idx.Len()),
		)
		if r.checkEvery > 0 && (i+1)%r.checkEvery == 0 {
			if err := tree.Validate[*record](idx); err != nil {
				return report, infra.WrapErrorStack(err, fmt.Sprintf("[avlctl] tree broken after op #%d", i))
			}
		}
	}

	if err := tree.Validate[*record](idx); err != nil {
		return report, infra.WrapErrorStack(err, "[avlctl] tree broken after replay")
	}
	report.Len = idx.Len()
	report.Height = tree.NodeHeight(idx.Root())
	if sc.Print {
		_, _ = fmt.Fprintf(r.out, "# %s\n", sc.Name)
		tree.Print[*record](r.out, idx)
	}
	return report, merr
}

func writeReport(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return infra.WrapErrorStack(err, "[avlctl] encode report")
	}
	return enc.Close()
}
