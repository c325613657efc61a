// Package engine runs regulation schemas over parsed datasets: a
// fan-out/fan-in per-row pass, a whole-dataset duplicate pass, and the merge
// that produces the final report. Parallel execution is result-equivalent to
// sequential execution; chunk merge order is fixed by position, never by
// worker completion time.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"csvcert/internal/regulation"
	"csvcert/internal/rules"
	"csvcert/pkg/contracts/domain"
)

const (
	// Below this row count the goroutine fan-out costs more than it saves.
	defaultSequentialThreshold = 200

	// Chunks per worker. A small multiple keeps all workers busy without
	// excessive scheduling overhead.
	chunksPerWorker = 4

	// maxWorkers caps fan-out; validation is CPU-bound and datasets are
	// modest, so more workers only add contention.
	maxWorkers = 4
)

// Engine validates row sets against a schema. It is stateless between calls
// and safe for concurrent use.
type Engine struct {
	workers             int
	sequentialThreshold int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers overrides the worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithSequentialThreshold overrides the row count below which validation
// runs on the calling goroutine.
func WithSequentialThreshold(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.sequentialThreshold = n
		}
	}
}

// New builds an Engine with worker count derived from available CPUs.
func New(opts ...Option) *Engine {
	workers := runtime.NumCPU()
	if workers > maxWorkers {
		workers = maxWorkers
	}
	e := &Engine{
		workers:             workers,
		sequentialThreshold: defaultSequentialThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate applies the schema to every row and returns one result per row in
// input order. required lists the fields to check; mapping translates source
// headers to schema fields. The context is only consulted between chunks, so
// cancellation abandons the batch without corrupting partial state.
func (e *Engine) Validate(ctx context.Context, rows []domain.Row, schema *regulation.Schema, required []string, mapping domain.ColumnMapping) ([]domain.RowResult, error) {
	results := make([]domain.RowResult, len(rows))

	if len(rows) <= e.sequentialThreshold || e.workers <= 1 {
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = validateRow(row, schema, required, mapping)
		}
		return results, nil
	}

	chunkSize := (len(rows) + e.workers*chunksPerWorker - 1) / (e.workers * chunksPerWorker)
	if chunkSize < 1 {
		chunkSize = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		start, end := start, end

		// Each worker writes only its own disjoint slice of results, so
		// the merge is implicit and lock-free.
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				results[i] = validateRow(rows[i], schema, required, mapping)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// validateRow checks every required field plus the schema's cross-field
// rules. The first failing rule of a field settles that field; other fields
// are still checked.
func validateRow(row domain.Row, schema *regulation.Schema, required []string, mapping domain.ColumnMapping) domain.RowResult {
	get := func(field string) string { return mapping.Resolve(row, field) }

	code := strings.TrimSpace(get("code"))
	if code == "" {
		code = "N/A"
	}

	var errs []string
	for _, field := range required {
		fieldKey := strings.ToLower(field)
		value := get(field)
		empty := strings.TrimSpace(value) == ""

		if cond, ok := schema.Conditional[fieldKey]; ok {
			if empty {
				dep := strings.ToUpper(strings.TrimSpace(get(cond.DependsOn)))
				if dep == cond.Trigger {
					errs = append(errs, cond.Message)
				}
				continue
			}
		} else if empty {
			errs = append(errs, fmt.Sprintf("%s is required but missing", field))
			continue
		}

		for _, rule := range schema.RulesFor(fieldKey) {
			if msg := runRule(rule, value, get); msg != "" {
				errs = append(errs, fmt.Sprintf("%s: %s: '%s'", field, msg, strings.TrimSpace(value)))
				break
			}
		}
	}

	for _, cross := range schema.CrossRules {
		errs = append(errs, runRowRule(cross, get)...)
	}

	return domain.RowResult{
		Row:    row.Index,
		Code:   code,
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// runRule executes one rule, converting a panic into a failure message so a
// single bad value can never abort the batch.
func runRule(rule rules.Rule, value string, get rules.Getter) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("validation check failed: %v", r)
		}
	}()
	return rule(value, get)
}

func runRowRule(rule rules.RowRule, get rules.Getter) (msgs []string) {
	defer func() {
		if r := recover(); r != nil {
			msgs = []string{fmt.Sprintf("validation check failed: %v", r)}
		}
	}()
	return rule(get)
}
