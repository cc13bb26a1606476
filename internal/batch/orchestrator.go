// Package batch runs the bulk pipeline: plan, assemble and store one
// recording per selected record, isolating per-record failures.
package batch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/assemble"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/bus"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/protocol"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/script"
)

// OutputMode selects where finished recordings go.
type OutputMode string

const (
	OutputInline OutputMode = "inline"
	OutputPath   OutputMode = "path"
)

// Result enumerates every selected record exactly once.
type Result struct {
	BatchID   string
	Succeeded []protocol.BatchSucceeded
	Failed    []protocol.BatchFailed
}

// Orchestrator drives plan → assemble → encode → sink per record.
type Orchestrator struct {
	cfg       config.BatchConfig
	assembler *assemble.Assembler
	sink      Sink
	bus       *bus.Client
	log       *slog.Logger

	succeededCtr metric.Int64Counter
	failedCtr    metric.Int64Counter
}

func NewOrchestrator(cfg config.BatchConfig, assembler *assemble.Assembler, sink Sink, busClient *bus.Client, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		assembler: assembler,
		sink:      sink,
		bus:       busClient,
		log:       log.With(slog.String("component", "batch")),
	}
	meter := otel.Meter("github.com/zenitsu0509/bharatwork-tts-backend/batch")
	if ctr, err := meter.Int64Counter("bharatwork.batch.records.succeeded", metric.WithDescription("Records rendered successfully")); err == nil {
		o.succeededCtr = ctr
	}
	if ctr, err := meter.Int64Counter("bharatwork.batch.records.failed", metric.WithDescription("Records that failed rendering")); err == nil {
		o.failedCtr = ctr
	}
	return o
}

type recordOutcome struct {
	index     int
	succeeded *protocol.BatchSucceeded
	failed    *protocol.BatchFailed
}

// Run processes the selected records in ascending index order. Every
// selected index lands in exactly one of Succeeded or Failed; a
// failing record never aborts the batch. A nil sink falls back to the
// orchestrator's default.
func (o *Orchestrator) Run(ctx context.Context, recs []script.Record, selected []int, scr *script.Script, mode OutputMode, sink Sink) Result {
	if sink == nil {
		sink = o.sink
	}
	result := Result{BatchID: uuid.NewString()}

	indices := normalizeSelection(selected, len(recs))
	outcomes := make([]recordOutcome, len(indices))

	workers := o.cfg.MaxConcurrency
	if workers > len(indices) {
		workers = len(indices)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, idx := range indices {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot, idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[slot] = o.processIndex(ctx, result.BatchID, recs, idx, scr, mode, sink)
		}(i, idx)
	}
	wg.Wait()

	for _, out := range outcomes {
		if out.succeeded != nil {
			result.Succeeded = append(result.Succeeded, *out.succeeded)
		} else if out.failed != nil {
			result.Failed = append(result.Failed, *out.failed)
		}
	}

	if o.succeededCtr != nil {
		o.succeededCtr.Add(ctx, int64(len(result.Succeeded)))
	}
	if o.failedCtr != nil {
		o.failedCtr.Add(ctx, int64(len(result.Failed)))
	}
	o.publishBatchDone(result)
	o.log.Info("batch finished",
		slog.String("batch_id", result.BatchID),
		slog.Int("succeeded", len(result.Succeeded)),
		slog.Int("failed", len(result.Failed)))
	return result
}

func (o *Orchestrator) processIndex(ctx context.Context, batchID string, recs []script.Record, idx int, scr *script.Script, mode OutputMode, sink Sink) recordOutcome {
	if idx < 0 || idx >= len(recs) {
		err := fault.New(fault.Validation, "selected index %d out of range (%d records)", idx, len(recs))
		o.publishRecordFailed(batchID, idx, "", err)
		return recordOutcome{index: idx, failed: &protocol.BatchFailed{Index: idx, Reason: err.Error()}}
	}

	rec := recs[idx]
	out, err := o.processRecord(ctx, rec, scr, mode, sink)
	if err != nil {
		o.log.Warn("record failed",
			slog.String("batch_id", batchID),
			slog.Int("index", idx),
			slog.String("error", err.Error()))
		o.publishRecordFailed(batchID, idx, rec.Name, err)
		return recordOutcome{index: idx, failed: &protocol.BatchFailed{Index: idx, Reason: err.Error()}}
	}
	o.publishRecordDone(batchID, *out)
	return recordOutcome{index: idx, succeeded: out}
}

func (o *Orchestrator) processRecord(ctx context.Context, rec script.Record, scr *script.Script, mode OutputMode, sink Sink) (*protocol.BatchSucceeded, error) {
	plan, err := script.Plan(rec, scr)
	if err != nil {
		return nil, err
	}
	merged, err := o.assembler.Assemble(ctx, plan)
	if err != nil {
		return nil, err
	}
	encoded, err := audio.EncodeWAV(merged)
	if err != nil {
		return nil, fault.Wrap(fault.Assembly, err, "encode merged audio")
	}

	out := &protocol.BatchSucceeded{
		Index:       rec.Index,
		Name:        rec.Name,
		CompanyName: rec.CompanyName,
	}
	if mode == OutputPath {
		if sink == nil {
			return nil, fault.New(fault.Storage, "no output sink configured for path mode")
		}
		path, err := sink.Store(OutputName(rec.Name, rec.CompanyName), encoded)
		if err != nil {
			return nil, err
		}
		out.FilePath = path
	} else {
		out.AudioBase64 = base64.StdEncoding.EncodeToString(encoded)
	}
	return out, nil
}

func (o *Orchestrator) publishRecordDone(batchID string, rec protocol.BatchSucceeded) {
	o.publish(protocol.SubjectRecordDone, protocol.RecordEvent{
		BatchID:   batchID,
		Index:     rec.Index,
		Name:      rec.Name,
		FilePath:  rec.FilePath,
		Timestamp: time.Now().UTC(),
	})
}

func (o *Orchestrator) publishRecordFailed(batchID string, index int, name string, cause error) {
	o.publish(protocol.SubjectRecordFailed, protocol.RecordEvent{
		BatchID:   batchID,
		Index:     index,
		Name:      name,
		Reason:    cause.Error(),
		Timestamp: time.Now().UTC(),
	})
}

func (o *Orchestrator) publishBatchDone(result Result) {
	o.publish(protocol.SubjectBatchDone, protocol.BatchEvent{
		BatchID:   result.BatchID,
		Total:     len(result.Succeeded) + len(result.Failed),
		Succeeded: len(result.Succeeded),
		Failed:    len(result.Failed),
		Timestamp: time.Now().UTC(),
	})
}

func (o *Orchestrator) publish(subject string, payload any) {
	if o.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := o.bus.Publish(subject, data); err != nil {
		o.log.Warn("failed to publish progress event",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}

// normalizeSelection deduplicates and sorts the requested indices. A
// nil selection means every record.
func normalizeSelection(selected []int, total int) []int {
	if selected == nil {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all
	}
	seen := make(map[int]struct{}, len(selected))
	var out []int
	for _, idx := range selected {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
