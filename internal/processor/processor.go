// Package processor runs batches of extract, convert, script and copy work.
//
// A run is planned in full before anything executes: directories are
// expanded, scripts are loaded and the total is fixed. Items then execute
// one at a time on the calling goroutine. A failing item is classified and
// logged and the run moves on; cancellation stops at the next item boundary.
package processor

import (
	"context"
	"errors"
	"path/filepath"

	"xnbconv/internal/convert"
	"xnbconv/internal/extract"
	"xnbconv/internal/xnb"
	"xnbconv/pkg/imgutil"
)

type run struct {
	ctx   context.Context
	opts  Options
	state *runState

	compressor xnb.Compressor

	extracted int
	converted int
	backedUp  int
	restored  int
}

// Run processes pairs according to opts, sending snapshots on updates when
// it is non-nil. Run never closes updates. A cancelled run returns a summary
// with Cancelled set and a nil error.
func Run(ctx context.Context, pairs []Pair, opts Options, updates chan<- Progress) (Summary, error) {
	if opts.Include == (extract.Include{}) {
		opts.Include = extract.All()
	}
	r := &run{
		ctx:   ctx,
		opts:  opts,
		state: newRunState(ctx, opts, updates),
	}
	if opts.Compressor != nil && opts.Compressor.Available() {
		r.compressor = opts.Compressor
	}

	r.state.report("Planning...", true)
	err := r.execute(pairs)

	summary := Summary{
		Total:     r.state.total,
		Completed: r.state.completed,
		Extracted: r.extracted,
		Converted: r.converted,
		BackedUp:  r.backedUp,
		Restored:  r.restored,
		Log:       r.state.log,
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return summary, err
		}
		// The rest of the plan is discarded.
		r.state.total = r.state.completed
		summary.Total = r.state.completed
		summary.Cancelled = true
	}
	summary.Message = summaryMessage(summary, opts.Mode)
	r.state.finish(summary.Message)
	return summary, nil
}

func (r *run) execute(pairs []Pair) error {
	p, err := r.buildPlan(pairs)
	if err != nil {
		return err
	}
	r.state.total = p.total()

	if r.opts.Mode.IsCopy() {
		return r.copyAll(p.copies)
	}

	for _, item := range p.extracts {
		if err := r.extractItem(item); err != nil {
			return err
		}
	}
	if len(p.extracts) > 0 {
		r.state.report("Extract complete", true)
	}
	for _, item := range p.converts {
		if err := r.convertItem(item); err != nil {
			return err
		}
	}
	if len(p.converts) > 0 {
		r.state.report("Convert complete", true)
	}
	for _, sp := range p.scripts {
		if err := r.runScript(sp); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) copyAll(items []WorkItem) error {
	for _, item := range items {
		var err error
		if r.opts.Mode == ModeBackup {
			err = r.backupItem(item)
		} else {
			err = r.restoreItem(item)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) runScript(sp scriptPlan) error {
	before := [4]int{r.extracted, r.converted, r.backedUp, r.restored}

	for _, batch := range sp.backups {
		if batch.missing {
			r.state.record(LogEntry{Message: "Backup: " + batch.input, Reason: "directory does not exist", Kind: KindDirectoryNotFound, Path: batch.input})
			continue
		}
		for _, item := range batch.files {
			if err := r.backupItem(item); err != nil {
				return err
			}
		}
	}
	for _, batch := range sp.restores {
		if batch.missing {
			r.state.record(LogEntry{Message: "Restore: " + batch.input, Reason: "directory does not exist", Kind: KindDirectoryNotFound, Path: batch.input})
			continue
		}
		for _, item := range batch.files {
			if err := r.restoreItem(item); err != nil {
				return err
			}
		}
	}
	for _, item := range sp.extracts {
		if err := r.extractItem(item); err != nil {
			return err
		}
	}
	for _, item := range sp.converts {
		if err := r.convertItem(item); err != nil {
			return err
		}
	}

	counts := Summary{
		Extracted: r.extracted - before[0],
		Converted: r.converted - before[1],
		BackedUp:  r.backedUp - before[2],
		Restored:  r.restored - before[3],
	}
	r.state.report(countsMessage(counts, "script "+filepath.Base(sp.path)), true)
	return nil
}

// step runs one item. Failures are logged and absorbed; only cancellation
// is returned, in which case the item is not counted.
func (r *run) step(message, path string, forced bool, fn func() (bool, error)) (bool, error) {
	if err := r.ctx.Err(); err != nil {
		return false, err
	}
	r.state.report(message, forced)

	ok, err := fn()
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return false, ctxErr
		}
		r.state.logError(message, path, err)
		ok = false
	}
	r.state.completed++
	return ok, nil
}

func (r *run) extractItem(item WorkItem) error {
	waveBank := imgutil.Ext(item.Input) == ".xwb"
	ok, err := r.step("Extracting: "+item.Input, item.Input, waveBank, func() (bool, error) {
		if r.opts.Extractor == nil {
			return false, extract.ErrNotConfigured
		}
		if waveBank {
			return r.opts.Extractor.ExtractWaveBank(r.ctx, item.Input, filepath.Dir(item.Output))
		}
		return r.opts.Extractor.Extract(r.ctx, item.Input, item.Output, r.opts.Include)
	})
	if ok {
		r.extracted++
	}
	return err
}

func (r *run) convertItem(item WorkItem) error {
	ok, err := r.step("Converting: "+item.Input, item.Input, false, func() (bool, error) {
		var err error
		if imgutil.IsImageExt(imgutil.Ext(item.Input)) {
			opts := convert.ImageOptions{
				Premultiply:      item.Premultiply,
				HiDef:            r.opts.HiDef,
				HonorOrientation: r.opts.HonorOrientation,
			}
			if item.Compress {
				opts.Compressor = r.compressor
			}
			_, err = convert.ConvertImage(r.ctx, item.Input, item.Output, opts)
		} else {
			_, err = convert.ConvertAudio(r.ctx, item.Input, item.Output, convert.AudioOptions{
				Transcoder: r.opts.Transcoder,
				Scratch:    r.opts.Scratch,
			})
		}
		return err == nil, err
	})
	if ok {
		r.converted++
	}
	return err
}

func (r *run) backupItem(item WorkItem) error {
	ok, err := r.step("Backing up: "+item.Input, item.Input, false, func() (bool, error) {
		return backupFile(item.Input, item.Output)
	})
	if ok {
		r.backedUp++
	}
	return err
}

func (r *run) restoreItem(item WorkItem) error {
	ok, err := r.step("Restoring: "+item.Input, item.Input, false, func() (bool, error) {
		return restoreFile(item.Input, item.Output)
	})
	if ok {
		r.restored++
	}
	return err
}
