package processor

import (
	"io/fs"
	"os"
	"path/filepath"

	"xnbconv/internal/script"
	"xnbconv/pkg/imgutil"
)

// plan is the full set of work for a run, resolved before anything executes
// so the total is fixed up front.
type plan struct {
	extracts []WorkItem
	converts []WorkItem
	copies   []WorkItem
	scripts  []scriptPlan
}

type scriptPlan struct {
	path     string
	backups  []copyBatch
	restores []copyBatch
	extracts []WorkItem
	converts []WorkItem
}

// copyBatch is one Backup or Restore directory expanded to its files.
type copyBatch struct {
	input   string
	output  string
	files   []WorkItem
	missing bool
}

func (p *plan) total() int {
	n := len(p.extracts) + len(p.converts) + len(p.copies)
	for _, sp := range p.scripts {
		n += sp.total()
	}
	return n
}

func (sp *scriptPlan) total() int {
	n := len(sp.extracts) + len(sp.converts)
	for _, b := range sp.backups {
		n += len(b.files)
	}
	for _, b := range sp.restores {
		n += len(b.files)
	}
	return n
}

func (r *run) buildPlan(pairs []Pair) (*plan, error) {
	p := &plan{}
	var scripts []string

	for _, pair := range pairs {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		items, err := expand(pair.Input, pair.Output, r.opts.Compress, r.opts.Premultiply)
		if err != nil {
			r.state.logError("Reading: "+pair.Input, pair.Input, err)
			continue
		}
		if r.opts.Mode.IsCopy() {
			p.copies = append(p.copies, items...)
			continue
		}
		for _, item := range items {
			ext := imgutil.Ext(item.Input)
			switch {
			case imgutil.IsContainerExt(ext):
				if r.opts.Mode.extracts() && r.includesContainer(ext) {
					p.extracts = append(p.extracts, item)
				}
			case imgutil.IsImageExt(ext):
				if r.opts.Mode.converts() && r.opts.Include.Images {
					p.converts = append(p.converts, item)
				}
			case imgutil.IsAudioExt(ext):
				if r.opts.Mode.converts() && r.opts.Include.Sounds {
					p.converts = append(p.converts, item)
				}
			case ext == ".xml":
				if r.opts.Mode.scripts() {
					scripts = append(scripts, item.Input)
				}
			}
		}
	}

	if len(scripts) > 0 {
		r.state.report("Loading scripts...", true)
	}
	for _, path := range scripts {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		sp, ok := r.planScript(path)
		if ok {
			p.scripts = append(p.scripts, sp)
		}
	}
	return p, nil
}

func (r *run) includesContainer(ext string) bool {
	if ext == ".xwb" {
		return r.opts.Include.WaveBanks
	}
	return r.opts.Include.Assets()
}

func (r *run) planScript(path string) (scriptPlan, bool) {
	s, err := script.Load(path, script.Defaults{Compress: r.opts.Compress, Premultiply: r.opts.Premultiply})
	if err != nil {
		r.state.logError("Loading script: "+path, path, err)
		return scriptPlan{}, false
	}
	for _, w := range s.Warnings {
		r.state.warn("Reading script: "+path, w, path)
	}

	sp := scriptPlan{path: s.Path}
	sp.backups = expandBatches(s.Backups)
	sp.restores = expandBatches(s.Restores)
	for _, item := range s.Extracts {
		sp.extracts = append(sp.extracts, WorkItem(item))
	}
	for _, item := range s.Converts {
		sp.converts = append(sp.converts, WorkItem(item))
	}
	return sp, true
}

func expandBatches(items []script.Item) []copyBatch {
	batches := make([]copyBatch, 0, len(items))
	for _, item := range items {
		batch := copyBatch{input: item.Input, output: item.Output}
		if info, err := os.Stat(item.Input); err != nil || !info.IsDir() {
			batch.missing = true
		} else if files, err := expand(item.Input, item.Output, false, false); err == nil {
			batch.files = files
		} else {
			batch.missing = true
		}
		batches = append(batches, batch)
	}
	return batches
}

// expand turns a directory into one item per regular file beneath it, with
// each output re-rooted from input onto output. A file expands to itself.
func expand(input, output string, compress, premultiply bool) ([]WorkItem, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []WorkItem{{Input: input, Output: output, Compress: compress, Premultiply: premultiply}}, nil
	}

	skipOutput := filepath.Clean(output) != filepath.Clean(input) && isWithin(output, input)

	var items []WorkItem
	err = fs.WalkDir(os.DirFS(input), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		full := filepath.Join(input, filepath.FromSlash(path))
		if d.IsDir() {
			if skipOutput && path != "." && isWithin(full, output) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		items = append(items, WorkItem{
			Input:       full,
			Output:      filepath.Join(output, filepath.FromSlash(path)),
			Compress:    compress,
			Premultiply: premultiply,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
