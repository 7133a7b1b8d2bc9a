package index

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jward/smalisig/internal/store"
)

// workItem holds everything an extraction worker needs.
type workItem struct {
	path    string
	content []byte
	fileID  int64
	batch   *store.BatchedStore
}

// indexFilesParallel indexes files using a three-phase parallel pipeline:
//
//	Phase A (serial):  Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse and extract via worker pool.
//	Phase C (serial):  Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) (IndexStats, error) {
	var stats IndexStats

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	var errs []error
	for _, path := range paths {
		item, skip, err := e.prepareFile(path, &stats)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		item.batch = store.NewBatchedStore(e.store, item.fileID)
		items = append(items, item)
	}

	if len(items) == 0 {
		return stats, joinIndexErrors(errs)
	}

	// ---- Phase B: Parallel extraction ----
	numWorkers := min(runtime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each item owns its BatchedStore, so workers never share writes.
			for item := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- result{item: item, err: err}
					continue
				}
				f, _, err := e.extract(ctx, item.batch, item)
				if err == nil {
					item.batch.SetFileInfo(f.Package, f.HasErrors)
				}
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		if res.err != nil {
			// Drop the record so the next run retries the file.
			_ = e.store.DeleteFile(res.item.fileID)
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			continue
		}
		ids, err := e.store.CommitBatch(res.item.batch)
		if err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			continue
		}
		stats.Indexed++
		stats.Methods += len(ids)
	}

	return stats, joinIndexErrors(errs)
}

func joinIndexErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
}

// prepareFile does Phase A work for a single file: hash check, cleanup, file record.
// Returns (item, skip, error). skip=true means the file is unchanged or unsupported.
func (e *Engine) prepareFile(path string, stats *IndexStats) (workItem, bool, error) {
	if !IsJavaFile(path) {
		return workItem{}, true, nil
	}
	stats.Files++

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		stats.Unchanged++
		return workItem{}, true, nil
	}

	if existing != nil {
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{
		path:    path,
		content: content,
		fileID:  fileID,
	}, false, nil
}
