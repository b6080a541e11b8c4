package calculation

import (
	"context"
	"runtime"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one request. Exactly one of Result and Err is set.
type BatchItem struct {
	Index      int                       `json:"index" yaml:"index"`
	EmployeeID string                    `json:"employee_id" yaml:"employee_id"`
	Result     *domain.CalculationResult `json:"result,omitempty" yaml:"result,omitempty"`
	Err        error                     `json:"-" yaml:"-"`
	Error      string                    `json:"error,omitempty" yaml:"error,omitempty"`
	Outcome    string                    `json:"outcome" yaml:"outcome"`
}

// BatchResult collects a batch run. Items are in request order.
type BatchResult struct {
	RunID     uuid.UUID   `json:"run_id" yaml:"run_id"`
	Started   time.Time   `json:"started" yaml:"started"`
	Finished  time.Time   `json:"finished" yaml:"finished"`
	Items     []BatchItem `json:"items" yaml:"items"`
	Succeeded int         `json:"succeeded" yaml:"succeeded"`
	Failed    int         `json:"failed" yaml:"failed"`
}

// RunBatch calculates many requests in parallel against one snapshot. A
// failing employee never affects the others: each item carries its own
// result or error. Cancelling ctx stops unstarted items, which are reported
// with the context error, and RunBatch returns ctx.Err() with the partial result.
func (e *Engine) RunBatch(ctx context.Context, requests []domain.CalculationRequest, workers int) (*BatchResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	snapshot := e.source.Snapshot()
	batch := &BatchResult{
		RunID:   uuid.New(),
		Started: time.Now(),
		Items:   make([]BatchItem, len(requests)),
	}
	e.Metrics.observeBatch()
	e.Logger.Infof("batch %s: %d requests, %d workers", batch.RunID, len(requests), workers)

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range requests {
		i := i
		g.Go(func() error {
			item := BatchItem{Index: i, EmployeeID: requests[i].EmployeeID}
			if err := ctx.Err(); err != nil {
				item.Err = err
			} else {
				result, err := e.CalculateWith(snapshot, requests[i])
				if err != nil {
					item.Err = err
				} else {
					item.Result = &result
				}
			}
			item.Outcome = Outcome(item.Err)
			if item.Err != nil {
				item.Error = item.Err.Error()
			}
			batch.Items[i] = item
			// per-item errors are isolated, never propagated to the group
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range batch.Items {
		if item.Err != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	batch.Finished = time.Now()
	e.Logger.Infof("batch %s: %d succeeded, %d failed in %s",
		batch.RunID, batch.Succeeded, batch.Failed, batch.Finished.Sub(batch.Started))

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}
