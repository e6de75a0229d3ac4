package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mkravets/fieldops/internal/client/connectivity"
	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/client/repositories/syncitems"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/logging"
)

// Result is the outcome of one sync pass. Pending is 1 when the pass could
// not run at all (another pass in flight, or offline); it is not a queue
// depth.
type Result struct {
	Success int
	Failure int
	Pending int
}

var resultBusy = Result{Pending: 1}

// Priorities maps each entity type to its sync priority; higher syncs first.
type Priorities map[models.EntityType]int

// DefaultPriorities reflects the default urgency order: reports carry
// incident context, photos back them up, locations and time records are
// routine telemetry.
func DefaultPriorities() Priorities {
	return Priorities{
		models.EntityReport:     4,
		models.EntityPhoto:      3,
		models.EntityLocation:   2,
		models.EntityTimeRecord: 1,
	}
}

// Orchestrator coordinates sync passes over the per-entity adapters.
// At most one pass runs process-wide; concurrent callers get a busy Result
// instead of blocking.
type Orchestrator struct {
	store    syncitems.Repository
	monitor  connectivity.Monitor
	logger   logging.Logger
	adapters map[models.EntityType]Adapter
	order    []models.EntityType
	events   *broadcaster

	syncing atomic.Bool

	mu             sync.Mutex
	cancelSchedule context.CancelFunc
}

func NewOrchestrator(store syncitems.Repository, monitor connectivity.Monitor, logger logging.Logger,
	priorities Priorities, adapters ...Adapter) *Orchestrator {

	o := &Orchestrator{
		store:    store,
		monitor:  monitor,
		logger:   logger,
		adapters: make(map[models.EntityType]Adapter, len(adapters)),
		events:   newBroadcaster(),
	}

	for _, a := range adapters {
		o.adapters[a.EntityType()] = a
		o.order = append(o.order, a.EntityType())
		if ea, ok := a.(*entityAdapter); ok {
			ea.notify = o.events.publish
		}
	}

	// Fixed dispatch order for a pass: priority descending, name as the
	// tie-break so the order is deterministic.
	sort.Slice(o.order, func(i, j int) bool {
		pi, pj := priorities[o.order[i]], priorities[o.order[j]]
		if pi != pj {
			return pi > pj
		}
		return o.order[i] < o.order[j]
	})

	return o
}

// InProgress reports whether a sync pass is currently running.
func (o *Orchestrator) InProgress() bool {
	return o.syncing.Load()
}

// Subscribe returns a channel of progress events and an unsubscribe func.
func (o *Orchestrator) Subscribe() (<-chan StatusEvent, func()) {
	return o.events.subscribe()
}

// Status returns the live pending count per entity type.
func (o *Orchestrator) Status(ctx context.Context) (map[models.EntityType]int, error) {
	return o.store.Statistics(ctx)
}

// DeadItems lists items the queue gave up on, oldest first.
func (o *Orchestrator) DeadItems(ctx context.Context) ([]models.SyncItem, error) {
	return o.store.GetDead(ctx)
}

// RetryDead revives dead-lettered items so the next pass attempts them again.
func (o *Orchestrator) RetryDead(ctx context.Context) (int, error) {
	return o.store.ResetDead(ctx)
}

// SyncAll runs one full pass over every adapter in priority order. It
// returns resultBusy without touching any adapter when another pass is
// running or the device is offline.
func (o *Orchestrator) SyncAll(ctx context.Context) Result {
	if !o.syncing.CompareAndSwap(false, true) {
		return resultBusy
	}
	defer o.syncing.Store(false)

	if !o.monitor.IsConnected() {
		return resultBusy
	}

	o.events.publish(StatusEvent{EntityType: models.EntityAll, Status: StatusStarting})

	var res Result
	for _, et := range o.order {
		synced, failed := o.runAdapter(ctx, o.adapters[et])
		o.events.publish(StatusEvent{
			EntityType: et,
			Status:     StatusCompleted,
			Completed:  synced,
			Total:      synced + failed,
		})
		res.Success += synced
		res.Failure += failed
	}

	o.events.publish(StatusEvent{
		EntityType: models.EntityAll,
		Status:     StatusCompleted,
		Completed:  res.Success,
		Total:      res.Success + res.Failure,
	})
	o.logger.Info(ctx, "sync pass finished", "synced", res.Success, "failed", res.Failure)

	return res
}

// SyncEntityType runs one pass scoped to a single adapter, under the same
// busy/offline guard as SyncAll.
func (o *Orchestrator) SyncEntityType(ctx context.Context, entityType models.EntityType) (Result, error) {
	adapter, ok := o.adapters[entityType]
	if !ok {
		return Result{}, fmt.Errorf("%w: no adapter for entity type %q", common.ErrInvalidArgument, entityType)
	}

	if !o.syncing.CompareAndSwap(false, true) {
		return resultBusy, nil
	}
	defer o.syncing.Store(false)

	if !o.monitor.IsConnected() {
		return resultBusy, nil
	}

	o.events.publish(StatusEvent{EntityType: entityType, Status: StatusStarting})

	synced, failed := o.runAdapter(ctx, adapter)
	res := Result{Success: synced, Failure: failed}

	o.events.publish(StatusEvent{
		EntityType: entityType,
		Status:     StatusCompleted,
		Completed:  synced,
		Total:      synced + failed,
	})

	return res, nil
}

// SyncItem pushes a single record through its adapter and records the
// outcome in the queue, whether or not the item was queued before. Offline
// it returns false and leaves the queue untouched.
func (o *Orchestrator) SyncItem(ctx context.Context, entityType models.EntityType, entityID string) (bool, error) {
	if !entityType.Valid() {
		return false, fmt.Errorf("%w: invalid entity type %q", common.ErrInvalidArgument, entityType)
	}
	if entityID == "" {
		return false, fmt.Errorf("%w: empty entity id", common.ErrInvalidArgument)
	}
	adapter, ok := o.adapters[entityType]
	if !ok {
		return false, fmt.Errorf("%w: no adapter for entity type %q", common.ErrInvalidArgument, entityType)
	}

	if !o.monitor.IsConnected() {
		return false, nil
	}

	o.events.publish(StatusEvent{EntityType: entityType, Status: StatusStarting, Total: 1})

	ok, syncErr := adapter.SyncOne(ctx, entityID)
	if err := o.store.UpdateStatus(ctx, entityType, entityID, ok, syncErr); err != nil {
		o.logger.Error(ctx, "failed to record sync outcome",
			"entity_type", string(entityType), "entity_id", entityID, "error", err.Error())
	}

	status := StatusCompleted
	completed := 1
	if !ok {
		status = StatusFailed
		completed = 0
	}
	o.events.publish(StatusEvent{EntityType: entityType, Status: status, Completed: completed, Total: 1})

	return ok, syncErr
}

// runAdapter isolates one adapter: a panic is logged and folded into the
// failure count, never aborting the rest of the pass.
func (o *Orchestrator) runAdapter(ctx context.Context, adapter Adapter) (synced, failed int) {
	defer func() {
		if r := recover(); r != nil {
			failed++
			o.logger.Error(ctx, "sync adapter panicked",
				"entity_type", string(adapter.EntityType()), "panic", fmt.Sprint(r))
		}
	}()
	return adapter.SyncAllPending(ctx)
}

// ScheduleSync starts a recurring SyncAll every interval. A tick that finds
// a pass already running is a no-op. Calling it again replaces the previous
// schedule.
func (o *Orchestrator) ScheduleSync(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: sync interval must be positive", common.ErrInvalidArgument)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelSchedule != nil {
		o.cancelSchedule()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancelSchedule = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.SyncAll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// CancelScheduledSync stops the recurring sync. Safe to call with nothing
// scheduled.
func (o *Orchestrator) CancelScheduledSync() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelSchedule != nil {
		o.cancelSchedule()
		o.cancelSchedule = nil
	}
}

// WatchConnectivity blocks until ctx is cancelled, starting a background
// sync pass whenever connectivity comes back and the queue is non-empty.
// Quality-only changes while online do not trigger a pass.
func (o *Orchestrator) WatchConnectivity(ctx context.Context) {
	ch, unsubscribe := o.monitor.Subscribe()
	defer unsubscribe()

	wasConnected := o.monitor.IsConnected()

	for {
		select {
		case change, ok := <-ch:
			if !ok {
				return
			}
			restored := change.Connected && !wasConnected
			wasConnected = change.Connected
			if !restored {
				continue
			}
			items, err := o.store.GetAllPending(ctx)
			if err != nil {
				o.logger.Error(ctx, "failed to inspect sync queue", "error", err.Error())
				continue
			}
			if len(items) == 0 {
				continue
			}
			go o.backgroundSync(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) backgroundSync(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(ctx, "background sync panicked", "panic", fmt.Sprint(r))
		}
	}()
	res := o.SyncAll(ctx)
	if res.Pending == 0 {
		o.logger.Info(ctx, "connectivity-triggered sync finished",
			"synced", res.Success, "failed", res.Failure)
	}
}
