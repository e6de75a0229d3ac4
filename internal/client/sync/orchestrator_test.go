package sync

import (
	"context"
	"errors"
	"strconv"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/fieldops/internal/client/connectivity"
	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/client/repositories/reports"
	"github.com/mkravets/fieldops/internal/client/repositories/syncitems"
	"github.com/mkravets/fieldops/internal/client/repositories/timerecords"
	"github.com/mkravets/fieldops/internal/common"
)

type fakeMonitor struct {
	connected atomic.Bool

	mu   stdsync.Mutex
	subs []chan connectivity.Change
}

func (m *fakeMonitor) IsConnected() bool { return m.connected.Load() }

func (m *fakeMonitor) Subscribe() (<-chan connectivity.Change, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan connectivity.Change, 4)
	m.subs = append(m.subs, ch)
	return ch, func() {}
}

func (m *fakeMonitor) setConnected(connected bool) {
	m.connected.Store(connected)
	m.publish(connectivity.Change{Connected: connected, Quality: connectivity.QualityGood})
}

// setQuality emits a quality-only change while staying connected.
func (m *fakeMonitor) setQuality(q connectivity.Quality) {
	m.publish(connectivity.Change{Connected: m.connected.Load(), Quality: q})
}

func (m *fakeMonitor) publish(change connectivity.Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		ch <- change
	}
}

type fakeAdapter struct {
	et     models.EntityType
	synced int
	failed int
	panics bool
	block  chan struct{}            // when set, SyncAllPending waits for close
	drain  func(ctx context.Context) // optional extra work inside a pass

	calls    atomic.Int32
	oneCalls atomic.Int32
	oneOK    bool
	oneErr   error

	order *[]models.EntityType
}

func (f *fakeAdapter) EntityType() models.EntityType { return f.et }
func (f *fakeAdapter) InProgress() bool              { return false }

func (f *fakeAdapter) SyncOne(ctx context.Context, id string) (bool, error) {
	f.oneCalls.Add(1)
	return f.oneOK, f.oneErr
}

func (f *fakeAdapter) SyncAllPending(ctx context.Context) (int, int) {
	f.calls.Add(1)
	if f.order != nil {
		*f.order = append(*f.order, f.et)
	}
	if f.block != nil {
		<-f.block
	}
	if f.panics {
		panic("adapter blew up")
	}
	if f.drain != nil {
		f.drain(ctx)
	}
	return f.synced, f.failed
}

func onlineMonitor() *fakeMonitor {
	m := &fakeMonitor{}
	m.connected.Store(true)
	return m
}

func TestSyncAll_Offline_NeverTouchesAdapters(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord}
	o := NewOrchestrator(store, &fakeMonitor{}, testLogger(), DefaultPriorities(), a)

	res := o.SyncAll(context.Background())

	assert.Equal(t, Result{Pending: 1}, res)
	assert.Equal(t, int32(0), a.calls.Load())
}

func TestSyncAll_AtMostOnePass(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)

	release := make(chan struct{})
	a := &fakeAdapter{et: models.EntityTimeRecord, synced: 1, block: release}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), a)

	first := make(chan Result, 1)
	go func() { first <- o.SyncAll(context.Background()) }()

	require.Eventually(t, o.InProgress, time.Second, time.Millisecond)

	// every concurrent caller is turned away immediately
	assert.Equal(t, Result{Pending: 1}, o.SyncAll(context.Background()))
	assert.Equal(t, Result{Pending: 1}, o.SyncAll(context.Background()))

	close(release)
	res := <-first
	assert.Equal(t, Result{Success: 1}, res)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.False(t, o.InProgress())
}

func TestSyncAll_PartialFailureIsolation(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)

	bad := &fakeAdapter{et: models.EntityReport, panics: true}
	good := &fakeAdapter{et: models.EntityTimeRecord, synced: 2}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), bad, good)

	res := o.SyncAll(context.Background())

	assert.Equal(t, 2, res.Success)
	assert.GreaterOrEqual(t, res.Failure, 1)
	assert.Equal(t, int32(1), good.calls.Load())
}

func TestSyncAll_DispatchesInPriorityOrder(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)

	var order []models.EntityType
	adapters := []Adapter{
		&fakeAdapter{et: models.EntityTimeRecord, order: &order},
		&fakeAdapter{et: models.EntityPhoto, order: &order},
		&fakeAdapter{et: models.EntityReport, order: &order},
		&fakeAdapter{et: models.EntityLocation, order: &order},
	}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), adapters...)

	o.SyncAll(context.Background())

	assert.Equal(t, []models.EntityType{
		models.EntityReport, models.EntityPhoto, models.EntityLocation, models.EntityTimeRecord,
	}, order)
}

func TestSyncAll_EmitsStartingAndCompletedEvents(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord, synced: 2, failed: 1}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), a)

	events, unsub := o.Subscribe()
	defer unsub()

	o.SyncAll(context.Background())

	e := <-events
	assert.Equal(t, models.EntityAll, e.EntityType)
	assert.Equal(t, StatusStarting, e.Status)

	e = <-events
	assert.Equal(t, models.EntityTimeRecord, e.EntityType)
	assert.Equal(t, StatusCompleted, e.Status)
	assert.Equal(t, 2, e.Completed)
	assert.Equal(t, 3, e.Total)

	e = <-events
	assert.Equal(t, models.EntityAll, e.EntityType)
	assert.Equal(t, StatusCompleted, e.Status)
	assert.Equal(t, 2, e.Completed)
	assert.Equal(t, 3, e.Total)
}

func TestSyncEntityType(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	tr := &fakeAdapter{et: models.EntityTimeRecord, synced: 1}
	rep := &fakeAdapter{et: models.EntityReport, synced: 1}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), tr, rep)

	res, err := o.SyncEntityType(context.Background(), models.EntityReport)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: 1}, res)
	assert.Equal(t, int32(1), rep.calls.Load())
	assert.Equal(t, int32(0), tr.calls.Load())
}

func TestSyncEntityType_UnknownType(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities())

	_, err := o.SyncEntityType(context.Background(), models.EntityReport)
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestSyncItem_ValidatesArguments(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord, oneOK: true}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), a)

	_, err := o.SyncItem(context.Background(), "bogus", "1")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))

	_, err = o.SyncItem(context.Background(), models.EntityTimeRecord, "")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))

	assert.Equal(t, int32(0), a.oneCalls.Load())
}

func TestSyncItem_Offline_QueueUntouched(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord, oneOK: true}
	o := NewOrchestrator(store, &fakeMonitor{}, testLogger(), DefaultPriorities(), a)

	require.NoError(t, store.Add(ctx, models.EntityTimeRecord, "123", 1))

	ok, err := o.SyncItem(ctx, models.EntityTimeRecord, "123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(0), a.oneCalls.Load())

	items, err := store.GetPending(ctx, models.EntityTimeRecord)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].RetryCount)
}

func TestSyncItem_RecordsFailureOutcome(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord, oneErr: errors.New("connection reset")}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), a)

	ok, err := o.SyncItem(ctx, models.EntityTimeRecord, "42")
	assert.False(t, ok)
	assert.Error(t, err)

	// the attempt is audited even though the item was never queued
	items, getErr := store.GetPending(ctx, models.EntityTimeRecord)
	require.NoError(t, getErr)
	require.Len(t, items, 1)
	assert.Equal(t, "42", items[0].EntityID)
	assert.Equal(t, 1, items[0].RetryCount)
}

func TestSyncItem_SuccessRemovesQueuedItem(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord, oneOK: true}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), a)

	require.NoError(t, store.Add(ctx, models.EntityTimeRecord, "7", 1))

	ok, err := o.SyncItem(ctx, models.EntityTimeRecord, "7")
	require.NoError(t, err)
	assert.True(t, ok)

	items, err := store.GetPending(ctx, models.EntityTimeRecord)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestScheduleSync_InvalidInterval(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities())

	assert.True(t, errors.Is(o.ScheduleSync(0), common.ErrInvalidArgument))
	assert.True(t, errors.Is(o.ScheduleSync(-time.Second), common.ErrInvalidArgument))
}

func TestScheduleSync_TicksRunPasses(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	a := &fakeAdapter{et: models.EntityTimeRecord}
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities(), a)

	require.NoError(t, o.ScheduleSync(5*time.Millisecond))
	defer o.CancelScheduledSync()

	require.Eventually(t, func() bool { return a.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestCancelScheduledSync_Idempotent(t *testing.T) {
	db := setupDB(t)
	store := syncitems.NewSQLiteRepository(db, 0)
	o := NewOrchestrator(store, onlineMonitor(), testLogger(), DefaultPriorities())

	o.CancelScheduledSync()
	require.NoError(t, o.ScheduleSync(time.Hour))
	o.CancelScheduledSync()
	o.CancelScheduledSync()
}

func TestWatchConnectivity_TriggersSyncOnRestore(t *testing.T) {
	db := setupDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := syncitems.NewSQLiteRepository(db, 0)
	monitor := &fakeMonitor{}

	// the adapter drains its queue like the real ones do
	a := &fakeAdapter{et: models.EntityTimeRecord}
	a.drain = func(ctx context.Context) {
		items, _ := store.GetPending(ctx, models.EntityTimeRecord)
		for _, item := range items {
			_ = store.UpdateStatus(ctx, models.EntityTimeRecord, item.EntityID, true, nil)
		}
	}
	o := NewOrchestrator(store, monitor, testLogger(), DefaultPriorities(), a)

	require.NoError(t, store.Add(ctx, models.EntityTimeRecord, "1", 1))
	require.NoError(t, store.Add(ctx, models.EntityTimeRecord, "2", 1))

	go o.WatchConnectivity(ctx)
	time.Sleep(10 * time.Millisecond)
	monitor.setConnected(true)

	require.Eventually(t, func() bool {
		stats, err := store.Statistics(ctx)
		return err == nil && len(stats) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestWatchConnectivity_QualityChangeWhileOnlineDoesNotSync(t *testing.T) {
	db := setupDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := syncitems.NewSQLiteRepository(db, 0)
	monitor := &fakeMonitor{}
	monitor.connected.Store(true)
	a := &fakeAdapter{et: models.EntityTimeRecord}
	o := NewOrchestrator(store, monitor, testLogger(), DefaultPriorities(), a)

	require.NoError(t, store.Add(ctx, models.EntityTimeRecord, "1", 1))

	go o.WatchConnectivity(ctx)
	time.Sleep(10 * time.Millisecond)

	// good -> degraded -> good flap while staying online
	monitor.setQuality(connectivity.QualityDegraded)
	monitor.setQuality(connectivity.QualityGood)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), a.calls.Load())

	// a real outage and recovery still triggers a pass
	monitor.setConnected(false)
	monitor.setConnected(true)
	require.Eventually(t, func() bool {
		return a.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWatchConnectivity_EmptyQueueDoesNothing(t *testing.T) {
	db := setupDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := syncitems.NewSQLiteRepository(db, 0)
	monitor := &fakeMonitor{}
	a := &fakeAdapter{et: models.EntityTimeRecord}
	o := NewOrchestrator(store, monitor, testLogger(), DefaultPriorities(), a)

	go o.WatchConnectivity(ctx)
	time.Sleep(10 * time.Millisecond)
	monitor.setConnected(true)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), a.calls.Load())
}

// Offline items queue up; once connectivity returns, one SyncAll drains them
// highest priority first.
func TestOfflineQueueDrainsInPriorityOrder(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	store := syncitems.NewSQLiteRepository(db, 0)
	trRepo := timerecords.NewSQLiteRepository(db)
	repRepo := reports.NewSQLiteRepository(db)
	client := newFakeAPI()
	logger := testLogger()

	rec := addTimeRecord(t, trRepo, time.Unix(0, 1000))
	rep := &models.Report{Title: "incident", Body: "b", Severity: models.SeverityIncident, CreatedAt: time.Unix(0, 2000)}
	require.NoError(t, repRepo.Create(ctx, rep))

	monitor := &fakeMonitor{}
	o := NewOrchestrator(store, monitor, logger, DefaultPriorities(),
		NewTimeRecordAdapter(store, trRepo, client, logger),
		NewReportAdapter(store, repRepo, client, logger),
	)

	recID := strconv.FormatInt(rec.ID, 10)
	repID := strconv.FormatInt(rep.ID, 10)
	require.NoError(t, store.Add(ctx, models.EntityTimeRecord, recID, 1))
	require.NoError(t, store.Add(ctx, models.EntityReport, repID, 4))

	pending, err := store.GetAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.EntityReport, pending[0].EntityType)
	assert.Equal(t, models.EntityTimeRecord, pending[1].EntityType)

	events, unsub := o.Subscribe()
	defer unsub()

	monitor.setConnected(true)
	res := o.SyncAll(ctx)
	assert.Equal(t, Result{Success: 2}, res)

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)

	perType := map[models.EntityType]int{}
	for len(events) > 0 {
		if e := <-events; e.Status == StatusCompleted {
			perType[e.EntityType]++
		}
	}
	// one Completed per adapter plus the pass-level one
	assert.Equal(t, 1, perType[models.EntityReport])
	assert.Equal(t, 1, perType[models.EntityTimeRecord])
	assert.Equal(t, 1, perType[models.EntityAll])

	got, err := repRepo.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSynced)
}
