package runner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/skydispatch/core/events"
	"github.com/kilianp07/skydispatch/core/journal"
	"github.com/kilianp07/skydispatch/core/logger"
	"github.com/kilianp07/skydispatch/core/metrics"
	"github.com/kilianp07/skydispatch/core/model"
	"github.com/kilianp07/skydispatch/core/monitoring"
	"github.com/kilianp07/skydispatch/core/scheduler"
	"github.com/kilianp07/skydispatch/internal/eventbus"
)

// Default simulation constants.
const (
	DefaultStep                = 1
	DefaultSpeed               = 30
	DefaultDestinationDistance = 1800
	DefaultReportBuffer        = 256
)

// Options configures a Runner. Zero values fall back to the defaults above
// and to no-op collaborators.
type Options struct {
	// Step is the simulated time added by each tick.
	Step int64
	// Speed is the fleet-wide distance covered per time unit.
	Speed int32
	// DestinationDistance is the route length of a single stop.
	DestinationDistance int64
	// Source optionally releases orders as simulated time passes.
	Source OrderSource

	Logger  logger.Logger
	Metrics metrics.MetricsSink
	// Bus receives runner events. Nil disables them.
	Bus     *eventbus.TypedBus[events.Event]
	Journal journal.Store
	// Feed receives every snapshot. A private bus is created when nil.
	Feed *eventbus.TypedBus[model.StatusUpdate]
	// ReportBuffer is the number of tick reports queued for Metrics and
	// Journal. Reports beyond it are dropped rather than delaying ticks.
	ReportBuffer int
}

func (o *Options) setDefaults() {
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if o.Speed == 0 {
		o.Speed = DefaultSpeed
	}
	if o.DestinationDistance == 0 {
		o.DestinationDistance = DefaultDestinationDistance
	}
	if o.Logger == nil {
		o.Logger = logger.NopLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NopSink{}
	}
	if o.Journal == nil {
		o.Journal = journal.NopStore{}
	}
	if o.Feed == nil {
		o.Feed = eventbus.NewTyped[model.StatusUpdate]()
	}
	if o.ReportBuffer == 0 {
		o.ReportBuffer = DefaultReportBuffer
	}
}

func (o Options) validate() error {
	if o.Step < 0 {
		return fmt.Errorf("runner: step must be positive, got %d", o.Step)
	}
	if o.Speed < 0 {
		return fmt.Errorf("runner: speed must be positive, got %d", o.Speed)
	}
	if o.DestinationDistance < 0 {
		return fmt.Errorf("runner: destination distance must be positive, got %d", o.DestinationDistance)
	}
	if o.ReportBuffer < 0 {
		return fmt.Errorf("runner: report buffer must be positive, got %d", o.ReportBuffer)
	}
	return nil
}

type rejection struct {
	order model.Order
	err   error
}

// Runner advances the fleet one tick at a time.
type Runner struct {
	sched scheduler.Scheduler
	opts  Options
	log   logger.Logger

	// mu guards state and halt. Tick holds it for its whole duration.
	mu    sync.RWMutex
	state State
	halt  error

	// inboxMu guards the submissions waiting for the next tick.
	inboxMu   sync.Mutex
	inbox     []model.Order
	rejected  []rejection
	haltCause error

	seq atomic.Uint64

	// reports feeds the metrics sink and journal from a separate goroutine.
	// reportsClosed is guarded by mu.
	reports       chan func()
	reportsDone   chan struct{}
	reportsClosed bool
}

// tickReport collects what happened during one tick.
type tickReport struct {
	assigned int
	launched []model.Flight
	retired  []model.Flight
	rejected []rejection
	skipped  error
}

// New creates a runner starting at time 0 with an empty fleet.
func New(sched scheduler.Scheduler, opts Options) (*Runner, error) {
	if sched == nil {
		return nil, errors.New("runner: scheduler required")
	}
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		sched:       sched,
		opts:        opts,
		log:         opts.Logger.With("component", "runner"),
		state:       newState(),
		reports:     make(chan func(), opts.ReportBuffer),
		reportsDone: make(chan struct{}),
	}
	go r.drainReports()
	return r, nil
}

// Feed returns the bus carrying one StatusUpdate per tick. It is closed when
// the runner halts.
func (r *Runner) Feed() *eventbus.TypedBus[model.StatusUpdate] { return r.opts.Feed }

// Submit validates the order and queues it for the next tick. It returns the
// sequence number identifying the order. Safe for concurrent use.
func (r *Runner) Submit(o model.Order) (uint64, error) {
	o.Seq = 0
	r.inboxMu.Lock()
	defer r.inboxMu.Unlock()
	if r.haltCause != nil {
		return 0, fmt.Errorf("%w: %w", ErrHalted, r.haltCause)
	}
	if err := o.Validate(); err != nil {
		r.rejected = append(r.rejected, rejection{order: o, err: err})
		return 0, err
	}
	o.Seq = r.seq.Add(1)
	r.inbox = append(r.inbox, o)
	return o.Seq, nil
}

// State returns a deep copy of the fleet state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Err returns the violation that halted the runner, if any.
func (r *Runner) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.halt
}

// Tick advances the simulation by one step and returns the resulting snapshot.
// After an invariant violation every call fails with ErrHalted.
func (r *Runner) Tick() (model.StatusUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.halt != nil {
		return model.StatusUpdate{}, fmt.Errorf("%w: %w", ErrHalted, r.halt)
	}

	start := time.Now()
	prev := r.state.Clone()
	rep, err := r.step()
	if err != nil {
		r.state = prev
		r.stop(err)
		return model.StatusUpdate{}, err
	}
	elapsed := time.Since(start)
	tickDuration.Observe(elapsed.Seconds())
	if rep.skipped != nil {
		ticksTotal.WithLabelValues("skipped").Inc()
	} else {
		ticksTotal.WithLabelValues("ok").Inc()
	}

	snap := r.state.Snapshot(r.opts.Speed)
	r.opts.Feed.Publish(snap.Clone())
	r.report(rep, elapsed)
	return snap, nil
}

// Updates returns an unbounded sequence of ticks. The sequence ends after the
// first error or when the consumer stops.
func (r *Runner) Updates() iter.Seq2[model.StatusUpdate, error] {
	return func(yield func(model.StatusUpdate, error) bool) {
		for {
			u, err := r.Tick()
			if !yield(u, err) || err != nil {
				return
			}
		}
	}
}

// Run ticks every interval until ctx is done or the runner halts. A
// non-positive interval ticks back to back.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	r.log.Infof("runner started (step=%d speed=%d interval=%s)", r.opts.Step, r.opts.Speed, interval)
	if interval <= 0 {
		for {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := r.Tick(); err != nil {
				return err
			}
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Infof("runner stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Tick(); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) drainInbox() ([]model.Order, []rejection) {
	r.inboxMu.Lock()
	defer r.inboxMu.Unlock()
	in, rej := r.inbox, r.rejected
	r.inbox, r.rejected = nil, nil
	return in, rej
}

// step mutates r.state. The caller restores the previous state on error.
func (r *Runner) step() (tickReport, error) {
	var rep tickReport
	st := &r.state

	inbox, rejected := r.drainInbox()
	rep.rejected = rejected
	for _, o := range inbox {
		st.Pending = append(st.Pending, o)
		st.Accepted++
	}
	if r.opts.Source != nil {
		for _, o := range r.opts.Source.Due(st.Now) {
			o.Seq = 0
			if err := o.Validate(); err != nil {
				rep.rejected = append(rep.rejected, rejection{order: o, err: err})
				continue
			}
			o.Seq = r.seq.Add(1)
			st.Pending = append(st.Pending, o)
			st.Accepted++
		}
	}

	view := st.Clone()
	in := scheduler.Input{
		Now:          view.Now,
		Pending:      view.Pending,
		Flights:      view.Flights,
		NextFlightID: view.NextFlightID,
	}
	plan, err := r.sched.Schedule(in)
	switch {
	case errors.Is(err, model.ErrValidation):
		rep.skipped = err
	case err != nil:
		return rep, violation(st.Now, "scheduler failed: %v", err)
	default:
		if err := r.apply(plan, &rep); err != nil {
			return rep, err
		}
	}

	st.Now += r.opts.Step

	active := st.Flights[:0]
	for _, f := range st.Flights {
		if f.Completed(st.Now, r.opts.Speed, r.opts.DestinationDistance) {
			rep.retired = append(rep.retired, f)
			st.Delivered += uint64(len(f.Orders))
			continue
		}
		active = append(active, f)
	}
	st.Flights = active

	return rep, st.verify()
}

// apply commits a scheduler plan to the state.
func (r *Runner) apply(plan scheduler.Plan, rep *tickReport) error {
	st := &r.state
	now := st.Now

	byID := make(map[uint64]int, len(st.Flights)+len(plan.NewFlights))
	for i, f := range st.Flights {
		byID[f.ID] = i
	}
	next := st.NextFlightID
	fresh := make(map[uint64]bool, len(plan.NewFlights))
	for _, nf := range plan.NewFlights {
		if nf.ID < st.NextFlightID {
			return violation(now, "new flight %d reuses an allocated id", nf.ID)
		}
		if _, dup := byID[nf.ID]; dup {
			return violation(now, "new flight %d proposed twice", nf.ID)
		}
		if len(nf.Orders) != 0 {
			return violation(now, "new flight %d arrives preloaded", nf.ID)
		}
		if nf.LaunchTime < now {
			return violation(now, "new flight %d launches in the past at %d", nf.ID, nf.LaunchTime)
		}
		byID[nf.ID] = len(st.Flights)
		fresh[nf.ID] = true
		st.Flights = append(st.Flights, model.Flight{ID: nf.ID, LaunchTime: nf.LaunchTime})
		rep.launched = append(rep.launched, model.Flight{ID: nf.ID, LaunchTime: nf.LaunchTime})
		if nf.ID >= next {
			next = nf.ID + 1
		}
	}

	pending := make(map[uint64]int, len(st.Pending))
	for i, o := range st.Pending {
		pending[o.Seq] = i
	}
	placed := make(map[uint64]bool, len(plan.Placements))
	for _, p := range plan.Placements {
		idx, ok := pending[p.OrderSeq]
		if !ok {
			return violation(now, "placement of unknown order %d", p.OrderSeq)
		}
		if placed[p.OrderSeq] {
			return violation(now, "order %d placed twice", p.OrderSeq)
		}
		fi, ok := byID[p.FlightID]
		if !ok {
			return violation(now, "placement on unknown flight %d", p.FlightID)
		}
		f := &st.Flights[fi]
		if !fresh[f.ID] && f.Launched(now) {
			return violation(now, "placement on flight %d launched at %d", f.ID, f.LaunchTime)
		}
		placed[p.OrderSeq] = true
		f.Orders = append(f.Orders, st.Pending[idx])
		rep.assigned++
	}
	for _, nf := range plan.NewFlights {
		if len(st.Flights[byID[nf.ID]].Orders) == 0 {
			return violation(now, "new flight %d received no orders", nf.ID)
		}
	}

	if len(placed) > 0 {
		kept := st.Pending[:0]
		for _, o := range st.Pending {
			if !placed[o.Seq] {
				kept = append(kept, o)
			}
		}
		st.Pending = kept
	}
	slices.SortFunc(st.Flights, func(a, b model.Flight) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	st.NextFlightID = next
	return nil
}

// report forwards a committed tick to metrics, journal and event bus.
func (r *Runner) report(rep tickReport, elapsed time.Duration) {
	st := &r.state
	scheduled, inFlight := st.Counts()
	stats := metrics.TickStats{
		Time:      st.Now,
		Pending:   len(st.Pending),
		Scheduled: scheduled,
		InFlight:  inFlight,
		Assigned:  rep.assigned,
		Launched:  len(rep.launched),
		Retired:   len(rep.retired),
		Rejected:  len(rep.rejected),
		Skipped:   rep.skipped != nil,
		Duration:  elapsed,
	}
	rec := journal.Record{
		Time:     st.Now,
		Assigned: rep.assigned,
		Launched: len(rep.launched),
		Retired:  len(rep.retired),
		Rejected: len(rep.rejected),
		Pending:  len(st.Pending),
		Active:   len(st.Flights),
		Skipped:  rep.skipped != nil,
	}
	if rep.skipped != nil {
		rec.Error = rep.skipped.Error()
		r.log.Warnf("t=%d scheduling skipped: %v", st.Now, rep.skipped)
	}
	r.enqueueReport(st.Now, func() {
		if err := r.opts.Metrics.RecordTick(stats); err != nil {
			r.log.Warnf("record tick metrics: %v", err)
		}
		if err := r.opts.Journal.Append(context.Background(), rec); err != nil {
			r.log.Warnf("journal append: %v", err)
		}
	})

	for _, rj := range rep.rejected {
		r.log.Warnf("t=%d order to %q rejected: %v", st.Now, rj.order.Destination, rj.err)
	}
	if rep.assigned > 0 || len(rep.retired) > 0 {
		r.log.Debugw("tick", map[string]any{
			"time":     st.Now,
			"assigned": rep.assigned,
			"launched": len(rep.launched),
			"retired":  len(rep.retired),
			"pending":  len(st.Pending),
			"active":   len(st.Flights),
		})
	}

	bus := r.opts.Bus
	if bus == nil {
		return
	}
	for _, rj := range rep.rejected {
		bus.Publish(events.OrderRejected{Time: st.Now, Order: rj.order, Err: rj.err})
	}
	for _, f := range rep.launched {
		bus.Publish(events.FlightLaunched{Time: st.Now, FlightID: f.ID, LaunchTime: f.LaunchTime})
	}
	for _, f := range rep.retired {
		bus.Publish(events.FlightRetired{Time: st.Now, FlightID: f.ID, Orders: len(f.Orders)})
	}
	if rep.skipped != nil {
		bus.Publish(events.TickSkipped{Time: st.Now, Err: rep.skipped})
	}
}

// stop halts the runner after a violation. r.mu must be held.
func (r *Runner) stop(err error) {
	r.halt = err
	r.inboxMu.Lock()
	r.haltCause = err
	r.inbox = nil
	r.inboxMu.Unlock()

	now := r.state.Now
	haltsTotal.Inc()
	ticksTotal.WithLabelValues("halted").Inc()
	r.log.Errorf("runner halted at t=%d: %v", now, err)
	monitoring.CaptureException(err, map[string]string{
		"component": "runner",
		"time":      strconv.FormatInt(now, 10),
	})
	rec := journal.Record{
		Time:    now,
		Pending: len(r.state.Pending),
		Active:  len(r.state.Flights),
		Error:   err.Error(),
	}
	r.enqueueReport(now, func() {
		if jerr := r.opts.Journal.Append(context.Background(), rec); jerr != nil {
			r.log.Warnf("journal append: %v", jerr)
		}
	})
	if r.opts.Bus != nil {
		r.opts.Bus.Publish(events.Halted{Time: now, Err: err})
	}
	r.opts.Feed.Close()
}

// enqueueReport hands fn to the report worker without blocking. r.mu must be
// held.
func (r *Runner) enqueueReport(now int64, fn func()) {
	if r.reportsClosed {
		return
	}
	select {
	case r.reports <- fn:
	default:
		reportsDropped.Inc()
		r.log.Warnf("t=%d report queue full, dropping tick report", now)
	}
}

func (r *Runner) drainReports() {
	defer close(r.reportsDone)
	for fn := range r.reports {
		fn()
	}
}

// Close waits for queued tick reports to reach the metrics sink and journal.
// Ticks committed after Close are no longer reported. Close is idempotent.
func (r *Runner) Close() error {
	r.mu.Lock()
	if !r.reportsClosed {
		r.reportsClosed = true
		close(r.reports)
	}
	r.mu.Unlock()
	<-r.reportsDone
	return nil
}
