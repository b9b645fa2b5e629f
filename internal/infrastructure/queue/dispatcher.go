package queue

import (
	"context"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Saver persists one activity. ActivityService implements it.
type Saver interface {
	Save(ctx context.Context, in ports.ActivityInput) (*domain.Activity, error)
}

// Metrics are optional instruments updated by the dispatcher.
type Metrics struct {
	Depth   *prometheus.GaugeVec // labelled by worker_id
	Dropped prometheus.Counter
}

// Dispatcher records activities off the request path. Inputs are sharded on
// the project id so a project's feed is written in submission order.
type Dispatcher struct {
	workers []chan ports.ActivityInput
	saver   Saver
	metrics Metrics
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, saver Saver, m Metrics, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ActivityInput, numWorkers),
		saver:   saver,
		metrics: m,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ActivityInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() { d.wg.Wait() }

// Record implements ports.ActivityRecorder. It never blocks: when the shard is
// full the activity is dropped and logged.
func (d *Dispatcher) Record(in ports.ActivityInput) {
	i := d.shardIndex(in.ProjectID)
	select {
	case d.workers[i] <- in:
		d.observeDepth(i)
	default:
		if d.metrics.Dropped != nil {
			d.metrics.Dropped.Inc()
		}
		d.log.Warn().
			Str("type", string(in.Type)).
			Int64("project_id", in.ProjectID).
			Int("worker_id", i).
			Msg("activity queue full, dropping activity")
	}
}

// shardIndex maps a project id deterministically to a worker index.
func (d *Dispatcher) shardIndex(projectID int64) int {
	n := projectID % int64(len(d.workers))
	if n < 0 {
		n = -n
	}
	return int(n)
}

func (d *Dispatcher) observeDepth(i int) {
	if d.metrics.Depth != nil {
		d.metrics.Depth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ActivityInput) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case in := <-ch:
			d.save(ctx, id, in)
		}
	}
}

// drain flushes whatever is already queued using a fresh context.
func (d *Dispatcher) drain(id int, ch <-chan ports.ActivityInput) {
	for {
		select {
		case in := <-ch:
			d.save(context.Background(), id, in)
		default:
			return
		}
	}
}

func (d *Dispatcher) save(ctx context.Context, id int, in ports.ActivityInput) {
	if _, err := d.saver.Save(ctx, in); err != nil {
		d.log.Error().Err(err).
			Str("type", string(in.Type)).
			Int64("project_id", in.ProjectID).
			Int("worker_id", id).
			Msg("activity recording failed")
	}
	d.observeDepth(id)
}
