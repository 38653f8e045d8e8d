package mail

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Kind selects the message template for a job.
type Kind uint8

const (
	KindOTP Kind = iota
	KindWelcome
)

// Job is one queued delivery.
type Job struct {
	Kind     Kind
	Email    string
	Username string
	Code     string
}

// SendFunc performs the actual delivery of one job.
type SendFunc func(ctx context.Context, job Job) error

// Config controls queue bounds and delivery timeout.
type Config struct {
	BufferSize  int
	SendTimeout time.Duration
}

// Dispatcher runs deliveries on a background worker. A nil Dispatcher is
// valid and discards everything. Enqueue never blocks: when the queue is
// full the job is dropped and counted.
type Dispatcher struct {
	cfg       Config
	send      SendFunc
	onError   func(job Job, err error)
	ch        chan Job
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(cfg Config, send SendFunc, onError func(Job, error)) *Dispatcher {
	if send == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if onError == nil {
		onError = func(Job, error) {}
	}

	d := &Dispatcher{
		cfg:     cfg,
		send:    send,
		onError: onError,
		ch:      make(chan Job, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.ch:
			d.deliver(job)
		case <-d.done:
			for {
				select {
				case job := <-d.ch:
					d.deliver(job)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.send(ctx, job); err != nil {
		d.failed.Add(1)
		d.onError(job, err)
	}
}

// Enqueue queues a job for delivery, dropping it when the queue is full or
// the dispatcher is closed.
func (d *Dispatcher) Enqueue(job Job) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- job:
	case <-d.done:
	default:
		d.dropped.Add(1)
	}
}

func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
