/*
Package notify delivers change notifications by email.

PURPOSE:
  Implements leave.Notifier as an explicit queue: callers enqueue a change
  description, a single worker computes recipients and delivers with
  bounded exponential retry. Delivery never blocks or fails the request
  that triggered it; exhausted retries are logged and counted.

RECIPIENTS:
  Every notification goes to all administrators with notifications
  enabled. When a change targets a specific account, that user is added
  too, unless they are an administrator (already included) or have
  notifications off.

BACKPRESSURE:
  The queue is bounded. When it is full the notification is dropped and
  counted; leave tracking must not stall on a slow SMTP server.

SEE ALSO:
  - smtp.go: The SMTP transport behind the Mailer interface
  - leave/service.go: The producer side
*/
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/leavedesk/leavedesk/leave"
	"github.com/leavedesk/leavedesk/metrics"
)

// Subject is the subject line on every notification email.
const Subject = "Vacation Management"

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Options tune the dispatcher. Zero values fall back to defaults.
type Options struct {
	QueueSize   int           // default 64
	MaxRetries  uint64        // delivery attempts beyond the first, default 3
	RetryBase   time.Duration // first backoff interval, default 500ms
	SendTimeout time.Duration // per-delivery budget, default 30s
}

func (o *Options) fill() {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 500 * time.Millisecond
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 30 * time.Second
	}
}

type message struct {
	subject  string
	body     string
	affected []string // emails of directly affected accounts
	direct   []string // explicit recipients, bypassing recipient computation
}

// Dispatcher queues notifications and delivers them on a worker goroutine.
type Dispatcher struct {
	users  leave.UserStore
	mailer Mailer
	log    *slog.Logger
	opts   Options

	queue chan message
	wg    sync.WaitGroup

	closeOnce sync.Once
}

var _ leave.Notifier = (*Dispatcher)(nil)

// New creates a dispatcher and starts its worker.
func New(users leave.UserStore, mailer Mailer, log *slog.Logger, opts Options) *Dispatcher {
	opts.fill()
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		users:  users,
		mailer: mailer,
		log:    log,
		opts:   opts,
		queue:  make(chan message, opts.QueueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Notify enqueues a change description for delivery to the standard
// recipient set. Never blocks; a full queue drops the notification.
func (d *Dispatcher) Notify(change string, affected ...string) {
	d.enqueue(message{subject: Subject, body: change, affected: affected})
}

// Direct enqueues an email to an explicit recipient list, bypassing the
// standard recipient computation. Used for operator reports.
func (d *Dispatcher) Direct(to []string, subject, body string) {
	d.enqueue(message{subject: subject, body: body, direct: to})
}

func (d *Dispatcher) enqueue(m message) {
	select {
	case d.queue <- m:
	default:
		metrics.EmailsDropped.Inc()
		d.log.Warn("notification queue full, dropping", "subject", m.subject)
	}
}

// Close stops accepting notifications and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.SendTimeout)
	defer cancel()

	to := m.direct
	if to == nil {
		var err error
		to, err = d.recipients(ctx, m.affected)
		if err != nil {
			metrics.EmailFailures.Inc()
			d.log.Error("recipient lookup failed", "err", err)
			return
		}
	}
	if len(to) == 0 {
		return
	}

	backoff := retry.WithMaxRetries(d.opts.MaxRetries, retry.NewExponential(d.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.mailer.Send(ctx, to, m.subject, m.body); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.EmailFailures.Inc()
		d.log.Error("email delivery abandoned", "recipients", len(to), "err", err)
		return
	}
	metrics.EmailsSent.Inc()
	d.log.Debug("email delivered", "recipients", len(to))
}

// recipients returns admin subscribers plus any affected non-admin user
// with notifications enabled.
func (d *Dispatcher) recipients(ctx context.Context, affected []string) ([]string, error) {
	admins, err := d.users.ListNotifiedAdmins(ctx)
	if err != nil {
		return nil, err
	}

	var to []string
	seen := make(map[string]bool)
	for _, a := range admins {
		if !seen[a.Email] {
			seen[a.Email] = true
			to = append(to, a.Email)
		}
	}
	for _, email := range affected {
		u, err := d.users.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if u == nil || u.IsAdministrator() || !u.Notification || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		to = append(to, u.Email)
	}
	return to, nil
}
