// Package calsync keeps every user's calendar file in step with the current
// schedule set and announces added or changed schedules.
package calsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"schedule_bot/internal/calendar"
	"schedule_bot/internal/files"
	"schedule_bot/internal/filter"
	"schedule_bot/internal/model"
)

// UserStore supplies users.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// FileStore persists per-user files. Read fails with model.ErrNotFound for a
// file that was never written.
type FileStore interface {
	Write(userID uuid.UUID, name string, data []byte) error
	Read(userID uuid.UUID, name string) ([]byte, error)
}

// Config tunes the orchestrator.
type Config struct {
	// Workers is the number of regeneration lanes.
	Workers int
	// QueueSize bounds the signal queue, each lane and the notification stream.
	QueueSize int
	// WriteRetries is how many times a failed file write or user listing is
	// retried.
	WriteRetries uint64
	// RetryBase is the first retry delay; later delays grow exponentially.
	RetryBase time.Duration
	// BaseURL prefixes download links.
	BaseURL string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		QueueSize:    64,
		WriteRetries: 3,
		RetryBase:    200 * time.Millisecond,
		BaseURL:      "http://localhost:8080",
	}
}

const maxRetryDelay = 5 * time.Second

// FileState is the externally observable state of a user's calendar file.
type FileState int

// File states.
const (
	FileUnknown FileState = iota
	FileStale
	FileFresh
)

func (s FileState) String() string {
	switch s {
	case FileStale:
		return "stale"
	case FileFresh:
		return "fresh"
	default:
		return "unknown"
	}
}

type signalKind int

const (
	signalScheduleSetChanged signalKind = iota
	signalUserAdded
	signalUserEdited
)

type signal struct {
	kind      signalKind
	schedules []model.Schedule
	changes   model.FilesChanging
	user      model.User
}

type job struct {
	user      model.User
	schedules []model.Schedule
	batch     *batch
}

// Orchestrator consumes schedule and user signals and regenerates calendar
// files. Jobs of one user always run on the same lane, so they execute in
// signal order and never concurrently.
type Orchestrator struct {
	users UserStore
	files FileStore
	cfg   Config
	log   *slog.Logger

	snapshot      atomic.Pointer[[]model.Schedule]
	signals       chan signal
	lanes         []chan job
	notifications chan model.ScheduleNotification

	mu     sync.Mutex
	states map[uuid.UUID]FileState
}

// New creates an Orchestrator. Zero config fields fall back to defaults,
// except WriteRetries.
func New(users UserStore, fs FileStore, cfg Config, log *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = def.RetryBase
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}

	o := &Orchestrator{
		users:         users,
		files:         fs,
		cfg:           cfg,
		log:           log,
		signals:       make(chan signal, cfg.QueueSize),
		lanes:         make([]chan job, cfg.Workers),
		notifications: make(chan model.ScheduleNotification, cfg.QueueSize),
		states:        make(map[uuid.UUID]FileState),
	}
	for i := range o.lanes {
		o.lanes[i] = make(chan job, cfg.QueueSize)
	}
	return o
}

// ScheduleSetChanged queues regeneration of every user's file from
// schedules and a notification for each added or changed schedule.
func (o *Orchestrator) ScheduleSetChanged(ctx context.Context, schedules []model.Schedule, changes model.FilesChanging) error {
	return o.send(ctx, signal{kind: signalScheduleSetChanged, schedules: schedules, changes: changes})
}

// UserAdded queues generation of a new user's file.
func (o *Orchestrator) UserAdded(ctx context.Context, user model.User) error {
	return o.send(ctx, signal{kind: signalUserAdded, user: user})
}

// UserEdited queues regeneration of a user's file after a settings change.
func (o *Orchestrator) UserEdited(ctx context.Context, user model.User) error {
	return o.send(ctx, signal{kind: signalUserEdited, user: user})
}

func (o *Orchestrator) send(ctx context.Context, sig signal) error {
	select {
	case o.signals <- sig:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue signal: %w", ctx.Err())
	}
}

// Notifications streams one event per added or changed schedule once all
// users of the triggering cycle have been processed.
func (o *Orchestrator) Notifications() <-chan model.ScheduleNotification {
	return o.notifications
}

// Snapshot returns the schedule set of the latest cycle. It must not be
// modified.
func (o *Orchestrator) Snapshot() []model.Schedule {
	if p := o.snapshot.Load(); p != nil {
		return *p
	}
	return nil
}

// FileState reports the state of a user's calendar file.
func (o *Orchestrator) FileState(userID uuid.UUID) FileState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[userID]
}

func (o *Orchestrator) setState(userID uuid.UUID, s FileState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[userID] = s
}

// Run dispatches signals until ctx is cancelled, then lets the lanes finish
// the jobs already queued. It must be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	var g errgroup.Group
	for i, lane := range o.lanes {
		g.Go(func() error {
			o.work(ctx, i, lane)
			return nil
		})
	}
	g.Go(func() error {
		defer func() {
			for _, lane := range o.lanes {
				close(lane)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-o.signals:
				o.dispatch(ctx, sig)
			}
		}
	})
	return g.Wait()
}

func (o *Orchestrator) dispatch(ctx context.Context, sig signal) {
	switch sig.kind {
	case signalScheduleSetChanged:
		o.snapshot.Store(&sig.schedules)

		users, err := o.listUsers(ctx)
		if err != nil {
			o.log.Error("list users", "added_or_changed", len(sig.changes.AddedOrChanged), "error", err)
			return
		}
		o.log.Info("regenerating calendars",
			"users", len(users),
			"added_or_changed", len(sig.changes.AddedOrChanged),
			"deleted", len(sig.changes.Deleted),
		)

		b := newBatch(sig.changes.AddedOrChanged)
		for _, u := range users {
			b.wg.Add(1)
			o.enqueue(ctx, job{user: u, schedules: sig.schedules, batch: b})
		}
		go o.notifyWhenDone(ctx, b)

	case signalUserAdded, signalUserEdited:
		o.enqueue(ctx, job{user: sig.user, schedules: o.Snapshot()})
	}
}

func (o *Orchestrator) listUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	attempt := 0
	err := retry.Do(ctx, o.backoff(), func(ctx context.Context) error {
		attempt++
		var err error
		if users, err = o.users.ListUsers(ctx); err != nil {
			o.log.Warn("list users", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users after %d attempts: %w", attempt, err)
	}
	return users, nil
}

func (o *Orchestrator) backoff() retry.Backoff {
	return retry.WithCappedDuration(maxRetryDelay,
		retry.WithMaxRetries(o.cfg.WriteRetries, retry.NewExponential(o.cfg.RetryBase)))
}

func (o *Orchestrator) enqueue(ctx context.Context, j job) {
	o.setState(j.user.ID, FileStale)
	lane := o.lanes[xxhash.Sum64(j.user.ID[:])%uint64(len(o.lanes))]
	select {
	case lane <- j:
	case <-ctx.Done():
		if j.batch != nil {
			j.batch.wg.Done()
		}
	}
}

func (o *Orchestrator) work(ctx context.Context, lane int, jobs <-chan job) {
	// A started regeneration runs to completion even during shutdown.
	ctx = context.WithoutCancel(ctx)
	for j := range jobs {
		o.process(ctx, lane, j)
	}
}

func (o *Orchestrator) process(ctx context.Context, lane int, j job) {
	projection := filter.ForUser(j.schedules, j.user.Settings)
	if j.batch != nil {
		defer j.batch.record(j.user.ID, projection)
	}

	if err := o.writeCalendar(ctx, j.user.ID, projection); err != nil {
		o.log.Error("regenerate calendar", "user_id", j.user.ID, "lane", lane, "error", err)
		return
	}
	o.setState(j.user.ID, FileFresh)
	o.log.Debug("calendar regenerated", "user_id", j.user.ID, "lane", lane, "lessons", filter.CountLessons(projection))
}

func (o *Orchestrator) writeCalendar(ctx context.Context, userID uuid.UUID, projection []model.Schedule) error {
	var buf bytes.Buffer
	if err := calendar.Encode(&buf, projection); err != nil {
		return err
	}

	attempt := 0
	err := retry.Do(ctx, o.backoff(), func(_ context.Context) error {
		attempt++
		if err := o.files.Write(userID, files.ScheduleFile, buf.Bytes()); err != nil {
			o.log.Warn("write calendar", "user_id", userID, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write calendar after %d attempts: %w", attempt, err)
	}
	return nil
}

func (o *Orchestrator) notifyWhenDone(ctx context.Context, b *batch) {
	b.wg.Wait()
	for _, n := range b.notifications() {
		select {
		case o.notifications <- n:
		case <-ctx.Done():
			return
		}
	}
}

// Links returns the download and subscribe links of a user's calendar. It
// fails with model.ErrNotFound when the user has no lessons in the current
// schedule set.
func (o *Orchestrator) Links(ctx context.Context, userID uuid.UUID) (model.FileLinks, error) {
	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return model.FileLinks{}, fmt.Errorf("get user: %w", err)
	}
	if filter.CountLessons(filter.ForUser(o.Snapshot(), user.Settings)) == 0 {
		return model.FileLinks{}, fmt.Errorf("schedule of user %s: %w", userID, model.ErrNotFound)
	}

	download := fmt.Sprintf("%s/files/user_files/%s/%s",
		strings.TrimRight(o.cfg.BaseURL, "/"), userID, files.ScheduleFile)
	return model.FileLinks{Download: download, Subscribe: webcal(download)}, nil
}

func webcal(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" {
		return "webcal://" + link
	}
	u.Scheme = "webcal"
	return u.String()
}

// Document returns a user's stored calendar file. When none was written yet
// it renders one from the current schedule set. Users without lessons get an
// empty calendar.
func (o *Orchestrator) Document(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	data, err := o.files.Read(userID, files.ScheduleFile)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	var buf bytes.Buffer
	if err := calendar.Encode(&buf, filter.ForUser(o.Snapshot(), user.Settings)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// batch collects, per added or changed schedule, the users whose projection
// of it has lessons.
type batch struct {
	wg sync.WaitGroup

	mu         sync.Mutex
	changed    []model.ScheduleInfo
	index      map[model.ScheduleKey]int
	recipients [][]uuid.UUID
}

func newBatch(changed []model.ScheduleInfo) *batch {
	b := &batch{
		changed:    changed,
		index:      make(map[model.ScheduleKey]int, len(changed)),
		recipients: make([][]uuid.UUID, len(changed)),
	}
	for i, info := range changed {
		b.index[info.Key()] = i
	}
	return b
}

func (b *batch) record(userID uuid.UUID, projection []model.Schedule) {
	defer b.wg.Done()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range projection {
		if i, ok := b.index[s.Key()]; ok && len(s.Lessons) > 0 {
			b.recipients[i] = append(b.recipients[i], userID)
		}
	}
}

func (b *batch) notifications() []model.ScheduleNotification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.ScheduleNotification, 0, len(b.changed))
	for i, info := range b.changed {
		ids := slices.Clone(b.recipients[i])
		slices.SortFunc(ids, func(a, c uuid.UUID) int { return bytes.Compare(a[:], c[:]) })
		out = append(out, model.ScheduleNotification{Schedule: info, RecipientUserIDs: ids})
	}
	return out
}
