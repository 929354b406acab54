// Package editor is the generic record editor: fetch a record by kind and id,
// derive its form, PUT the edited fields back and refresh the list views.
package editor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/events"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
)

const (
	loadFailedMessage = "Erro ao carregar registro"
	saveFailedMessage = "Erro ao salvar registro"
)

// Records reads and writes raw records. *apiclient.RecordService satisfies it.
type Records interface {
	Get(ctx context.Context, kind string, id int64) (map[string]any, error)
	Put(ctx context.Context, kind string, id int64, fields map[string]any) error
}

// RefreshFunc reloads a list view after a record of kind was saved.
type RefreshFunc func(ctx context.Context, kind string)

// Form is a snapshot of the editor.
type Form struct {
	State  State   `json:"state"`
	Kind   string  `json:"kind,omitempty"`
	ID     int64   `json:"id,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Editor holds at most one open record. Safe for concurrent use.
type Editor struct {
	records Records
	bus     *events.Bus
	log     *zap.Logger
	schemas Schemas

	mu     sync.Mutex
	state  State
	kind   string
	id     int64
	gen    uint64
	fields []Field
	errMsg string

	refreshMu sync.RWMutex
	refresh   map[string][]RefreshFunc
}

type Option func(*Editor)

func WithSchemas(s Schemas) Option {
	return func(e *Editor) { e.schemas = s }
}

func New(records Records, bus *events.Bus, log *zap.Logger, opts ...Option) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Editor{
		records: records,
		bus:     bus,
		log:     log,
		schemas: DefaultSchemas,
		state:   StateClosed,
		refresh: make(map[string][]RefreshFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnSaved registers fn to run after a record of kind is saved.
func (e *Editor) OnSaved(kind string, fn RefreshFunc) {
	e.refreshMu.Lock()
	e.refresh[kind] = append(e.refresh[kind], fn)
	e.refreshMu.Unlock()
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Form() Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.formLocked()
}

func (e *Editor) formLocked() Form {
	f := Form{State: e.state, Kind: e.kind, ID: e.id, Error: e.errMsg}
	if len(e.fields) > 0 {
		f.Fields = append([]Field(nil), e.fields...)
	}
	return f
}

// Open loads kind/id. Opening while another record is open resets to
// loading for the new target; the older load is discarded when it lands.
func (e *Editor) Open(ctx context.Context, kind string, id int64) (Form, error) {
	e.mu.Lock()
	if err := CanOpen(e.state); err != nil {
		f := e.formLocked()
		e.mu.Unlock()
		return f, err
	}
	e.gen++
	gen := e.gen
	e.state = StateLoading
	e.kind, e.id = kind, id
	e.fields, e.errMsg = nil, ""
	e.mu.Unlock()

	rec, err := e.records.Get(ctx, kind, id)

	e.mu.Lock()
	if gen != e.gen {
		f := e.formLocked()
		e.mu.Unlock()
		return f, httperr.ErrBusiness("superseded")
	}
	if err != nil {
		e.reset()
		f := e.formLocked()
		e.mu.Unlock()

		msg := httperr.Message(err, loadFailedMessage)
		e.log.Warn("editor load failed", zap.String("kind", kind), zap.Int64("id", id), zap.Error(err))
		e.notify(events.LevelError, msg)
		return f, err
	}

	e.fields = DeriveFields(kind, rec, e.schemas)
	e.state = StateReady
	f := e.formLocked()
	e.mu.Unlock()
	return f, nil
}

// Submit PUTs the derived field set with values applied. On success the
// editor closes and the refresh callbacks for kind run; on failure it goes
// back to ready with the entered values kept.
func (e *Editor) Submit(ctx context.Context, kind string, id int64, values map[string]any) (Form, error) {
	e.mu.Lock()
	if err := CanSubmit(e.state); err != nil {
		f := e.formLocked()
		e.mu.Unlock()
		return f, err
	}
	if kind != e.kind || id != e.id {
		f := e.formLocked()
		e.mu.Unlock()
		return f, httperr.ErrBusiness("invalid_state")
	}

	payload, entered, err := coerce(e.fields, values)
	e.fields = entered
	if err != nil {
		e.errMsg = httperr.Message(err, saveFailedMessage)
		f := e.formLocked()
		e.mu.Unlock()
		return f, err
	}
	e.state = StateSubmitting
	e.errMsg = ""
	gen := e.gen
	e.mu.Unlock()

	putErr := e.records.Put(ctx, kind, id, payload)

	e.mu.Lock()
	stale := gen != e.gen
	if putErr != nil {
		msg := httperr.Message(putErr, saveFailedMessage)
		if !stale {
			e.state = StateReady
			e.errMsg = msg
		}
		f := e.formLocked()
		e.mu.Unlock()

		e.log.Warn("editor save failed", zap.String("kind", kind), zap.Int64("id", id), zap.Error(putErr))
		e.notify(events.LevelError, msg)
		return f, putErr
	}
	if !stale {
		e.reset()
	}
	f := e.formLocked()
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.Publish(events.RecordSaved(kind, id))
	}
	e.notify(events.LevelInfo, "Registro atualizado com sucesso")
	e.runRefresh(ctx, kind)
	return f, nil
}

// Close discards the open record.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := CanClose(e.state); err != nil {
		return err
	}
	e.gen++
	e.reset()
	return nil
}

func (e *Editor) reset() {
	e.state = StateClosed
	e.kind, e.id = "", 0
	e.fields, e.errMsg = nil, ""
}

func (e *Editor) runRefresh(ctx context.Context, kind string) {
	e.refreshMu.RLock()
	fns := append([]RefreshFunc(nil), e.refresh[kind]...)
	e.refreshMu.RUnlock()

	for _, fn := range fns {
		fn(ctx, kind)
	}
}

func (e *Editor) notify(level events.Level, msg string) {
	if e.bus != nil {
		e.bus.Publish(events.Notify(level, msg))
	}
}
