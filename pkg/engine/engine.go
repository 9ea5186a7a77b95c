// Package engine wires the operator nodes, the index queries and the reference
// object model into one evaluation context.
package engine

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"strata/pkg/arrayindex"
	"strata/pkg/dispatch"
	"strata/pkg/errors"
	"strata/pkg/objects"
	"strata/pkg/ops"
	"strata/pkg/value"
)

// TraceFunc receives one event per generalization when transitions are traced.
type TraceFunc func(name string, attrs []attribute.KeyValue)

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger replaces the logger built from the configured level.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTrace installs the trace hook used when TraceTransitions is set.
func WithTrace(trace TraceFunc) Option {
	return func(e *Engine) {
		e.trace = trace
	}
}

// Engine owns a realm, the site table every node registers in and the shared
// operator and index nodes used by the value-level entry points.
type Engine struct {
	config  Config
	logger  zerolog.Logger
	trace   TraceFunc
	model   *objects.Model
	realm   *ops.Realm
	sites   *dispatch.Table
	monitor *dispatch.Monitor
	builder *ops.Builder

	mu        sync.Mutex
	operators map[ops.Kind]ops.Node
	indices   [4]*arrayindex.Node
	walkers   [2]*arrayindex.Walker // backward, forward
}

func New(config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	level, _ := config.Level()
	e := &Engine{
		config:    config,
		logger:    zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger(),
		model:     objects.NewModel(),
		operators: map[ops.Kind]ops.Node{},
	}
	for _, opt := range opts {
		opt(e)
	}

	var onTransition dispatch.OnTransitionFunc
	if config.TraceTransitions && e.trace != nil {
		onTransition = func(site *dispatch.Site, _, _ dispatch.Strategy, attrs []attribute.KeyValue) {
			e.trace(site.Label(), attrs)
		}
	}
	e.monitor = dispatch.NewMonitor(e.logger.With().Str("component", "dispatch").Logger(), onTransition)
	e.sites = dispatch.NewTable(e.monitor)
	e.realm = ops.NewRealm(e.model, config.Limits())
	e.builder = ops.NewBuilder(e.realm, e.sites)
	e.builder.Fold = config.FoldConstants
	for dir := range e.indices {
		e.indices[dir] = arrayindex.New(arrayindex.Direction(dir), e.sites)
	}
	e.walkers[0] = arrayindex.NewWalker(false, e.sites)
	e.walkers[1] = arrayindex.NewWalker(true, e.sites)

	e.logger.Debug().
		Int("max_bigint_bits", config.MaxBigIntBits).
		Int("max_string_length", config.MaxStringLength).
		Bool("fold_constants", config.FoldConstants).
		Bool("safe_integer_lane", config.SafeIntegerLane).
		Msg("engine created")
	return e, nil
}

func (e *Engine) Config() Config                { return e.config }
func (e *Engine) Logger() zerolog.Logger        { return e.logger }
func (e *Engine) Model() *objects.Model         { return e.model }
func (e *Engine) Realm() *ops.Realm             { return e.realm }
func (e *Engine) Sites() *dispatch.Table        { return e.sites }
func (e *Engine) Monitor() *dispatch.Monitor    { return e.monitor }
func (e *Engine) Builder() *ops.Builder         { return e.builder }
func (e *Engine) Stats() []dispatch.FamilyStats { return e.sites.Stats() }

// PrintSites writes the per-site table.
func (e *Engine) PrintSites(w io.Writer) {
	e.sites.Fprint(w)
}

// operator returns the shared node for k over the two frame slots. It is built
// without folding so both operands stay dynamic.
func (e *Engine) operator(k ops.Kind) ops.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.operators[k]; ok {
		return n
	}
	b := *e.builder
	b.Fold = false
	n := b.Binary(k, b.Local(0, "left"), b.Local(1, "right"), errors.Position{})
	e.operators[k] = n
	return n
}

// EvaluateOperator applies k to two values. Calls with the same operator share
// one node, so repeated calls specialize it.
func (e *Engine) EvaluateOperator(k ops.Kind, left, right value.Value) (value.Value, error) {
	return e.operator(k).Execute(e.realm, ops.NewFrame(left, right))
}

// EvaluateNodes builds `left k right` and runs it once. The node is thrown
// away afterwards, so it gets a detached site instead of a slot in the table.
func (e *Engine) EvaluateNodes(k ops.Kind, left, right ops.Node, f *ops.Frame) (value.Value, error) {
	b := ops.NewBuilder(e.realm, nil)
	b.Fold = e.builder.Fold
	return b.Binary(k, left, right, errors.Position{}).Execute(e.realm, f)
}

// Execute runs a tree built with the engine's builder.
func (e *Engine) Execute(n ops.Node, f *ops.Frame) (value.Value, error) {
	return n.Execute(e.realm, f)
}

func (e *Engine) FirstIndex(obj value.Object, length int64, isArray bool) (int64, error) {
	return e.indices[arrayindex.First].Execute(e.model, obj, 0, length, isArray)
}

func (e *Engine) LastIndex(obj value.Object, length int64, isArray bool) (int64, error) {
	return e.indices[arrayindex.Last].Execute(e.model, obj, 0, length, isArray)
}

func (e *Engine) NextIndex(obj value.Object, index, length int64, isArray bool) (int64, error) {
	return e.indices[arrayindex.Next].Execute(e.model, obj, index, length, isArray)
}

func (e *Engine) PreviousIndex(obj value.Object, index, length int64, isArray bool) (int64, error) {
	return e.indices[arrayindex.Previous].Execute(e.model, obj, index, length, isArray)
}

// ForEachIndex visits the populated indices of obj below length.
func (e *Engine) ForEachIndex(obj value.Object, length int64, forward bool, visit arrayindex.Visitor) error {
	w := e.walkers[0]
	if forward {
		w = e.walkers[1]
	}
	return w.Walk(e.model, obj, length, e.model.ArrayTag(obj).IsArrayLike(), visit)
}
