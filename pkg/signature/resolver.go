package signature

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/daimatz/gopatcher/pkg/classdef"
	"github.com/daimatz/gopatcher/pkg/logging"
	"github.com/daimatz/gopatcher/pkg/proxy"
)

// Registry hands out the proxy for a corpus index, creating it on first use.
// *proxy.Arena implements it.
type Registry interface {
	Get(index int, class classdef.Class) *proxy.ClassProxy
}

// Resolver matches a fixed set of signatures against class corpora.
type Resolver struct {
	signatures []MethodSignature
	registry   Registry
	logger     *slog.Logger
	tracer     *tracer
	metrics    *Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry makes the resolver obtain proxies from reg, so that proxies
// created while resolving are shared with every other user of reg.
func WithRegistry(reg Registry) Option {
	return func(r *Resolver) { r.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logging.OrNop(logger) }
}

// WithTrace reports every opcode comparison to fn, at most limit events per
// second with bursts of burst.
func WithTrace(fn TraceFunc, limit rate.Limit, burst int) Option {
	return func(r *Resolver) { r.tracer = newTracer(fn, limit, burst) }
}

// WithMetrics records resolver statistics in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a resolver for signatures. Signature order matters only
// among signatures sharing a name; the corpus order decides which match wins.
func NewResolver(signatures []MethodSignature, opts ...Option) *Resolver {
	r := &Resolver{
		signatures: signatures,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve scans classes in order and stores the first matching class/method
// pair of every signature in methods. Names already present in methods are
// left alone. Without a registry, proxies come from an arena private to
// this call.
func (r *Resolver) Resolve(classes []classdef.Class, methods *MethodMap) {
	started := time.Now()
	registry := r.registry
	if registry == nil {
		registry = proxy.NewArena()
	}

	for index, class := range classes {
		for _, sig := range r.signatures {
			if methods.Has(sig.Name) {
				continue
			}
			for _, method := range class.Methods() {
				scan, ok := r.compare(sig, class, method)
				if !ok {
					continue
				}
				p := registry.Get(index, class)
				methods.Put(sig.Name, Result{Proxy: p, Scan: scan, MethodName: method.Name()})
				r.metrics.observeResolved()
				r.logger.Debug("signature resolved",
					"signature", sig.Name,
					"class", class.Type(),
					"index", index,
					"method", method.Name(),
					"scan", scan.String(),
				)
				break
			}
		}
	}

	unresolved := 0
	for _, sig := range r.signatures {
		if !methods.Has(sig.Name) {
			unresolved++
			r.logger.Debug("signature unresolved", "signature", sig.Name)
		}
	}
	r.metrics.observeFinished(unresolved, time.Since(started))
	attrs := []any{"classes", len(classes), "resolved", methods.Len(), "unresolved", unresolved}
	if r.tracer != nil && r.tracer.dropped > 0 {
		attrs = append(attrs, "trace_dropped", r.tracer.dropped)
	}
	r.logger.Info("signature resolution finished", attrs...)
}

// ResolveFromProxy compares sig against the current methods of p and returns
// the first match. It does not record anything.
func (r *Resolver) ResolveFromProxy(p *proxy.ClassProxy, sig MethodSignature) (Result, bool) {
	class := p.Readable()
	for _, method := range class.Methods() {
		scan, ok := r.compare(sig, class, method)
		if !ok {
			continue
		}
		return Result{Proxy: p, Scan: scan, MethodName: method.Name()}, true
	}
	return Result{}, false
}

// ResolveFromProxy is Resolver.ResolveFromProxy without logging, tracing or metrics.
func ResolveFromProxy(p *proxy.ClassProxy, sig MethodSignature) (Result, bool) {
	return NewResolver(nil).ResolveFromProxy(p, sig)
}

func (r *Resolver) compare(sig MethodSignature, class classdef.Class, method classdef.Method) (PatternScanResult, bool) {
	r.metrics.observeComparison()
	scan, ok := CompareSignatureToMethod(sig, method)
	if r.tracer != nil && len(sig.Opcodes) > 0 {
		r.tracer.emit(TraceEvent{
			Signature: sig.Name,
			Class:     class.Type(),
			Method:    method.Name(),
			Matched:   ok,
			Scan:      scan,
		})
	}
	return scan, ok
}
