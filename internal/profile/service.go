package profile

import (
	"context"
	"slices"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/TimurManjosov/goprofiles/internal/profile")

// Observer is told about every finished resolution.
type Observer interface {
	ObserveResolution(tier Tier, profileID string, fallback bool)
}

type options struct {
	precedence Precedence
	observer   Observer
}

// Option configures a service.
type Option func(*options)

// WithPrecedence selects the precedence policy. The default is PrecedenceRegistration.
func WithPrecedence(p Precedence) Option {
	return func(o *options) { o.precedence = p }
}

// WithObserver installs an observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{precedence: PrecedenceRegistration}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// registry keeps providers in evaluation order.
type registry[P Identified] struct {
	precedence Precedence
	providers  []P
}

func (r *registry[P]) add(p P) {
	idx := len(r.providers)
	if r.precedence == PrecedencePriority {
		rank := p.Rank()
		idx = sort.Search(len(r.providers), func(i int) bool { return r.providers[i].Rank() < rank })
	}
	r.providers = slices.Insert(r.providers, idx, p)
}

func (r *registry[P]) find(id string) (P, bool) {
	for _, p := range r.providers {
		if p.ID() == id {
			return p, true
		}
	}
	var zero P
	return zero, false
}

func (r *registry[P]) infos(tier Tier, defaultID string) []Info {
	out := make([]Info, 0, len(r.providers)+1)
	for _, p := range r.providers {
		out = append(out, Info{ProfileID: p.ID(), Tier: tier, Experimental: p.Experimental(), Priority: p.Rank()})
	}
	return append(out, Info{ProfileID: defaultID, Tier: tier, Default: true})
}

// Service resolves synchronous tiers (data source, document).
//
// Providers are registered up front and the provider list is not modified while
// resolutions run; build a new Service to change it.
type Service[In, C any] struct {
	tier     Tier
	fallback Resolved[C]
	reg      registry[Provider[In, C]]
	observer Observer
}

// NewService returns a service for tier that falls back to defaultContext, tagged with
// defaultProfileID, when no provider matches.
func NewService[In, C any](tier Tier, defaultProfileID string, defaultContext C, opts ...Option) *Service[In, C] {
	o := buildOptions(opts)
	return &Service[In, C]{
		tier:     tier,
		fallback: Resolved[C]{ProfileID: defaultProfileID, Context: defaultContext},
		reg:      registry[Provider[In, C]]{precedence: o.precedence},
		observer: o.observer,
	}
}

// Tier returns the tier the service resolves.
func (s *Service[In, C]) Tier() Tier { return s.tier }

// Default returns the fallback resolution.
func (s *Service[In, C]) Default() Resolved[C] { return s.fallback }

// Register appends p to the provider list.
func (s *Service[In, C]) Register(p Provider[In, C]) error {
	if err := validateProvider(p.ProfileID, p.Resolve != nil); err != nil {
		return err
	}
	s.reg.add(p)
	return nil
}

// Resolve returns the resolution of the first provider whose predicate matches in,
// or the default resolution. A panicking predicate is not recovered.
func (s *Service[In, C]) Resolve(in In) Resolved[C] {
	for _, p := range s.reg.providers {
		res := p.Resolve(in)
		if ctx, ok := res.Context(); ok {
			s.observe(p.ProfileID, false)
			return Resolved[C]{ProfileID: p.ProfileID, Context: ctx}
		}
	}
	s.observe(s.fallback.ProfileID, true)
	return s.fallback
}

// GetProfile returns the extension points of the provider that produced r, bound to
// r's context. The default resolution has no extension points.
func (s *Service[In, C]) GetProfile(r Resolved[C]) Composable {
	if p, ok := s.reg.find(r.ProfileID); ok {
		return p.Profile.Bind(r.ProfileID, r.Context)
	}
	return Composable{ProfileID: r.ProfileID}
}

// Providers lists the registered providers in evaluation order, followed by the
// default.
func (s *Service[In, C]) Providers() []Info {
	return s.reg.infos(s.tier, s.fallback.ProfileID)
}

func (s *Service[In, C]) observe(id string, fallback bool) {
	if s.observer != nil {
		s.observer.ObserveResolution(s.tier, id, fallback)
	}
}

// AsyncService resolves the root tier, whose predicates may block.
type AsyncService[In, C any] struct {
	tier     Tier
	fallback Resolved[C]
	reg      registry[AsyncProvider[In, C]]
	observer Observer
}

// NewAsyncService is NewService for asynchronous providers.
func NewAsyncService[In, C any](tier Tier, defaultProfileID string, defaultContext C, opts ...Option) *AsyncService[In, C] {
	o := buildOptions(opts)
	return &AsyncService[In, C]{
		tier:     tier,
		fallback: Resolved[C]{ProfileID: defaultProfileID, Context: defaultContext},
		reg:      registry[AsyncProvider[In, C]]{precedence: o.precedence},
		observer: o.observer,
	}
}

// Tier returns the tier the service resolves.
func (s *AsyncService[In, C]) Tier() Tier { return s.tier }

// Default returns the fallback resolution.
func (s *AsyncService[In, C]) Default() Resolved[C] { return s.fallback }

// Register appends p to the provider list.
func (s *AsyncService[In, C]) Register(p AsyncProvider[In, C]) error {
	if err := validateProvider(p.ProfileID, p.Resolve != nil); err != nil {
		return err
	}
	s.reg.add(p)
	return nil
}

// Resolve is Service.Resolve for blocking predicates. An error from a predicate stops
// the resolution and is returned as is.
func (s *AsyncService[In, C]) Resolve(ctx context.Context, in In) (Resolved[C], error) {
	ctx, span := tracer.Start(ctx, "profile.resolve", trace.WithAttributes(
		attribute.String("profile.tier", string(s.tier)),
	))
	defer span.End()

	for _, p := range s.reg.providers {
		res, err := p.Resolve(ctx, in)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Resolved[C]{}, err
		}
		if c, ok := res.Context(); ok {
			span.SetAttributes(attribute.String("profile.id", p.ProfileID))
			s.observe(p.ProfileID, false)
			return Resolved[C]{ProfileID: p.ProfileID, Context: c}, nil
		}
	}

	span.SetAttributes(attribute.String("profile.id", s.fallback.ProfileID), attribute.Bool("profile.fallback", true))
	s.observe(s.fallback.ProfileID, true)
	return s.fallback, nil
}

// GetProfile is Service.GetProfile for the asynchronous tier.
func (s *AsyncService[In, C]) GetProfile(r Resolved[C]) Composable {
	if p, ok := s.reg.find(r.ProfileID); ok {
		return p.Profile.Bind(r.ProfileID, r.Context)
	}
	return Composable{ProfileID: r.ProfileID}
}

// Providers lists the registered providers in evaluation order, followed by the
// default.
func (s *AsyncService[In, C]) Providers() []Info {
	return s.reg.infos(s.tier, s.fallback.ProfileID)
}

func (s *AsyncService[In, C]) observe(id string, fallback bool) {
	if s.observer != nil {
		s.observer.ObserveResolution(s.tier, id, fallback)
	}
}

// Tier aliases used throughout the repository.
type (
	RootProvider       = AsyncProvider[RootInput, RootContext]
	DataSourceProvider = Provider[DataSourceInput, DataSourceContext]
	DocumentProvider   = Provider[DocumentInput, DocumentContext]

	RootService       = AsyncService[RootInput, RootContext]
	DataSourceService = Service[DataSourceInput, DataSourceContext]
	DocumentService   = Service[DocumentInput, DocumentContext]
)
