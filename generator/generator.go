// Package generator turns a parsed schema into Laravel artifacts: one
// combined migration per run plus a model, controller, service, factory
// and seeder per schema model.
package generator

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/paulobunga/parkman/config"
	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/stub"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSchemaMissing is returned when Generate is called without a schema.
	ErrSchemaMissing = errors.New("generator: no schema supplied")
	// ErrUnknownKind is returned by ParseKinds for an unrecognised kind.
	ErrUnknownKind = errors.New("generator: unknown artifact kind")
)

type Kind string

const (
	Models      Kind = "models"
	Migrations  Kind = "migrations"
	Controllers Kind = "controllers"
	Services    Kind = "services"
	Factories   Kind = "factories"
	Seeders     Kind = "seeders"
)

// AllKinds is every artifact kind in generation order.
var AllKinds = []Kind{Models, Migrations, Controllers, Services, Factories, Seeders}

// KindSet is a set of requested artifact kinds.
type KindSet map[Kind]bool

// ParseKinds reads kind names as given on the command line. "all" selects
// every kind and no names select migrations only. Singular names are
// accepted.
func ParseKinds(names []string) (KindSet, error) {
	set := KindSet{}
	if len(names) == 0 {
		set[Migrations] = true
		return set, nil
	}
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if part == "all" {
				for _, k := range AllKinds {
					set[k] = true
				}
				continue
			}
			k := Kind(part)
			if !k.valid() {
				k = Kind(inflect.Pluralize(part))
			}
			if !k.valid() {
				return nil, fmt.Errorf("%w: %s", ErrUnknownKind, part)
			}
			set[k] = true
		}
	}
	if len(set) == 0 {
		set[Migrations] = true
	}
	return set, nil
}

func (k Kind) valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Sorted returns the kinds of s in generation order.
func (s KindSet) Sorted() []Kind {
	var out []Kind
	for _, k := range AllKinds {
		if s[k] {
			out = append(out, k)
		}
	}
	return out
}

// Artifact is one rendered file.
type Artifact struct {
	Kind    Kind
	Model   string // empty for the migration
	Path    string
	Content string
}

// Input is everything one generation run works from.
type Input struct {
	Schema *schema.Schema
	// Operations are appended to the migration after the table creates.
	Operations []diff.Operation
	// ExistingTables are not created again.
	ExistingTables map[string]bool
}

type Generator struct {
	engine *stub.Engine
	sink   FileSink
	cfg    config.Config
	now    func() time.Time
	// parallel bounds concurrent per-model rendering; 1 renders in order
	// on the calling goroutine.
	parallel int
}

type Option func(*Generator)

// WithClock sets the time source for migration file names.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithParallelism lets up to n models of one kind render at once. Values
// below 1 are treated as 1. Artifacts keep model order either way.
func WithParallelism(n int) Option {
	return func(g *Generator) {
		g.parallel = max(n, 1)
	}
}

func New(engine *stub.Engine, sink FileSink, cfg config.Config, opts ...Option) *Generator {
	g := &Generator{
		engine:   engine,
		sink:     sink,
		cfg:      cfg,
		now:      time.Now,
		parallel: 1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders every requested kind and hands the results to the sink,
// one kind at a time. A kind is rendered completely before any of its files
// is written, so a missing template leaves that kind untouched. The first
// error stops the run; artifacts already written are returned with it.
func (g *Generator) Generate(in Input, kinds KindSet) ([]Artifact, error) {
	if in.Schema == nil {
		return nil, ErrSchemaMissing
	}

	s := *in.Schema
	models := schema.Order(s.Models)

	var written []Artifact
	for _, kind := range kinds.Sorted() {
		arts, err := g.render(kind, s, models, in)
		if err != nil {
			return written, fmt.Errorf("generating %s: %w", kind, err)
		}
		for _, a := range arts {
			if err := g.sink.EnsureDirectory(filepath.Dir(a.Path)); err != nil {
				return written, err
			}
			if err := g.sink.WriteText(a.Path, a.Content); err != nil {
				return written, err
			}
			written = append(written, a)
		}
	}
	return written, nil
}

func (g *Generator) render(kind Kind, s schema.Schema, models []schema.Model, in Input) ([]Artifact, error) {
	if kind == Migrations {
		a, ok, err := g.migration(s, models, in)
		if err != nil || !ok {
			return nil, err
		}
		return []Artifact{a}, nil
	}

	arts := make([]Artifact, len(models))
	if g.parallel <= 1 {
		for i, m := range models {
			a, err := g.perModel(kind, s, m)
			if err != nil {
				return nil, err
			}
			arts[i] = a
		}
		return arts, nil
	}

	// models render independently; arts keeps their order
	var eg errgroup.Group
	eg.SetLimit(g.parallel)
	for i, m := range models {
		i, m := i, m
		eg.Go(func() error {
			a, err := g.perModel(kind, s, m)
			if err != nil {
				return err
			}
			arts[i] = a
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return arts, nil
}

func (g *Generator) perModel(kind Kind, s schema.Schema, m schema.Model) (Artifact, error) {
	var (
		name   string
		values map[string]stub.Value
		dir    string
		file   string
	)
	switch kind {
	case Models:
		name, dir, file = "model", g.cfg.Paths.Models, m.Name
		values = g.entityValues(s, m)
	case Controllers:
		name, dir, file = "controller", g.cfg.Paths.Controllers, m.Name+"Controller"
		values = g.classValues(m, g.cfg.Namespaces.Controllers)
	case Services:
		name, dir, file = "service", g.cfg.Paths.Services, m.Name+"Service"
		values = g.classValues(m, g.cfg.Namespaces.Services)
	case Factories:
		name, dir, file = "factory", g.cfg.Paths.Factories, m.Name+"Factory"
		values = g.factoryValues(s, m)
	case Seeders:
		name, dir, file = "seeder", g.cfg.Paths.Seeders, m.Name+"Seeder"
		values = g.seederValues(m)
	default:
		return Artifact{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	content, err := g.engine.Render(name, values)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Kind:    kind,
		Model:   m.Name,
		Path:    filepath.Join(dir, file+".php"),
		Content: content,
	}, nil
}
