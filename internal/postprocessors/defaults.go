package postprocessors

import (
	"fmt"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/postprocessors/chunker"
	"github.com/campusgpt/harvester/internal/postprocessors/enricher"
	"github.com/campusgpt/harvester/internal/postprocessors/filter"
	"github.com/campusgpt/harvester/internal/postprocessors/sequencer"
)

// DefaultOrder is the stage order of a harvest job pipeline.
var DefaultOrder = []string{"chunker", "enricher", "filter", "sequencer"}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("enricher", buildEnricher)
	r.Register("filter", buildFilter)
	r.Register("sequencer", buildSequencer)
}

func buildChunker(env Env) (driven.PostProcessor, error) {
	cfg := env.Config
	p, err := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
		chunker.WithSentenceTolerance(cfg.SentenceTolerance),
		chunker.WithMinSectionLen(cfg.MinSectionLen),
		chunker.WithChunkBounds(cfg.MinChunkLen, cfg.MaxChunkLen),
		chunker.WithNoisePatterns(cfg.Rules.NoisePatterns),
		chunker.WithObserver(env.Observer),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func buildEnricher(env Env) (driven.PostProcessor, error) {
	return enricher.New(env.Config.Rules, env.Config.FAQThreshold), nil
}

func buildFilter(env Env) (driven.PostProcessor, error) {
	return filter.New(filter.RulesFrom(env.Config), env.Observer), nil
}

func buildSequencer(Env) (driven.PostProcessor, error) {
	return sequencer.New(), nil
}

// Factory builds one pipeline per job from a registry and a stage order.
// It implements driven.PipelineFactory.
type Factory struct {
	registry *Registry
	order    []string
	cfg      domain.Config
}

// NewFactory returns a factory using the built-in processors in
// DefaultOrder.
func NewFactory(cfg domain.Config) *Factory {
	r := NewRegistry()
	RegisterDefaults(r)
	return &Factory{registry: r, order: DefaultOrder, cfg: cfg}
}

// NewFactoryWith returns a factory over a custom registry and order.
func NewFactoryWith(cfg domain.Config, r *Registry, order []string) *Factory {
	return &Factory{registry: r, order: order, cfg: cfg}
}

// NewPipeline builds a fresh pipeline reporting to obs.
func (f *Factory) NewPipeline(obs driven.PipelineObserver) (driven.PostProcessorPipeline, error) {
	env := Env{Config: f.cfg, Observer: obs}
	p := NewPipeline()
	for _, name := range f.order {
		proc, err := f.registry.Build(name, env)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.Add(proc)
	}
	return p, nil
}
