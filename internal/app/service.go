package app

import (
	"adspark/internal/assets"
	"adspark/internal/enhance"
	"adspark/internal/gemini"
	"adspark/internal/imagen"
	"adspark/internal/project"
	"adspark/internal/storyboard"
	"adspark/pkg/config"
	"adspark/pkg/prompts"
)

type Service struct {
	cfg          *config.Config
	text         *gemini.Client
	store        project.Store
	uploader     assets.Uploader
	synthesizer  *storyboard.Synthesizer
	orchestrator *imagen.Orchestrator
	composer     *enhance.Composer
	prompts      *prompts.Prompts
	demo         bool
	closers      []func() error
}

type ServiceOptions struct {
	Config       *config.Config
	Text         *gemini.Client
	Store        project.Store
	Uploader     assets.Uploader
	Synthesizer  *storyboard.Synthesizer
	Orchestrator *imagen.Orchestrator
	Composer     *enhance.Composer
	Prompts      *prompts.Prompts
	Demo         bool
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:          opts.Config,
		text:         opts.Text,
		store:        opts.Store,
		uploader:     opts.Uploader,
		synthesizer:  opts.Synthesizer,
		orchestrator: opts.Orchestrator,
		composer:     opts.Composer,
		prompts:      opts.Prompts,
		demo:         opts.Demo,
	}
}

func (s *Service) Config() *config.Config               { return s.cfg }
func (s *Service) Text() *gemini.Client                 { return s.text }
func (s *Service) Store() project.Store                 { return s.store }
func (s *Service) Uploader() assets.Uploader            { return s.uploader }
func (s *Service) Synthesizer() *storyboard.Synthesizer { return s.synthesizer }
func (s *Service) Orchestrator() *imagen.Orchestrator   { return s.orchestrator }
func (s *Service) Composer() *enhance.Composer          { return s.composer }
func (s *Service) Prompts() *prompts.Prompts            { return s.prompts }

// Demo reports whether the service runs without a real image backend.
func (s *Service) Demo() bool { return s.demo }

func (s *Service) addCloser(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Service) Close() error {
	var firstErr error
	for _, fn := range s.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
