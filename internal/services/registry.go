// Package services wires the domain services together for the daemon.
package services

import (
	"github.com/fyrsmithlabs/wardend/internal/decision"
	"github.com/fyrsmithlabs/wardend/internal/enforcement"
	"github.com/fyrsmithlabs/wardend/internal/orchestrator"
	"github.com/fyrsmithlabs/wardend/internal/provider"
	"github.com/fyrsmithlabs/wardend/internal/scopelock"
)

// Registry provides access to all wardend services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Gate() *enforcement.Gate
	Orchestrator() *orchestrator.Orchestrator
	Journal() *decision.Log
	Scopes() *scopelock.Service
	Provider() provider.Provider
}

// Options configures the registry with service instances.
type Options struct {
	Gate         *enforcement.Gate
	Orchestrator *orchestrator.Orchestrator
	Journal      *decision.Log
	Scopes       *scopelock.Service
	Provider     provider.Provider
}

// registry is the concrete implementation of Registry.
type registry struct {
	gate         *enforcement.Gate
	orchestrator *orchestrator.Orchestrator
	journal      *decision.Log
	scopes       *scopelock.Service
	provider     provider.Provider
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		gate:         opts.Gate,
		orchestrator: opts.Orchestrator,
		journal:      opts.Journal,
		scopes:       opts.Scopes,
		provider:     opts.Provider,
	}
}

func (r *registry) Gate() *enforcement.Gate                  { return r.gate }
func (r *registry) Orchestrator() *orchestrator.Orchestrator { return r.orchestrator }
func (r *registry) Journal() *decision.Log                   { return r.journal }
func (r *registry) Scopes() *scopelock.Service               { return r.scopes }
func (r *registry) Provider() provider.Provider              { return r.provider }
