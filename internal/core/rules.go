package core

import "spacecore/pkg/domain"

// NewDefaultRulesEngine returns an engine with the standard consistency
// rules registered. Every store opened through this package evaluates these
// at commit.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(OwnerInvariantRule{})
	engine.Register(LifecycleCoherenceRule{})
	engine.Register(LayoutIntegrityRule{})
	return engine
}
