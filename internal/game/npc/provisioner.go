package npc

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Provisioner builds enemy snapshots from registered templates.
// It implements combat.EnemyProvider and is safe for concurrent use.
type Provisioner struct {
	reg     *Registry
	skills  SkillCatalog
	src     combat.Source
	logger  *zap.Logger
	counter atomic.Uint64
}

// NewProvisioner creates a Provisioner.
//
// Precondition: reg, src and logger must be non-nil; skills may be nil.
func NewProvisioner(reg *Registry, skills SkillCatalog, src combat.Source, logger *zap.Logger) *Provisioner {
	return &Provisioner{reg: reg, skills: skills, src: src, logger: logger}
}

// ProvisionEnemy picks a template for req and builds a snapshot at req.Level
// (the template level when req.Level < 1). When several templates match a
// category one is chosen uniformly.
//
// Postcondition: Returns an error wrapping ErrNoTemplate when nothing matches.
func (p *Provisioner) ProvisionEnemy(ctx context.Context, req combat.EnemyRequest) (*combat.Combatant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cands, err := p.reg.Candidates(req.Category, req.Species)
	if err != nil {
		return nil, err
	}
	tmpl := cands[0]
	if len(cands) > 1 {
		tmpl = cands[p.src.Intn(len(cands))]
	}
	n := p.counter.Add(1)
	c, missing := Build(tmpl, fmt.Sprintf("%s-%d", tmpl.ID, n), req.Level, p.skills)
	if len(missing) > 0 {
		p.logger.Warn("enemy references unknown skills",
			zap.String("template", tmpl.ID),
			zap.Strings("skills", missing),
		)
	}
	p.logger.Debug("enemy provisioned",
		zap.String("template", tmpl.ID),
		zap.String("id", c.ID),
		zap.Int("level", c.Level),
	)
	return c, nil
}

var _ combat.EnemyProvider = (*Provisioner)(nil)
