// Package main provides the skirmish binary: an interactive terminal
// frontend over the turn-based combat engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/console"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/player"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/special"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	playerID := flag.String("player", "", "player id to load from the database; defaults to the profile file's id")
	environment := flag.String("environment", "the old forest", "environment named in every battle")
	color := flag.Bool("color", true, "colorize terminal output")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	lc := server.NewLifecycle(logger)

	// Content
	skills, err := skill.LoadCatalog(cfg.Content.SkillsDir)
	if err != nil {
		logger.Fatal("loading skills", zap.Error(err))
	}
	templates, err := npc.LoadTemplates(cfg.Content.EnemiesDir)
	if err != nil {
		logger.Fatal("loading enemy templates", zap.Error(err))
	}
	enemies, err := npc.NewRegistryFromTemplates(templates)
	if err != nil {
		logger.Fatal("indexing enemy templates", zap.Error(err))
	}
	defs, err := inventory.LoadItems(cfg.Content.ItemsDir)
	if err != nil {
		logger.Fatal("loading items", zap.Error(err))
	}
	items, err := inventory.NewRegistryFromItems(defs)
	if err != nil {
		logger.Fatal("indexing items", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("skills", skills.Len()),
		zap.Int("enemies", enemies.Len()),
		zap.Int("items", len(defs)),
	)

	// Player
	provider, profile, err := openPlayer(ctx, cfg, *playerID, lc, logger)
	if err != nil {
		logger.Fatal("loading player", zap.Error(err))
	}

	gear := equipment.NewAggregator()
	resolver := combat.NewResolver(roller, gear, logger.Named("combat"))
	bag := inventory.NewBackpack(items, cfg.Inventory.MaxSlots, cfg.Inventory.MaxWeight)
	pack := inventory.NewPack(bag, items, roller, logger)
	loadout := inventory.NewLoadout(items, gear)
	seedGear(profile, bag, loadout, logger)

	skillExec := skill.NewExecutor(skills, resolver, profile.Skills, logger)

	deps := combat.Deps{
		Player:    provider,
		Enemies:   npc.NewProvisioner(enemies, skills, roller, logger),
		Skills:    skillExec,
		Cooldowns: skillExec,
		Inventory: pack,
		Resolver:  resolver,
		Settings: combat.Settings{
			EnemySkillChance:   cfg.Combat.EnemySkillChance,
			ExperiencePerLevel: cfg.Combat.ExperiencePerLevel,
		},
		Logger: logger.Named("engine"),
	}

	// Special attacks
	var specials *special.Catalog
	if cfg.Content.ScriptsDir != "" {
		scripts := scripting.NewManager(roller, logger, cfg.Combat.ScriptInstructionLimit)
		lc.OnStop("scripting", scripts.Close)
		n, err := scripts.LoadDir(ctx, cfg.Content.ScriptsDir)
		if err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		specials, err = special.LoadCatalog(cfg.Content.SpecialsFile)
		if err != nil {
			logger.Fatal("loading special attacks", zap.Error(err))
		}
		deps.Specials = special.NewExecutor(specials, scripts, resolver, logger)
		logger.Info("scripting engine initialized",
			zap.Int("scripts", n),
			zap.Int("specials", len(specials.IDs())),
		)
	}

	history, _ := provider.(player.History)
	display := console.NewDisplay(os.Stdout, *color, pack, logger)
	deps.Notifier = display
	engine := combat.NewEngine(deps)

	session := console.NewSession(console.Game{
		Engine:      engine,
		Player:      provider,
		Items:       items,
		Bag:         bag,
		Loadout:     loadout,
		Skills:      skills,
		Cooldowns:   skillExec,
		Specials:    specials,
		History:     history,
		Environment: *environment,
	}, display, cfg.Combat.PacingDelay(), logger)

	lc.Add("console", server.ServiceFunc(func(ctx context.Context) error {
		return session.Run(ctx, os.Stdin)
	}))
	lc.OnStop("pacer", session.Wait)

	logger.Info("skirmish ready",
		zap.String("player", profile.Name),
		zap.Duration("startup", time.Since(start)),
	)
	if err := lc.Run(ctx); err != nil {
		logger.Error("skirmish stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// openPlayer returns the player provider selected by the configuration and
// the profile used to seed the backpack and loadout.
func openPlayer(ctx context.Context, cfg config.Config, id string, lc *server.Lifecycle, logger *zap.Logger) (combat.PlayerProvider, player.Profile, error) {
	var seed player.Profile
	if cfg.Content.PlayerFile != "" {
		p, err := player.LoadProfile(cfg.Content.PlayerFile)
		if err != nil {
			return nil, player.Profile{}, err
		}
		seed = p
	}

	if !cfg.Database.Enabled {
		logger.Info("using file-backed player", zap.String("file", cfg.Content.PlayerFile))
		return player.NewMemoryStore(seed), seed, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, player.Profile{}, fmt.Errorf("connecting to database: %w", err)
	}
	lc.OnStop("postgres", pool.Close)
	if err := pool.Health(ctx, 5*time.Second); err != nil {
		return nil, player.Profile{}, fmt.Errorf("database health check: %w", err)
	}
	repo := postgres.NewPlayerRepository(pool.DB())

	if id == "" {
		id = seed.ID
	}
	if id == "" {
		return nil, player.Profile{}, errors.New("no player id: set -player or content.player_file")
	}
	if seed.ID == id {
		if err := repo.Create(ctx, seed); err != nil && !errors.Is(err, postgres.ErrPlayerExists) {
			return nil, player.Profile{}, fmt.Errorf("creating player: %w", err)
		}
	}
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, player.Profile{}, fmt.Errorf("loading player %q: %w", id, err)
	}
	// The database holds stats only; starting gear always comes from the file.
	p.Items, p.Equipment = seed.Items, seed.Equipment
	logger.Info("using database-backed player", zap.String("player", p.ID))
	return postgres.NewStore(repo, p.ID), p, nil
}

// seedGear stocks the backpack from the profile and equips its gear.
func seedGear(p player.Profile, bag *inventory.Backpack, loadout *inventory.Loadout, logger *zap.Logger) {
	ids := make([]string, 0, len(p.Items))
	for id := range p.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := bag.Add(id, p.Items[id]); err != nil {
			logger.Warn("seeding backpack", zap.String("item", id), zap.Error(err))
		}
	}
	for _, id := range p.Equipment {
		if bag.Quantity(id) == 0 {
			if err := bag.Add(id, 1); err != nil {
				logger.Warn("stowing equipment", zap.String("item", id), zap.Error(err))
				continue
			}
		}
		if err := loadout.Equip(id); err != nil {
			logger.Warn("equipping item", zap.String("item", id), zap.Error(err))
		}
	}
}
