// Package main provides the combat simulator binary: it loads weapons and hostile
// templates, accepts a mission, and plays one encounter on autopilot.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/config"
	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/dice"
	"github.com/cory-johannsen/fireteam/internal/game/hostile"
	"github.com/cory-johannsen/fireteam/internal/game/mission"
	"github.com/cory-johannsen/fireteam/internal/game/player"
	"github.com/cory-johannsen/fireteam/internal/game/sim"
	"github.com/cory-johannsen/fireteam/internal/game/weapon"
	"github.com/cory-johannsen/fireteam/internal/llm"
	"github.com/cory-johannsen/fireteam/internal/observability"
	"github.com/cory-johannsen/fireteam/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", *envPath, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "combatsim")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	clk := clock.System()
	var src dice.Source = dice.NewCryptoSource()
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
	}
	src = dice.NewLoggedSource(src, logger, "combat")

	arsenal := weapon.NewArsenal()
	if cfg.Content.WeaponsDir != "" {
		defs, err := weapon.LoadDefs(cfg.Content.WeaponsDir)
		if err != nil {
			logger.Fatal("loading weapons", zap.Error(err))
		}
		for _, d := range defs {
			if err := arsenal.Register(d); err != nil {
				logger.Fatal("registering weapon", zap.String("weapon", d.ID), zap.Error(err))
			}
		}
	}
	logger.Info("arsenal loaded", zap.Int("weapons", len(arsenal.All())))

	w, err := arsenal.Build(cfg.Simulation.WeaponID, clk, src, logger)
	if err != nil {
		logger.Fatal("building weapon", zap.Error(err))
	}

	templates, err := hostile.LoadTemplates(cfg.Content.HostilesDir)
	if err != nil {
		logger.Fatal("loading hostile templates", zap.Error(err))
	}
	registry := hostile.NewRegistry(clk, src, logger)
	for _, tmpl := range templates {
		spawned, err := registry.SpawnTemplate(tmpl)
		if err != nil {
			logger.Fatal("spawning hostiles", zap.String("template", tmpl.ID), zap.Error(err))
		}
		logger.Info("hostiles spawned",
			zap.String("template", tmpl.ID),
			zap.Int("count", len(spawned)),
		)
	}

	provider, err := missionProvider(cfg.Mission, src, logger)
	if err != nil {
		logger.Fatal("configuring mission provider", zap.Error(err))
	}

	store := player.NewStore(logger)
	loop := sim.NewLoop(store, registry, w, clk, logger, sim.Options{
		HostileDamage:  cfg.Simulation.HostileDamage,
		AttackInterval: cfg.Simulation.AttackInterval,
		KillScore:      cfg.Simulation.KillScore,
	})

	lifecycle := server.NewLifecycle(logger, 5*time.Second)
	lifecycle.Add("encounter", server.ServiceFunc(func(ctx context.Context) error {
		if _, err := loop.AcceptMission(ctx, provider); err != nil {
			return err
		}
		rep, err := loop.Run(ctx, cfg.Simulation.TickInterval,
			sim.Autopilot(cfg.Simulation.EngageRange, cfg.Simulation.PlayerStep))
		final := store.State()
		logger.Info("encounter ended",
			zap.Bool("player_alive", final.Alive()),
			zap.Int("health", final.Health),
			zap.Int("score", final.Score),
			zap.Int("hostiles_remaining", rep.Alive),
		)
		return err
	}))

	logger.Info("simulator initialized", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Error("simulator exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func missionProvider(cfg config.MissionConfig, src dice.Source, logger *zap.Logger) (mission.Provider, error) {
	fallback := mission.NewFallback(src)
	if cfg.Provider != "anthropic" {
		return fallback, nil
	}
	gen, err := llm.NewMissionGenerator(llm.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		BaseURL:   cfg.BaseURL,
	}, logger)
	if err != nil {
		return nil, err
	}
	return mission.NewResilient(gen, fallback, cfg.Timeout, logger), nil
}
