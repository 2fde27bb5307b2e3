package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/cache"
	"github.com/oggyb/hire-match/internal/config"
	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/logger"
	"github.com/oggyb/hire-match/internal/service"
	"github.com/oggyb/hire-match/internal/service/matching"
)

type seedFlags struct {
	cfgFile string
	reset   bool
	opts    db.SeedOptions
	swipes  int
}

func main() {
	var f seedFlags

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the database with demo users, jobs and swipes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.cfgFile, "config", "", "optional config file")
	cmd.Flags().BoolVar(&f.reset, "reset", true, "delete all rows before seeding")
	cmd.Flags().IntVar(&f.opts.Candidates, "candidates", 20, "number of candidates")
	cmd.Flags().IntVar(&f.opts.Employers, "employers", 5, "number of employers")
	cmd.Flags().IntVar(&f.opts.JobsPerEmployer, "jobs", 2, "job ads per employer")
	cmd.Flags().Int64Var(&f.opts.Seed, "seed", 42, "random seed (0 = random)")
	cmd.Flags().IntVar(&f.swipes, "swipes", 200, "number of swipes to record")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, f seedFlags) error {
	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return err
	}
	logger.InitFromConfig(cfg)
	log := logger.With("component", "seed")

	database, err := db.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}

	if f.reset {
		if err := db.Reset(database); err != nil {
			return err
		}
	}

	seeded, err := db.SeedTestData(database, f.opts)
	if err != nil {
		return err
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, notification counters will not be invalidated", "err", err)
	}

	appCtx := app.New(database, redisCache, log)
	defer appCtx.Close()

	services := service.New(appCtx)
	matches := recordSwipes(ctx, services.Matching, seeded, f.swipes, f.opts.Seed)

	log.Info("Seeding completed.", "swipes", f.swipes, "matches", matches)
	return nil
}

// recordSwipes drives random swipes through the matching service so that
// matches, chats, applications and notifications are created the normal way.
func recordSwipes(ctx context.Context, svc *matching.Service, seeded *db.SeedResult, n int, seed int64) int {
	if len(seeded.Candidates) < 2 || len(seeded.Jobs) == 0 {
		return 0
	}
	faker := gofakeit.New(seed)
	employerOf := make(map[uint64]db.User, len(seeded.Employers))
	for _, e := range seeded.Employers {
		employerOf[e.ID] = e
	}

	matches := 0
	for i := 0; i < n; i++ {
		direction := db.DirectionLeft
		if faker.Bool() {
			direction = db.DirectionRight
		}

		var (
			caller identity.Identity
			in     matching.SwipeInput
		)
		candidate := seeded.Candidates[faker.Number(0, len(seeded.Candidates)-1)]

		if faker.Bool() {
			other := seeded.Candidates[faker.Number(0, len(seeded.Candidates)-1)]
			if other.ID == candidate.ID {
				continue
			}
			caller = asIdentity(candidate)
			in = matching.SwipeInput{SwipedID: other.ID, Direction: direction, Type: db.SwipeCandidate}
		} else {
			job := seeded.Jobs[faker.Number(0, len(seeded.Jobs)-1)]
			employer := employerOf[job.UserID]
			jobID := job.ID
			// either side may start
			if faker.Bool() {
				caller = asIdentity(candidate)
				in = matching.SwipeInput{SwipedID: employer.ID, Direction: direction, Type: db.SwipeJob, JobID: &jobID}
			} else {
				caller = asIdentity(employer)
				in = matching.SwipeInput{SwipedID: candidate.ID, Direction: direction, Type: db.SwipeJob, JobID: &jobID}
			}
		}

		res, err := svc.RecordSwipe(ctx, caller, in)
		if err != nil {
			logger.Warn("seed swipe failed", "swiper", caller.UserID, "swiped", in.SwipedID, "err", err)
			continue
		}
		if res.Match != nil {
			matches++
		}
	}
	return matches
}

func asIdentity(u db.User) identity.Identity {
	return identity.Identity{UserID: u.ID, LevelID: u.UserLevelID, Type: u.UserType}
}
