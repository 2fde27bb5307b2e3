// Package testutil wires an isolated AppContext for package tests:
// in-memory SQLite with the full schema, a miniredis instance and a silent logger.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/cache"
	"github.com/oggyb/hire-match/internal/config"
	"github.com/oggyb/hire-match/internal/db"
	applog "github.com/oggyb/hire-match/internal/logger"
)

// Env is what a test gets back from Setup.
type Env struct {
	App   *app.AppContext
	DB    *gorm.DB
	Redis *miniredis.Miniredis
}

// Setup spins up an in-memory SQLite DB named after the test, migrates it,
// starts a miniredis and wires both into an AppContext.
//
// Each test gets its own isolated DB + Redis.
func Setup(t *testing.T) *Env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), db.Options(logger.Discard))
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// one connection keeps transactions and plain reads on the same in-memory DB
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	return &Env{
		App:   app.New(gdb, redisCache, applog.Discard()),
		DB:    gdb,
		Redis: mr,
	}
}

// Candidate inserts a candidate user with the given id.
func (e *Env) Candidate(t *testing.T, id uint64) db.User {
	return e.user(t, id, db.UserCandidate, db.LevelUser)
}

// Employer inserts an employer user with the given id.
func (e *Env) Employer(t *testing.T, id uint64) db.User {
	return e.user(t, id, db.UserEmployer, db.LevelUser)
}

// Admin inserts an admin user with the given id.
func (e *Env) Admin(t *testing.T, id uint64) db.User {
	return e.user(t, id, db.UserCandidate, db.LevelAdmin)
}

// Job inserts a job ad owned by employerID.
func (e *Env) Job(t *testing.T, id, employerID uint64) db.JobAd {
	t.Helper()
	j := db.JobAd{ID: id, UserID: employerID, Title: fmt.Sprintf("job%d", id)}
	require.NoError(t, e.DB.Create(&j).Error)
	return j
}

// Count returns the number of rows of model matching an optional condition.
func (e *Env) Count(t *testing.T, model any, query ...any) int64 {
	t.Helper()
	var n int64
	q := e.DB.Model(model)
	if len(query) > 0 {
		q = q.Where(query[0], query[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (e *Env) user(t *testing.T, id uint64, userType db.UserType, level uint64) db.User {
	t.Helper()
	u := db.User{
		ID:           id,
		Username:     fmt.Sprintf("user%d", id),
		Email:        fmt.Sprintf("u%d@test.com", id),
		PasswordHash: "x",
		FirstName:    fmt.Sprintf("First%d", id),
		LastName:     fmt.Sprintf("Last%d", id),
		UserLevelID:  level,
		UserType:     userType,
	}
	require.NoError(t, e.DB.Create(&u).Error)
	return u
}
