package db

import (
	"fmt"
	"log/slog"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions controls how much demo data SeedTestData creates.
type SeedOptions struct {
	Candidates      int
	Employers       int
	JobsPerEmployer int
	// Seed makes gofakeit output deterministic when non-zero.
	Seed int64
}

// SeedResult holds the rows created by SeedTestData.
type SeedResult struct {
	Admin      User
	Candidates []User
	Employers  []User
	Jobs       []JobAd
}

// Reset deletes every row from every table, children first.
//
// Compatible with MySQL, Postgres and SQLite (sequence reset is dialect specific).
func Reset(db *gorm.DB) error {
	models := AllModels()
	for i := len(models) - 1; i >= 0; i-- {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(models[i]); err != nil {
			return fmt.Errorf("failed to parse model: %w", err)
		}
		table := stmt.Schema.Table
		if err := db.Exec("DELETE FROM " + db.Statement.Quote(table)).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}

		switch db.Dialector.Name() {
		case "mysql":
			db.Exec("ALTER TABLE " + db.Statement.Quote(table) + " AUTO_INCREMENT = 1")
		case "sqlite":
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}
	return nil
}

// SeedTestData populates users and job ads. Swipes are not written here: the
// seed command drives them through the matching service so that matches,
// chats, applications and notifications stay consistent.
//
// Behavior:
//  1. Creates one admin (user_level_id = 1).
//  2. Creates opts.Candidates candidates and opts.Employers employers with fake names.
//  3. Creates opts.JobsPerEmployer job ads per employer.
//
// Every account uses the bcrypt hash of "password".
func SeedTestData(db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	faker := gofakeit.New(opts.Seed)

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res := &SeedResult{
		Admin: User{
			Username:     "admin",
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			FirstName:    "Site",
			LastName:     "Admin",
			UserLevelID:  LevelAdmin,
			UserType:     UserEmployer,
		},
	}
	if err := db.Create(&res.Admin).Error; err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	newUser := func(i int, t UserType) User {
		return User{
			Username:     fmt.Sprintf("%s%d", t, i),
			Email:        fmt.Sprintf("%s%d@example.com", t, i),
			PasswordHash: string(hash),
			FirstName:    faker.FirstName(),
			LastName:     faker.LastName(),
			UserLevelID:  LevelUser,
			UserType:     t,
		}
	}

	for i := 1; i <= opts.Candidates; i++ {
		u := newUser(i, UserCandidate)
		if err := db.Create(&u).Error; err != nil {
			return nil, fmt.Errorf("failed to seed candidate: %w", err)
		}
		res.Candidates = append(res.Candidates, u)
	}

	for i := 1; i <= opts.Employers; i++ {
		u := newUser(i, UserEmployer)
		if err := db.Create(&u).Error; err != nil {
			return nil, fmt.Errorf("failed to seed employer: %w", err)
		}
		res.Employers = append(res.Employers, u)

		for j := 0; j < opts.JobsPerEmployer; j++ {
			job := JobAd{
				UserID:      u.ID,
				Title:       faker.JobTitle(),
				Description: faker.Paragraph(1, 3, 12, " "),
				Location:    faker.City(),
			}
			if err := db.Create(&job).Error; err != nil {
				return nil, fmt.Errorf("failed to seed job: %w", err)
			}
			res.Jobs = append(res.Jobs, job)
		}
	}

	slog.Info("seeded users and jobs",
		"candidates", len(res.Candidates),
		"employers", len(res.Employers),
		"jobs", len(res.Jobs),
	)
	return res, nil
}
