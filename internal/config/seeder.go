package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"payportal/internal/pkg/logger"
)

// EmployeeSeed is one entry of the employee seed file
type EmployeeSeed struct {
	Username      string `json:"username"`
	FullName      string `json:"fullName"`
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
}

// EmployeeCreator provisions one employee principal
type EmployeeCreator interface {
	CreateEmployee(ctx context.Context, seed EmployeeSeed) error
}

// ErrSeedExists is returned by an EmployeeCreator for an existing username
var ErrSeedExists = errors.New("employee already exists")

// SeedResult summarises a seeding run
type SeedResult struct {
	Created []string
	Skipped []string
}

// Seeder handles employee seeding
type Seeder struct {
	creator EmployeeCreator
}

// NewSeeder creates a new seeder instance
func NewSeeder(creator EmployeeCreator) *Seeder {
	return &Seeder{creator: creator}
}

// LoadEmployeeSeeds reads a JSON array of employees
func LoadEmployeeSeeds(path string) ([]EmployeeSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []EmployeeSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return seeds, nil
}

// Run creates every seed, skipping existing usernames. It stops at the first
// other failure.
func (s *Seeder) Run(ctx context.Context, seeds []EmployeeSeed) (*SeedResult, error) {
	logger.Info("running employee seeder", logger.Int("count", len(seeds)))

	result := &SeedResult{}
	for _, seed := range seeds {
		err := s.creator.CreateEmployee(ctx, seed)
		switch {
		case errors.Is(err, ErrSeedExists):
			logger.Info("skipping existing employee", logger.String("username", seed.Username))
			result.Skipped = append(result.Skipped, seed.Username)
		case err != nil:
			return result, fmt.Errorf("seed %s: %w", seed.Username, err)
		default:
			logger.Info("seeded employee", logger.String("username", seed.Username))
			result.Created = append(result.Created, seed.Username)
		}
	}

	logger.Info("employee seeding completed",
		logger.Int("created", len(result.Created)),
		logger.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
