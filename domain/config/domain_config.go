package config

import "time"

// DomainConfig holds the configurable business rules for map generation
type DomainConfig struct {
	// Input constraints
	MaxInputFieldLength int

	// Tree shape expectations. These are checked and logged, never enforced.
	ExpectedMinProblems        int
	ExpectedMaxProblems        int
	ExpectedMinIdeasPerProblem int
	ExpectedMaxIdeasPerProblem int

	// Label constraints
	MaxLabelLength int

	// Time constraints
	TreeTimeout    time.Duration
	TaskTimeout    time.Duration
	SessionTimeout time.Duration

	// Fan-out limit for task breakdown requests, 0 means one in flight per idea
	FanOutLimit int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxInputFieldLength: 2000,

		ExpectedMinProblems:        3,
		ExpectedMaxProblems:        4,
		ExpectedMinIdeasPerProblem: 2,
		ExpectedMaxIdeasPerProblem: 3,

		MaxLabelLength: 500,

		TreeTimeout:    90 * time.Second,
		TaskTimeout:    60 * time.Second,
		SessionTimeout: 2 * time.Hour,

		FanOutLimit: 0,
	}
}
