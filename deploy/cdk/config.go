package main

// StackConfig holds configuration for the accredit CDK stack.
type StackConfig struct {
	Name             string // prefix for the table, buckets, bus and functions
	MemorySize       float64
	Timeout          float64
	LambdaDistDir    string
	LogRetentionDays float64
	DestroyOnDelete  bool

	StudentIDLength string
	IngestPolicy    string
	FlattenPolicy   string

	WatchdogRateMinutes float64
	WatchdogGrace       string
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		Name:                "accredit",
		MemorySize:          256,
		Timeout:             60,
		LambdaDistDir:       "../dist/lambda",
		LogRetentionDays:    7,
		StudentIDLength:     "8",
		IngestPolicy:        "best-effort",
		FlattenPolicy:       "drop",
		WatchdogRateMinutes: 15,
		WatchdogGrace:       "30m",
	}
}
