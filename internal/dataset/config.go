package dataset

// Config drives the synthetic book generator.
type Config struct {
	NumBooks          int
	EbookChance       float64
	MissingYearChance float64
	// LongBookChance is the share of books given more than 10000 pages.
	LongBookChance float64
	Seed           int64
}

// DefaultConfig returns a dataset large enough for indexes to matter.
func DefaultConfig() Config {
	return Config{
		NumBooks:          50000,
		EbookChance:       0.3,
		MissingYearChance: 0.05,
		LongBookChance:    0.02,
		Seed:              42,
	}
}
