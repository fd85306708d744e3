package main

// RunSummary stores information about one program invocation.
type RunSummary struct {
	// Version stores threeml version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// TotalTime is the computations time in seconds.
	TotalTime float64 `json:"time"`
	// Sampling is the summary of the sampling run.
	Sampling SamplingSummary `json:"sampling"`
}

// SamplingSummary stores the results of one sampling run.
type SamplingSummary struct {
	// Mode is the sampling mode, ensemble or pt.
	Mode string `json:"mode"`
	// Walkers is the ensemble size per temperature.
	Walkers int `json:"walkers"`
	// BurnIn is the number of discarded warm-up iterations.
	BurnIn int `json:"burnIn"`
	// Samples is the number of retained iterations.
	Samples int `json:"samples"`
	// Temps is the number of temperatures (parallel tempering only).
	Temps int `json:"temps,omitempty"`
	// MeanAcceptance is the acceptance fraction averaged over the ensemble.
	MeanAcceptance float64 `json:"meanAcceptance"`
	// SwapAcceptance is the per-temperature-pair walker exchange
	// acceptance (parallel tempering only).
	SwapAcceptance []float64 `json:"swapAcceptance,omitempty"`
	// Time is the sampling time in seconds.
	Time float64 `json:"samplingTime"`
	// CredibleIntervals holds the per-parameter posterior intervals.
	CredibleIntervals []IntervalSummary `json:"credibleIntervals"`
}

// IntervalSummary is the credible interval of one parameter.
type IntervalSummary struct {
	// Name is the source_of_name parameter identifier.
	Name string `json:"name"`
	// LowerBound is the lower percentile bound.
	LowerBound float64 `json:"lowerBound"`
	// Median is the posterior median.
	Median float64 `json:"median"`
	// UpperBound is the upper percentile bound.
	UpperBound float64 `json:"upperBound"`
	// Value is the formatted median with asymmetric uncertainties.
	Value string `json:"value"`
	// Unit is the physical unit of the parameter.
	Unit string `json:"unit,omitempty"`
}
