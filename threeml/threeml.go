/*
Threeml samples the posterior of a likelihood model with ensemble
MCMC and reports per-parameter credible intervals.

The demo model is a Gaussian source with free mean and width measured
by a set of observations. Without arguments the observations are
generated:

	threeml

Real observations are read from a file with one value per line:

	threeml observations.txt

Parallel tempering and parallel posterior evaluation are switched on
with flags:

	threeml -pt -temps 8 observations.txt
	threeml -parallel observations.txt

To see all the options run:

	threeml -h
*/
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	bolt "go.etcd.io/bbolt"

	"github.com/cescalara/threeML/bayes"
	"github.com/cescalara/threeML/checkpoint"
	"github.com/cescalara/threeML/data"
	"github.com/cescalara/threeML/model"
	"github.com/cescalara/threeML/parallel"
	"github.com/cescalara/threeML/sampler"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("threeml")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("threeml", "Bayesian sampling of likelihood models").Version(version)

	// input data
	dataFileName = app.Arg("data", "observations, one value per line (generated when omitted)").ExistingFile()

	// generated observations
	genMean   = app.Flag("mean", "mean of generated observations").Default("3").Float64()
	genSdev   = app.Flag("sdev", "standard deviation of generated observations").Default("2").Float64()
	genPoints = app.Flag("npoints", "number of generated observations").Default("100").Int()

	// sampler parameters
	nWalkers = app.Flag("walkers", "number of walkers in the ensemble").Default("20").Int()
	burnIn   = app.Flag("burnin", "number of burn-in iterations").Default("100").Int()
	nSamples = app.Flag("samples", "number of production iterations").Default("500").Int()
	thin     = app.Flag("thin", "keep every N-th production iteration").Default("1").Int()
	variance = app.Flag("variance", "fractional variance of walker starting points").Default("0.1").Float64()

	// parallel tempering
	usePT  = app.Flag("pt", "sample with parallel tempering").Bool()
	nTemps = app.Flag("temps", "number of temperatures").Default("4").Int()
	tstep  = app.Flag("tstep", "geometric step of the temperature ladder").Default("1.4142135623730951").Float64()

	// aggregation
	probability = app.Flag("probability", "credible interval probability in percent").Default("95").Float64()

	// technical
	par      = app.Flag("parallel", "evaluate walkers on a worker pool").Bool()
	nThreads = app.Flag("nt", "number of threads to use").Int()
	seed     = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()

	// input/output
	checkpointF = app.Flag("checkpoint", "save sampling state to a file").String()
	cSeconds    = app.Flag("cseconds", "how often to save checkpoint (in seconds)").Default("30").Float64()
	outLogF     = app.Flag("log", "write log to a file").String()
	logLevel    = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// readData reads observations from a file, one value per line.
func readData(fn string) ([]float64, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var obs []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", len(obs)+1, err)
		}
		obs = append(obs, v)
	}
	return obs, scanner.Err()
}

// genData generates n observations from Normal(mean, sdev^2).
func genData(src rand.Source, mean, sdev float64, n int) []float64 {
	d := distuv.Normal{Mu: mean, Sigma: sdev, Src: src}
	obs := make([]float64, n)
	for i := range obs {
		obs[i] = d.Rand()
	}
	return obs
}

// buildModel creates the Gaussian source model with free mean and
// width parameters, started at the empirical moments of the
// observations.
func buildModel(source string, obs []float64) *model.SourceModel {
	m := model.NewSourceModel()

	mu := model.NewParameter(source, "mu", stat.Mean(obs, nil))
	mu.SetBounds(-100, 100)
	mu.SetPrior(model.NewUniformPrior(-100, 100))
	m.Add(mu)

	sigma := model.NewParameter(source, "sigma", stat.StdDev(obs, nil))
	sigma.SetBounds(1e-2, 1e2)
	sigma.SetPrior(model.NewLogUniformPrior(1e-2, 1e2))
	m.Add(sigma)

	return m
}

func run(src rand.Source) (summary *SamplingSummary) {
	startTime := time.Now()
	summary = &SamplingSummary{
		Mode:    "ensemble",
		Walkers: *nWalkers,
		BurnIn:  *burnIn,
		Samples: *nSamples,
	}

	var obs []float64
	var err error
	if *dataFileName != "" {
		obs, err = readData(*dataFileName)
		if err != nil {
			log.Fatal("Error reading observations:", err)
		}
		log.Infof("Read %d observations from %s", len(obs), *dataFileName)
	} else {
		obs = genData(src, *genMean, *genSdev, *genPoints)
		log.Infof("Generated %d observations from Norm(%v, %v^2)", len(obs), *genMean, *genSdev)
	}
	if len(obs) < 2 {
		log.Fatal("Need at least two observations")
	}

	m := buildModel("src", obs)
	d := data.NewList(data.NewGaussianData("obs", "src", obs))

	cfg := bayes.Config{
		Walkers:         *nWalkers,
		BurnIn:          *burnIn,
		Samples:         *nSamples,
		Temps:           *nTemps,
		Thin:            *thin,
		StartVariance:   *variance,
		TemperatureStep: *tstep,
		Src:             src,
	}
	if *par {
		cfg.Client = parallel.NewClient(0)
		log.Infof("Using %d parallel workers", cfg.Client.View().Workers())
	}

	analysis, err := bayes.New(m, d, cfg)
	if err != nil {
		log.Fatal(err)
	}

	if *checkpointF != "" {
		db, err := bolt.Open(*checkpointF, 0644, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint file:", err)
		}
		defer db.Close()
		analysis.SetCheckpoint(checkpoint.NewCheckpointIO(db, []byte("run"), *cSeconds))
	}

	if *usePT {
		summary.Mode = "pt"
		summary.Temps = *nTemps
		_, err = analysis.SampleParallelTempering()
	} else {
		_, err = analysis.Sample()
	}
	if err != nil {
		log.Fatal("Sampling failed:", err)
	}

	summary.MeanAcceptance = analysis.Sampler().MeanAcceptanceFraction()
	if pt, ok := analysis.Sampler().(*sampler.PT); ok {
		summary.SwapAcceptance = pt.SwapAcceptanceFraction()
	}

	// CredibleIntervals renders the summary table to the configured
	// sink, standard output here.
	intervals, err := analysis.CredibleIntervals(*probability)
	if err != nil {
		log.Fatal(err)
	}
	for _, iv := range intervals {
		summary.CredibleIntervals = append(summary.CredibleIntervals, IntervalSummary{
			Name:       iv.Key.String(),
			LowerBound: iv.LowerBound,
			Median:     iv.Median,
			UpperBound: iv.UpperBound,
			Value:      iv.Value(),
			Unit:       iv.Unit,
		})
	}

	summary.Time = time.Since(startTime).Seconds()
	return summary
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "threeml")
	logging.SetLevel(level, "bayes")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	src := rand.NewSource(uint64(*seed))

	runtime.GOMAXPROCS(*nThreads)
	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.\n", effectiveNThreads)

	startTime := time.Now()

	summary := &RunSummary{
		Version:     version,
		CommandLine: os.Args,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
	}
	summary.Sampling = *run(src)
	summary.TotalTime = time.Since(startTime).Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
