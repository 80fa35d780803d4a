package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/JakePhillips-Davies/conics"
	"github.com/JakePhillips-Davies/conics/stream"
)

// This reads a scenario file, builds the system it describes, and steps it.

const defaultScenario = "~~unset~~"

var (
	scenario string
	exportTo string
	xyzvTo   string
	listen   string
	samples  int
	verbose  bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file")
	flag.StringVar(&exportTo, "csv", "", "write the final chains of all bodies to this CSV file")
	flag.StringVar(&xyzvTo, "xyzv", "", "write the final chains of all bodies as interpolated states to this file")
	flag.StringVar(&listen, "listen", "", "serve /ws snapshots and /metrics on this address (e.g. :8081)")
	flag.IntVar(&samples, "samples", 100, "samples per chain segment when exporting")
	flag.BoolVar(&verbose, "verbose", false, "log debug information")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}
	if !verbose {
		conics.SetLogger(levelFilter(conics.Logger()))
	}

	conf, err := conics.ConfigFromViper(viper.GetViper())
	if err != nil {
		log.Fatalf("invalid configuration: %s", err)
	}
	steps := viper.GetInt("run.steps")
	step := viper.GetDuration("run.step")
	if steps <= 0 || step <= 0 {
		log.Fatal("run.steps and run.step must both be positive")
	}

	reg := prometheus.NewRegistry()
	metrics, err := conics.NewMetrics(reg)
	if err != nil {
		log.Fatalf("could not register metrics: %s", err)
	}

	sys, err := loadSystem(conf, metrics)
	if err != nil {
		log.Fatal(err)
	}
	sys.OnTransition(func(tr conics.Transition) {
		log.Printf("%s: %s -> %s @ %s (%s)", tr.Body, tr.From, tr.To, sys.Clock().DateAt(tr.Point.Time).Format(time.RFC3339), tr.Point)
	})

	if listen != "" {
		hub := stream.NewHub(conf.StreamRate)
		defer hub.Close()
		sys.OnStep(func(float64) {
			hub.Publish(stream.SnapshotOf(sys))
		})
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(listen, mux); err != nil {
				log.Fatalf("could not serve on %s: %s", listen, err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := sys.Run(ctx, steps, step.Seconds()); err != nil {
		log.Printf("run interrupted: %s", err)
	}

	if exportTo != "" {
		if err := export(exportTo, sys, func(f *os.File, s []conics.Sample) error { return conics.WriteCSV(f, s) }); err != nil {
			log.Fatalf("could not export to %s: %s", exportTo, err)
		}
	}
	if xyzvTo != "" {
		if err := export(xyzvTo, sys, func(f *os.File, s []conics.Sample) error {
			return conics.WriteInterpolatedStates(f, s, sys.Clock())
		}); err != nil {
			log.Fatalf("could not export to %s: %s", xyzvTo, err)
		}
	}
}

func export(path string, sys *conics.System, write func(*os.File, []conics.Sample) error) error {
	var all []conics.Sample
	for _, b := range sys.Bodies() {
		all = append(all, conics.SampleChain(b, samples)...)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, all); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// loadSystem builds the system from the bodies.N tables of the scenario. bodies.0 is the root.
func loadSystem(conf conics.Config, metrics *conics.Metrics) (*conics.System, error) {
	if !viper.IsSet("bodies.0") {
		return nil, fmt.Errorf("no bodies defined")
	}
	root, err := readBody(0)
	if err != nil {
		return nil, err
	}
	sys, err := conics.NewSystem(conf, root, metrics)
	if err != nil {
		return nil, err
	}
	for bodyNo := 1; viper.IsSet(fmt.Sprintf("bodies.%d", bodyNo)); bodyNo++ {
		b, err := readBody(bodyNo)
		if err != nil {
			return nil, err
		}
		parentName := viper.GetString(fmt.Sprintf("bodies.%d.parent", bodyNo))
		parent, ok := sys.Body(parentName)
		if !ok {
			return nil, fmt.Errorf("bodies.%d: unknown parent `%s`", bodyNo, parentName)
		}
		if err := sys.Add(b, parent); err != nil {
			return nil, fmt.Errorf("bodies.%d: %s", bodyNo, err)
		}
		if verbose {
			log.Printf("[conf] added %s around %s: %s", b, parent, b.Chain().Primary())
		}
	}
	return sys, nil
}

// readBody reads either a catalog body or a custom one. Angles are in degrees.
func readBody(bodyNo int) (*conics.Body, error) {
	key := func(name string) string { return fmt.Sprintf("bodies.%d.%s", bodyNo, name) }
	var b *conics.Body
	if catalog := viper.GetString(key("catalog")); catalog != "" {
		var err error
		if b, err = conics.BodyFromString(catalog); err != nil {
			return nil, err
		}
	} else {
		name := viper.GetString(key("name"))
		if name == "" {
			return nil, fmt.Errorf("bodies.%d: name or catalog required", bodyNo)
		}
		b = conics.NewBody(name, viper.GetFloat64(key("radius")), viper.GetFloat64(key("mu")), viper.GetFloat64(key("soi")))
	}
	switch {
	case viper.IsSet(key("sma")) || viper.IsSet(key("rp")):
		e := viper.GetFloat64(key("ecc"))
		rP := viper.GetFloat64(key("rp"))
		if rP == 0 {
			rP = viper.GetFloat64(key("sma")) * (1 - e)
		}
		b.SetInitialElements(rP, e,
			conics.Deg2rad(viper.GetFloat64(key("inc"))),
			conics.Deg2rad(viper.GetFloat64(key("RAAN"))),
			conics.Deg2rad(viper.GetFloat64(key("argPeri"))),
			conics.Deg2rad(viper.GetFloat64(key("tAnomaly"))))
	case viper.IsSet(key("R")):
		R, err := readVector(key("R"))
		if err != nil {
			return nil, err
		}
		V, err := readVector(key("V"))
		if err != nil {
			return nil, err
		}
		b.SetInitialState(R, V)
	}
	return b, nil
}

func readVector(key string) ([]float64, error) {
	raw, ok := viper.Get(key).([]interface{})
	if !ok || len(raw) != 3 {
		return nil, fmt.Errorf("%s must be an array of three numbers", key)
	}
	vec := make([]float64, 3)
	for i, x := range raw {
		switch v := x.(type) {
		case float64:
			vec[i] = v
		case int64:
			vec[i] = float64(v)
		default:
			return nil, fmt.Errorf("%s[%d] is not a number", key, i)
		}
	}
	return vec, nil
}
