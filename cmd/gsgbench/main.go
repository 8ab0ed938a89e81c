// Command gsgbench replays a synthetic scene through a guardian and prints
// what reached the backend.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/gogpu/gsg"
	"github.com/gogpu/gsg/backend"
	_ "github.com/gogpu/gsg/backend/native"
	_ "github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/stats"
)

var (
	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Value: backend.BackendNoop,
		Usage: "Backend to drive (native|noop|recording)",
	}
	configFlag = &cli.PathFlag{
		Name:  "config",
		Usage: "TOML guardian configuration",
	}
	framesFlag = &cli.IntFlag{
		Name:  "frames",
		Value: 60,
		Usage: "Number of frames to render",
	}
	objectsFlag = &cli.IntFlag{
		Name:  "objects",
		Value: 200,
		Usage: "Objects drawn per frame",
	}
	lightsFlag = &cli.IntFlag{
		Name:  "lights",
		Value: 4,
		Usage: "Point lights in the scene",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Value: 0,
		Usage: "Log level: 0 off, 1 warn, 2 info, 3 debug",
	}
)

func main() {
	app := &cli.App{
		Name:  "gsgbench",
		Usage: "replay a synthetic scene through a render-state guardian",
		Flags: []cli.Flag{
			backendFlag,
			configFlag,
			framesFlag,
			objectsFlag,
			lightsFlag,
			verbosityFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.Int(framesFlag.Name) <= 0 {
		return fmt.Errorf("--%s must be positive", framesFlag.Name)
	}
	logger := newLogger(ctx.Int(verbosityFlag.Name))
	gsg.SetLogger(logger)

	cfg := gsg.DefaultConfig()
	if path := ctx.Path(configFlag.Name); path != "" {
		var err error
		if cfg, err = gsg.LoadConfig(path); err != nil {
			return err
		}
	}

	b, err := backend.Open(ctx.String(backendFlag.Name))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	sink, err := stats.NewPrometheus(reg)
	if err != nil {
		return err
	}
	g, err := gsg.New(b, gsg.WithConfig(cfg), gsg.WithStatsSink(sink), gsg.WithLogger(logger))
	if err != nil {
		return err
	}
	defer g.Close()

	sc, err := newScene(ctx.Int(objectsFlag.Name), ctx.Int(lightsFlag.Name))
	if err != nil {
		return err
	}
	if err := sc.prepare(g); err != nil {
		return err
	}

	frames := ctx.Int(framesFlag.Name)
	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := sc.renderFrame(g, i); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("backend %s: %d frames in %v (%.1f fps)\n",
		b.Name(), frames, elapsed.Round(time.Microsecond), float64(frames)/elapsed.Seconds())
	return printMetrics(reg)
}

func newLogger(verbosity int) *slog.Logger {
	var level slog.Level
	switch {
	case verbosity <= 0:
		return slog.New(slog.DiscardHandler)
	case verbosity == 1:
		level = slog.LevelWarn
	case verbosity == 2:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printMetrics renders every collected series as a table.
func printMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	type row struct {
		metric, label string
		value         float64
	}
	var rows []row
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := ""
			for _, lp := range m.GetLabel() {
				label = lp.GetValue()
			}
			v := m.GetCounter().GetValue()
			if g := m.GetGauge(); g != nil {
				v = g.GetValue()
			}
			rows = append(rows, row{mf.GetName(), label, v})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].metric != rows[j].metric {
			return rows[i].metric < rows[j].metric
		}
		return rows[i].label < rows[j].label
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Label", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range rows {
		table.Append([]string{r.metric, r.label, strconv.FormatFloat(r.value, 'f', -1, 64)})
	}
	table.Render()
	return nil
}
