// Command latencygraph plots how long each scenario took across one or more JSON reports written by
// `apicheck --json`, so runs can be compared side by side.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/apicheck/apicheck/internal/report"
)

var flagOutput = flag.String("output", "duration.svg", "Where to write the graph. The extension picks the format")

// Run is the data of one report, in the scenario order of the first report.
type Run struct {
	Name      string
	Durations plotter.Values
}

func loadRun(filename string, names []string) (*Run, []string, error) {
	r, err := report.Load(filename)
	if err != nil {
		return nil, nil, err
	}
	name := filename
	if r.Name != "" {
		name = r.Name
	}
	byScenario := make(map[string]time.Duration, len(r.Outcomes))
	for _, o := range r.Outcomes {
		byScenario[o.Scenario] = o.Duration
	}
	if names == nil {
		for _, o := range r.Outcomes {
			names = append(names, o.Scenario)
		}
	}
	run := &Run{Name: name}
	for _, n := range names {
		d, ok := byScenario[n]
		if !ok {
			fmt.Printf("%s: no outcome for scenario '%s', plotting 0\n", filename, n)
		}
		run.Durations = append(run.Durations, float64(d)/float64(time.Millisecond))
	}
	return run, names, nil
}

// offsets spreads `n` bars of width `w` evenly around each category.
func offsets(n int, w font.Length) []font.Length {
	out := make([]font.Length, n)
	for i := range out {
		out[i] = (font.Length(i) - font.Length(n-1)/2) * w
	}
	return out
}

func generateDurationGraph(runs []Run, names []string, filename string) error {
	p := plot.New()
	p.Title.Text = "Scenario duration"
	p.Y.Label.Text = "Duration (ms)"

	w := vg.Points(12)
	offs := offsets(len(runs), w)
	for i := range runs {
		bars, err := plotter.NewBarChart(runs[i].Durations, w)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = offs[i]
		p.Add(bars)
		p.Legend.Add(runs[i].Name, bars)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 1.2
	p.Add(plotter.NewGrid())

	width := font.Length(float64(len(runs)+1) * float64(len(names)) * float64(w))
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	return p.Save(width, 6*vg.Inch, filename)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Println("usage: latencygraph [-output duration.svg] report.json [report.json ...]")
		os.Exit(2)
	}
	runs := make([]Run, len(args))
	var names []string
	for i := range args {
		run, n, err := loadRun(args[i], names)
		if err != nil {
			fmt.Printf("failed to load report from file '%v' : %v\n", args[i], err)
			os.Exit(2)
		}
		names = n
		runs[i] = *run
	}
	if err := generateDurationGraph(runs, names, *flagOutput); err != nil {
		fmt.Printf("failed to write graph: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Output to %s\n", *flagOutput)
}
