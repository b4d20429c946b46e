// Command kyber-noise samples the decryption noise of a parameter set and
// the rounding error of its compression steps, then renders histograms to an
// HTML page.
//
//	go run ./cmd/kyber-noise -scheme ML-KEM-768 -trials 500 -out noise.html
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/latticekem/kyber-go/internal/ring"
	"github.com/latticekem/kyber-go/pkg/kyber"
)

func main() {
	var (
		name   = flag.String("scheme", "ML-KEM-768", "parameter set")
		trials = flag.Int("trials", 200, "number of encryptions to sample")
		label  = flag.String("label", "kyber-noise", "label keying the deterministic sample stream")
		out    = flag.String("out", "noise.html", "output HTML page")
		stats  = flag.String("stats", "", "optional JSON summary output")
	)
	flag.Parse()

	ps, err := kyber.ParseParameterSet(*name)
	if err != nil {
		log.Fatalf("parameter set: %v", err)
	}
	if *trials < 1 {
		log.Fatal("-trials must be positive")
	}

	rep := analyze(ps, *trials, *label)
	if rep.Decryption.MaxAbs >= ring.Q/4 {
		log.Printf("warn: observed noise %.0f reaches the q/4 decryption bound", rep.Decryption.MaxAbs)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create html: %v", err)
	}
	defer f.Close()
	if err := render(f, ps, rep); err != nil {
		log.Fatalf("render html: %v", err)
	}
	fmt.Println("Histogram page:", *out)

	if *stats != "" {
		b, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			log.Fatalf("encode stats: %v", err)
		}
		if err := os.WriteFile(*stats, b, 0o644); err != nil {
			log.Fatalf("write stats: %v", err)
		}
		fmt.Println("Stats JSON:", *stats)
	}
	fmt.Printf("%s: max |noise| %.0f of bound %d (std %.2f over %d coefficients)\n",
		ps.Name, rep.Decryption.MaxAbs, ring.Q/4, rep.Decryption.Std, rep.Decryption.Count)
}

type report struct {
	Scheme     string       `json:"scheme"`
	Decryption summaryStats `json:"decryption_noise"`
	CompressDU summaryStats `json:"compress_du"`
	CompressDV summaryStats `json:"compress_dv"`

	samples map[string][]float64
	order   []string
}

func analyze(ps kyber.ParameterSet, trials int, label string) report {
	noise := decryptionNoise(ps, trials, label)
	du := compressionError(ps.DU)
	dv := compressionError(ps.DV)

	rep := report{
		Scheme:     ps.Name,
		Decryption: computeStats(noise),
		CompressDU: computeStats(du),
		CompressDV: computeStats(dv),
		samples:    map[string][]float64{},
	}
	add := func(title string, vals []float64) {
		rep.samples[title] = vals
		rep.order = append(rep.order, title)
	}
	add("decryption noise w - Decompress1(m)", noise)
	add(fmt.Sprintf("compression error d_u=%d", ps.DU), du)
	add(fmt.Sprintf("compression error d_v=%d", ps.DV), dv)
	return rep
}

func toBarItems(vals []int) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func newHistogramChart(title string, values []float64) *charts.Bar {
	st := computeStats(values)
	labels, counts := histogram(values)
	xLabels := make([]string, len(labels))
	for i, l := range labels {
		xLabels[i] = strconv.Itoa(l)
	}
	bar := charts.NewBar()
	subtitle := fmt.Sprintf("n=%d, mean=%.3f, std=%.3f, max|x|=%.0f", st.Count, st.Mean, st.Std, st.MaxAbs)
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("count", toBarItems(counts)).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

func render(w io.Writer, ps kyber.ParameterSet, rep report) error {
	page := components.NewPage()
	for _, title := range rep.order {
		page.AddCharts(newHistogramChart(ps.Name+": "+title, rep.samples[title]))
	}
	return page.Render(w)
}
