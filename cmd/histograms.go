package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mocsim/mocsim/checkpoint"
	"github.com/mocsim/mocsim/stateimage"
	"github.com/mocsim/mocsim/tracking"
)

var (
	histogramStatePath string
	histogramPretty    bool
)

var printJumpHistogramsCmd = &cobra.Command{
	Use:   "print-jump-histograms",
	Short: "Print the jump-energy histograms stored in a saved state file",
	Run:   printJumpHistograms,
}

func init() {
	printJumpHistogramsCmd.Flags().StringVar(&histogramStatePath, "state", "", "path to a saved state file (run.mcs / prerun.mcs)")
	printJumpHistogramsCmd.MarkFlagRequired("state") //nolint:errcheck
	printJumpHistogramsCmd.Flags().BoolVar(&histogramPretty, "pretty", false, "render as a boxed table instead of tab-separated rows")
}

func printJumpHistograms(cmd *cobra.Command, args []string) {
	img, err := stateimage.LoadFromFile(histogramStatePath)
	if err != nil {
		logrus.WithError(err).Fatal("loading state file")
	}
	stats, err := checkpoint.RestoreJumpStatistics(img)
	if err != nil {
		logrus.WithError(err).Fatal("decoding jump statistics region")
	}

	type row struct {
		collectionID int
		particle     uint8
		name         string
		total        uint64
		underflow    uint64
		overflow     uint64
	}
	var rows []row
	stats.ForEach(func(collectionID int, particle uint8, s *tracking.JumpStat) {
		for name, h := range map[string]*tracking.FixedHistogram{
			"EdgeEnergy":      s.EdgeEnergy,
			"PosConformation": s.PosConformation,
			"NegConformation": s.NegConformation,
			"TotalEnergy":     s.TotalEnergy,
		} {
			rows = append(rows, row{collectionID, particle, name, h.Total(), h.Underflow(), h.Overflow()})
		}
	})

	if histogramPretty {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Collection", "Particle", "Histogram", "Total", "Underflow", "Overflow"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.collectionID, r.particle, r.name, r.total, r.underflow, r.overflow})
		}
		fmt.Println(t.Render())
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Collection\tParticle\tHistogram\tTotal\tUnderflow\tOverflow")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\t%d\n", r.collectionID, r.particle, r.name, r.total, r.underflow, r.overflow)
	}
	w.Flush() //nolint:errcheck
}
