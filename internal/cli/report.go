package cli

import (
	"fmt"
	"io"

	"github.com/law-makers/labscrape/internal/dataset"
	"github.com/law-makers/labscrape/internal/detail"
	"github.com/law-makers/labscrape/internal/summary"
	"github.com/law-makers/labscrape/internal/transfer"
	"github.com/law-makers/labscrape/internal/ui"
)

func printSummaryReport(w io.Writer, r summary.Report) {
	fmt.Fprintf(w, "%s %d catalog rows, %d without unit, %d malformed\n",
		ui.Bold("summary:"), r.Rows, r.Dropped, r.Malformed)
	for _, res := range r.Results {
		fmt.Fprintf(w, "  %-4s fresh %-6d %s existing %d\n",
			res.Unit, res.Fresh, ui.Success(fmt.Sprintf("inserted %-6d", res.Inserted)), res.Existing)
	}
}

func printDetailStats(w io.Writer, s detail.Stats) {
	fmt.Fprintf(w, "%s visited %d, %s\n", ui.Bold("detail:"), s.Visited, ui.Success(fmt.Sprintf("stored %d", s.Stored)))
	fmt.Fprintf(w, "  duplicate %d, not found %d, empty %d\n", s.Duplicate, s.NotFound, s.Empty)
	if s.Transient+s.Layout > 0 {
		fmt.Fprintf(w, "  %s\n", ui.Info(fmt.Sprintf("left pending: %d transient, %d layout", s.Transient, s.Layout)))
	}
}

func printCleanReport(w io.Writer, r dataset.Report) {
	fmt.Fprintf(w, "%s %d detail records, %d names repaired, %d without %q\n",
		ui.Bold("clean:"), r.Detail, r.Repaired, r.Dropped, dataset.GateField)
	fmt.Fprintf(w, "  %s, existing %d\n", ui.Success(fmt.Sprintf("inserted %d", r.Inserted)), r.Existing)
}

func printTransferResults(w io.Writer, results []transfer.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s read %d, %s, existing %d\n",
			ui.Bold(r.Collection+":"), r.Read, ui.Success(fmt.Sprintf("inserted %d", r.Inserted)), r.Existing)
	}
}
