package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const trendRows = 20

var printer = message.NewPrinter(language.English)

// RenderUnavailable writes the placeholder shown while the store cannot be read.
func RenderUnavailable(w io.Writer, at time.Time) error {
	_, err := fmt.Fprintf(w, "Store unavailable at %s. Retrying on the next refresh.\n", at.Format("15:04:05"))
	return err
}

// Render writes v to w. An empty view renders the "no data yet" placeholder.
func Render(w io.Writer, v View) error {
	if v.Empty() {
		_, err := fmt.Fprintln(w, "No data yet. Start the collector and wait about one collection interval.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Last updated: %s\n\n", v.UpdatedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(tw, "Current market metrics")
	fmt.Fprintln(tw, "COIN\tPRICE\t24H")
	for _, o := range v.Latest {
		fmt.Fprintf(tw, "%s (%s)\t%s\t%s\n",
			o.Name, strings.ToUpper(o.Symbol),
			printer.Sprintf("$%.2f", o.Price),
			printer.Sprintf("%.2f%% in 24h", o.PriceChange24h))
	}

	fmt.Fprintf(tw, "\nPrice trend: %s\n", v.Coin.Name)
	fmt.Fprintln(tw, "TIME\tPRICE")
	series := v.Series
	if len(series) > trendRows {
		series = series[len(series)-trendRows:]
	}
	for _, o := range series {
		fmt.Fprintf(tw, "%s\t%s\n", o.ObservedAt.Format("15:04:05"), printer.Sprintf("$%.3f", o.Price))
	}

	fmt.Fprintln(tw, "\nStatistical analysis")
	if v.Stats == nil {
		fmt.Fprintln(tw, "No data yet for this coin.")
	} else {
		fmt.Fprintf(tw, "Mean avg price:\t%s\n", printer.Sprintf("$%.3f", v.Stats.Mean))
		fmt.Fprintf(tw, "Max peak price:\t%s\n", printer.Sprintf("$%.3f", v.Stats.Max))
		fmt.Fprintf(tw, "Min low price:\t%s\n", printer.Sprintf("$%.3f", v.Stats.Min))
		fmt.Fprintf(tw, "Tracked datapoints:\t%d checks\n", v.Stats.Count)
		fmt.Fprintf(tw, "Volatility (std dev):\t%s\n", printer.Sprintf("$%.4f", v.Stats.StdDev))
	}

	return tw.Flush()
}
