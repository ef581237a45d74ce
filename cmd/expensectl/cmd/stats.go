package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backend metrics",
	Long:  `Fetch the backend's Prometheus metrics and summarize the expense assistant counters.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(serverURL + "/metrics")
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse metrics: %w", err)
	}

	type row struct {
		Name  string  `json:"name"`
		Label string  `json:"label,omitempty"`
		Value float64 `json:"value"`
	}
	var rows []row

	names := make([]string, 0, len(families))
	for name := range families {
		if strings.HasPrefix(name, "expense_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		for _, m := range families[name].GetMetric() {
			var label string
			for _, lp := range m.GetLabel() {
				label = lp.GetName() + "=" + lp.GetValue()
			}
			rows = append(rows, row{Name: name, Label: label, Value: metricValue(m)})
		}
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No expense assistant metrics reported yet")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Label", "Value")
	for _, r := range rows {
		table.Append(r.Name, r.Label, fmt.Sprintf("%g", r.Value))
	}
	table.Render()
	return nil
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return m.GetUntyped().GetValue()
	}
}
