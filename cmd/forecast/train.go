package main

import (
	"fmt"
	"strconv"

	"spending-forecast/internal/model"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit every entity and show the trend lines",
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.Context(), "")
	if err != nil {
		return err
	}

	p := s.service.Pipeline
	headers := []string{"Entity", "Metric", "Slope", "Intercept", "R²"}
	var rows [][]string
	seen := make(map[string]bool)
	for _, o := range s.trained.Outcomes {
		if o.Status != model.OutcomeFitted || seen[o.Entity] {
			continue
		}
		seen[o.Entity] = true
		for _, f := range p.Options().Families {
			m, ok := p.Model(o.Entity, f.Key)
			if !ok {
				continue
			}
			rows = append(rows, []string{
				o.Entity,
				f.Key,
				formatAmount(m.Slope),
				formatAmount(m.Intercept),
				strconv.FormatFloat(m.RSquared, 'f', 3, 64),
			})
		}
	}

	fmt.Fprintln(out(cmd), renderTable("TRENDS  "+s.trained.History.String(), headers, rows))

	if skipped := s.trained.SkippedOutcomes(); len(skipped) > 0 {
		skipRows := make([][]string, 0, len(skipped))
		for _, o := range skipped {
			skipRows = append(skipRows, []string{strconv.Itoa(o.Index), o.Entity, o.Metric, o.Reason})
		}
		fmt.Fprintln(out(cmd), renderTable("SKIPPED", []string{"Row", "Entity", "Metric", "Reason"}, skipRows))
	}
	return nil
}
