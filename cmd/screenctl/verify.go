// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/internal/verify"
	"github.com/apathy-review/screenctl/pkg/types"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the application's display counts against the manifests",
	Long: `Verify re-runs the per-category display-count query the screening
application uses and compares it with the expected counts, taken either
from freshly loaded manifests (--physical/--brain/--psycho) or from a
prior audit artifact (--report).

Exits non-zero when any category mismatches, so it can gate a deployment.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	expected, err := expectedCounts(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := verify.Run(context.Background(), st, expected)
	if err != nil {
		return err
	}

	headers := []string{"Category", "Expected", "Actual", "Match"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		match := "ok"
		if !r.Match {
			match = "MISMATCH"
		}
		rows = append(rows, []string{
			string(r.Category), strconv.Itoa(r.Expected), strconv.Itoa(r.Actual), match,
		})
	}
	fmt.Println(renderTable(headers, rows))

	if !verify.AllMatch(results) {
		return fmt.Errorf("display counts do not match the manifests")
	}
	return nil
}

func expectedCounts(cmd *cobra.Command) (map[types.Category]int, error) {
	reportPath, _ := cmd.Flags().GetString("report")
	if reportPath != "" {
		return verify.ExpectedFromReport(reportPath)
	}
	manifests, err := loadManifests(cmd, false)
	if err != nil {
		return nil, err
	}
	return verify.ExpectedFromManifests(manifests), nil
}

func init() {
	addManifestFlags(verifyCmd)
	verifyCmd.Flags().String("report", "", "derive expected counts from a prior audit_report.json")

	rootCmd.AddCommand(verifyCmd)
}
