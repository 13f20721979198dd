// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apathy-review/screenctl/internal/reconcile"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair manifest/store drift by setting missing category flags",
	Long: `Reconcile recomputes the missing set for each category and repairs it
additively: identifiers with an existing record get the category flag set
(UPDATE), identifiers with no record at all get a new one (CREATE). Flags
are never cleared and reviews are never touched.

Run with --dry-run first: it prints the exact action list a real run would
perform. Then run with --apply; all changes commit in one transaction, so a
failed run leaves the store unchanged. Re-running after a successful apply
is a zero-action no-op.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	apply, _ := cmd.Flags().GetBool("apply")
	if dryRun == apply {
		return fmt.Errorf("choose exactly one of --dry-run or --apply")
	}

	manifests, err := loadManifests(cmd, true)
	if err != nil {
		return err
	}

	opts := reconcile.Options{}
	onlyList, _ := cmd.Flags().GetString("only")
	if onlyList != "" {
		opts.Only, err = parseAllowList(onlyList)
		if err != nil {
			return err
		}
	}

	st, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	plan, err := reconcile.BuildPlan(ctx, st, manifests, opts)
	if err != nil {
		return err
	}

	fmt.Println(planTable(plan))

	if dryRun {
		total := plan.TotalSummary()
		fmt.Printf("dry-run: %d action(s) planned (created=%d updated=%d), nothing written\n",
			total.Total(), total.Created, total.Updated)
		return nil
	}

	summary, err := reconcile.Apply(ctx, st, plan, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("applied %d action(s): created=%d updated=%d\n",
		summary.Total(), summary.Created, summary.Updated)
	return nil
}

// planTable shows per-category planned counts plus a short action sample.
func planTable(plan *reconcile.Plan) string {
	headers := []string{"Category", "Create", "Update"}
	counts := plan.Counts()
	rows := make([][]string, 0, len(counts))
	for _, c := range types.Categories() {
		s, ok := counts[c]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(c), strconv.Itoa(s.Created), strconv.Itoa(s.Updated)})
	}
	out := renderTable(headers, rows)

	const sampleLimit = 10
	for i, a := range plan.Actions {
		if i == sampleLimit {
			out += fmt.Sprintf("\n... and %d more action(s)", len(plan.Actions)-sampleLimit)
			break
		}
		out += fmt.Sprintf("\n%s %s %d", a.Kind, a.Category, a.PMID)
	}
	return out
}

func parseAllowList(s string) (map[int64]struct{}, error) {
	allow := make(map[int64]struct{})
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pmid, err := strconv.ParseInt(field, 10, 64)
		if err != nil || pmid <= 0 {
			return nil, fmt.Errorf("invalid pmid %q in --only list", field)
		}
		allow[pmid] = struct{}{}
	}
	if len(allow) == 0 {
		return nil, fmt.Errorf("--only list is empty")
	}
	return allow, nil
}

func init() {
	addManifestFlags(reconcileCmd)
	reconcileCmd.Flags().Bool("dry-run", false, "preview the action list without writing")
	reconcileCmd.Flags().Bool("apply", false, "apply the planned actions in one transaction")
	reconcileCmd.Flags().String("only", "", "comma-separated pmid allow-list to restrict the run")

	rootCmd.AddCommand(reconcileCmd)
}
