package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apathy-review/screenctl/internal/manifest"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "screening.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCandidate(t *testing.T, s *store.Store, pmid int64, flags types.FlagSet) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Create(ctx, pmid, flags))
	require.NoError(t, tx.Commit())
}

func writeManifest(t *testing.T, pmids ...int64) *manifest.Manifest {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("pmid\n")
	for _, pmid := range pmids {
		fmt.Fprintf(&sb, "%d\n", pmid)
	}
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	man, err := manifest.Load(path, types.ManifestConfig{})
	require.NoError(t, err)
	return man
}

// --- plan/apply tests ---

// The reference drift scenario: manifest physical = {1,2,3,4}; store has
// 1 and 2 flagged physical and 3 existing under brain only. Expect one
// UPDATE (3) and one CREATE (4), and a matching store afterwards.
func TestReconcileDriftScenario(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 1, types.FlagSet{Physical: true})
	seedCandidate(t, s, 2, types.FlagSet{Physical: true})
	seedCandidate(t, s, 3, types.FlagSet{Brain: true})

	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 1, 2, 3, 4),
	}

	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	require.Equal(t, []Action{
		{PMID: 3, Category: types.CategoryPhysical, Kind: ActionUpdate},
		{PMID: 4, Category: types.CategoryPhysical, Kind: ActionCreate},
	}, plan.Actions)

	summary, err := Apply(ctx, s, plan, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, Summary{Created: 1, Updated: 1}, summary)

	pmids, err := s.IdentifiersWithFlag(ctx, types.CategoryPhysical)
	require.NoError(t, err)
	assert.Len(t, pmids, 4)
	for _, pmid := range []int64{1, 2, 3, 4} {
		assert.Contains(t, pmids, pmid)
	}

	// 3 kept its brain flag; 4 got only physical.
	rec3, err := s.FindByPMID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, rec3.IsBrain)
	assert.True(t, rec3.IsPhysical)

	rec4, err := s.FindByPMID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, types.FlagSet{Physical: true}, rec4.Flags())
}

func TestReconcileConsistentStoreIsNoop(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 1, types.FlagSet{Psycho: true})
	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPsycho: writeManifest(t, 1),
	}

	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())

	summary, err := Apply(ctx, s, plan, &strings.Builder{})
	require.NoError(t, err)
	assert.Zero(t, summary.Total())
}

func TestReconcileIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 10, types.FlagSet{Brain: true})
	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 10, 11),
		types.CategoryBrain:    writeManifest(t, 10, 12),
	}

	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	_, err = Apply(ctx, s, plan, &strings.Builder{})
	require.NoError(t, err)

	// Unchanged inputs: the second run has nothing left to do.
	again, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

// A dry-run prints the plan and a real run applies the same plan; with an
// unchanged store both runs see the identical action list.
func TestPreviewMatchesApply(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 1, types.FlagSet{Brain: true})
	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 1, 2),
	}

	preview, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)

	actual, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	assert.Equal(t, preview.Actions, actual.Actions)

	summary, err := Apply(ctx, s, actual, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, summary.Total(), len(preview.Actions))
}

// An identifier missing from two categories with no record at all gets one
// CREATE for the first category and an UPDATE for the second, all within
// the same plan.
func TestCrossCategoryCreateThenUpdate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 5),
		types.CategoryBrain:    writeManifest(t, 5),
	}

	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	require.Equal(t, []Action{
		{PMID: 5, Category: types.CategoryPhysical, Kind: ActionCreate},
		{PMID: 5, Category: types.CategoryBrain, Kind: ActionUpdate},
	}, plan.Actions)

	_, err = Apply(ctx, s, plan, &strings.Builder{})
	require.NoError(t, err)

	rec, err := s.FindByPMID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, types.FlagSet{Physical: true, Brain: true}, rec.Flags())
}

func TestAllowListRestrictsPlan(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPsycho: writeManifest(t, 1, 2, 3),
	}

	plan, err := BuildPlan(ctx, s, manifests, Options{Only: map[int64]struct{}{2: {}}})
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, int64(2), plan.Actions[0].PMID)
}

// --- non-interference tests ---

func TestApplyDoesNotTouchReviewsOrExtractions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 3, types.FlagSet{Brain: true})
	require.NoError(t, s.AddReview(ctx, types.Review{
		PMID: 3, Category: types.CategoryBrain, ReviewerID: 7,
		Decision: types.DecisionInclude, Comment: "solid cohort",
	}))
	require.NoError(t, s.AddExtraction(ctx, 3, "Smith 2024"))

	before, err := s.Reviews(ctx, 3)
	require.NoError(t, err)

	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 3),
	}
	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	_, err = Apply(ctx, s, plan, &strings.Builder{})
	require.NoError(t, err)

	after, err := s.Reviews(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	citation, err := s.ExtractionCitation(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Smith 2024", citation)
}

func TestApplyPreservesCreatedAtAndOtherFlags(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return created })
	seedCandidate(t, s, 9, types.FlagSet{Brain: true, Psycho: true})

	later := created.Add(72 * time.Hour)
	s.SetClock(func() time.Time { return later })

	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 9),
	}
	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	_, err = Apply(ctx, s, plan, &strings.Builder{})
	require.NoError(t, err)

	rec, err := s.FindByPMID(ctx, 9)
	require.NoError(t, err)
	assert.True(t, rec.CreatedAt.Equal(created), "created_at changed")
	assert.True(t, rec.UpdatedAt.Equal(later), "updated_at not bumped")
	assert.Equal(t, types.FlagSet{Physical: true, Brain: true, Psycho: true}, rec.Flags())
}

// A plan built against a store that changed underneath it fails as a whole:
// no partial reconciliation reaches the store.
func TestApplyRollsBackOnFailure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	manifests := map[types.Category]*manifest.Manifest{
		types.CategoryPhysical: writeManifest(t, 1, 2),
	}
	plan, err := BuildPlan(ctx, s, manifests, Options{})
	require.NoError(t, err)
	require.Len(t, plan.Actions, 2)

	// Record 2 appears after planning, so the planned CREATE collides.
	seedCandidate(t, s, 2, types.FlagSet{Brain: true})

	_, err = Apply(ctx, s, plan, &strings.Builder{})
	require.Error(t, err)

	// The CREATE of 1, ordered before the failing action, must not survive.
	rec, err := s.FindByPMID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, rec, "partial reconciliation leaked past rollback")
}
