package importer

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

	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

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

func writeCSVNamed(t *testing.T, name string, pmids ...int64) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("pmid\n")
	for _, pmid := range pmids {
		fmt.Fprintf(&sb, "%d\n", pmid)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestCategoriesFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want []types.Category
	}{
		{"category_physical_allgroups.csv", []types.Category{types.CategoryPhysical}},
		{"category_brain_allgroups.csv", []types.Category{types.CategoryBrain}},
		{"category_psycho_allgroups.csv", []types.Category{types.CategoryPsycho}},
		{"PSYCH_batch2.csv", []types.Category{types.CategoryPsycho}},
		{"physical_and_brain.csv", []types.Category{types.CategoryPhysical, types.CategoryBrain}},
		{"candidates.csv", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoriesFromFilename(filepath.Join("/tmp", tt.name)))
		})
	}
}

func TestRunCreatesAndUpdates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 1, types.FlagSet{Brain: true})

	path := writeCSVNamed(t, "category_physical_allgroups.csv", 1, 2)
	summary, err := Run(ctx, s, path, types.ManifestConfig{}, types.ImportConfig{}, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	rec1, err := s.FindByPMID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.FlagSet{Physical: true, Brain: true}, rec1.Flags())

	rec2, err := s.FindByPMID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, types.FlagSet{Physical: true}, rec2.Flags())
}

func TestRunNeverClearsFlags(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return created })
	seedCandidate(t, s, 9, types.FlagSet{Physical: true, Psycho: true})
	s.SetClock(time.Now)

	path := writeCSVNamed(t, "brain.csv", 9)
	_, err := Run(ctx, s, path, types.ManifestConfig{}, types.ImportConfig{}, &strings.Builder{})
	require.NoError(t, err)

	rec, err := s.FindByPMID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, types.FlagSet{Physical: true, Brain: true, Psycho: true}, rec.Flags())
	assert.True(t, rec.CreatedAt.Equal(created), "created_at changed on update")
}

func TestRunExplicitCategoriesOverrideFilename(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	path := writeCSVNamed(t, "brain.csv", 3)
	cfg := types.ImportConfig{Categories: []types.Category{types.CategoryPsycho}}
	_, err := Run(ctx, s, path, types.ManifestConfig{}, cfg, &strings.Builder{})
	require.NoError(t, err)

	rec, err := s.FindByPMID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, types.FlagSet{Psycho: true}, rec.Flags())
}

func TestRunNoCategoriesFails(t *testing.T) {
	s := testStore(t)
	path := writeCSVNamed(t, "candidates.csv", 1)
	_, err := Run(context.Background(), s, path, types.ManifestConfig{}, types.ImportConfig{}, &strings.Builder{})
	require.Error(t, err)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	path := writeCSVNamed(t, "physical.csv", 1, 2, 3)
	summary, err := Run(ctx, s, path, types.ManifestConfig{}, types.ImportConfig{DryRun: true}, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Created)

	count, err := s.CountWithFlag(ctx, types.CategoryPhysical)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunUnchangedRecordsAreCounted(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCandidate(t, s, 4, types.FlagSet{Physical: true})

	path := writeCSVNamed(t, "physical.csv", 4)
	summary, err := Run(ctx, s, path, types.ManifestConfig{}, types.ImportConfig{}, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unchanged)
	assert.Zero(t, summary.Created)
	assert.Zero(t, summary.Updated)
}

func TestRunPDFDir(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	pdfDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pdfDir, "7.pdf"), []byte("%PDF-1.4"), 0o644))

	path := writeCSVNamed(t, "physical.csv", 7, 8)
	cfg := types.ImportConfig{PDFDir: pdfDir}
	_, err := Run(ctx, s, path, types.ManifestConfig{}, cfg, &strings.Builder{})
	require.NoError(t, err)

	rec7, err := s.FindByPMID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, rec7.PDFExists)

	rec8, err := s.FindByPMID(ctx, 8)
	require.NoError(t, err)
	assert.False(t, rec8.PDFExists)
}
