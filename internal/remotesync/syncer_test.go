package remotesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	records []Record
	deleted []string
	closed  bool
	signals int
}

func (f *fakeRemote) SelectAll(context.Context) ([]Record, error) { return f.records, nil }

func (f *fakeRemote) Upsert(_ context.Context, rs []Record) error {
	f.records = append(f.records, rs...)
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) Subscribe(_ context.Context, onChange func()) error {
	for i := 0; i < f.signals; i++ {
		onChange()
	}
	return nil
}

func (f *fakeRemote) Close() error {
	f.closed = true
	return nil
}

type fixture struct {
	syncer    *Syncer
	settings  repository.SettingsRepository
	materials repository.MaterialRepository
	remote    *fakeRemote
	opened    []string
}

func newFixture(t *testing.T, st model.SyncSettings) *fixture {
	t.Helper()
	store := infra.NewMemoryStore()
	f := &fixture{
		settings:  repository.NewSettingsRepository(store),
		materials: repository.NewMaterialRepository(store),
		remote:    &fakeRemote{},
	}
	require.NoError(t, f.settings.SaveSync(context.Background(), st))
	f.syncer = NewSyncer(f.settings, f.materials, func(_ context.Context, dsn string) (Remote, error) {
		f.opened = append(f.opened, dsn)
		return f.remote, nil
	})
	return f
}

func mat(id, article string, price int64, updated time.Time) model.Material {
	return model.Material{ID: id, Name: "Mat " + id, Article: article, Unit: "pcs", Price: decimal.NewFromInt(price), UpdatedAt: updated}
}

func TestSyncer_UnconfiguredIsNoop(t *testing.T) {
	for name, st := range map[string]model.SyncSettings{
		"disabled": {Enabled: false, URL: "postgres://db/x"},
		"no url":   {Enabled: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, st)
			ctx := context.Background()

			n, err := f.syncer.Push(ctx)
			assert.NoError(t, err)
			assert.Zero(t, n)
			n, err = f.syncer.Pull(ctx)
			assert.NoError(t, err)
			assert.Zero(t, n)
			assert.NoError(t, f.syncer.DeleteRemote(ctx, "x"))
			assert.NoError(t, f.syncer.Watch(ctx, nil))
			assert.Empty(t, f.opened)
			assert.False(t, f.syncer.Active(ctx))
		})
	}
}

func TestSyncer_PushSendsCatalog(t *testing.T) {
	f := newFixture(t, model.SyncSettings{Enabled: true, URL: "postgres://app@db:5432/catalog", Credential: "s3cret"})
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, f.materials.SaveAll(ctx, []model.Material{mat("a", "A", 10, now), mat("b", "B", 20, now)}))

	n, err := f.syncer.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.remote.records, 2)
	assert.Equal(t, []string{"postgres://app:s3cret@db:5432/catalog"}, f.opened)

	// Same settings reuse the connection.
	require.NoError(t, f.syncer.DeleteRemote(ctx, "a"))
	assert.Len(t, f.opened, 1)
	assert.Equal(t, []string{"a"}, f.remote.deleted)
}

func TestSyncer_PullRemoteWinsUnlessLocalNewer(t *testing.T) {
	f := newFixture(t, model.SyncSettings{Enabled: true, URL: "postgres://db/catalog"})
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.materials.SaveAll(ctx, []model.Material{
		mat("old", "OLD", 1, t0),
		mat("new", "NEW", 1, t0.Add(2*time.Hour)),
		mat("local", "LOC", 1, t0),
	}))
	f.remote.records = []Record{
		toRecord(mat("old", "OLD", 5, t0.Add(time.Hour))),
		toRecord(mat("new", "NEW", 5, t0.Add(time.Hour))),
		toRecord(mat("remote", "REM", 7, t0)),
	}

	n, err := f.syncer.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := f.materials.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	prices := map[string]string{}
	for _, m := range list {
		prices[m.ID] = m.Price.String()
	}
	assert.Equal(t, map[string]string{"old": "5", "new": "1", "local": "1", "remote": "7"}, prices)

	// A second pull finds nothing new.
	n, err = f.syncer.Pull(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMerge_ArticleCollisionKeepsLocalRecord(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	local := []model.Material{mat("l1", "LDSP-16", 1, t0), mat("l2", "EDGE", 1, t0)}
	remote := []Record{
		toRecord(mat("r1", "ldsp-16", 9, t0.Add(time.Hour))),
		toRecord(mat("l2", " ldsp-16", 9, t0.Add(time.Hour))),
		toRecord(mat("r2", "HINGE", 3, t0)),
		toRecord(mat("r3", "hinge", 4, t0)),
	}

	merged, changed := Merge(local, remote)
	assert.Equal(t, 1, changed)
	require.Len(t, merged, 3)
	assert.Equal(t, "l1", merged[0].ID)
	assert.Equal(t, "1", merged[0].Price.String())
	assert.Equal(t, "EDGE", merged[1].Article)
	assert.Equal(t, "r2", merged[2].ID)
}

func TestSyncer_WatchPullsOnEverySignal(t *testing.T) {
	f := newFixture(t, model.SyncSettings{Enabled: true, URL: "postgres://db/catalog"})
	f.remote.signals = 2
	f.remote.records = []Record{toRecord(mat("r", "R", 1, time.Now()))}

	var pulls []int
	require.NoError(t, f.syncer.Watch(context.Background(), func(n int) { pulls = append(pulls, n) }))
	assert.Equal(t, []int{1, 0}, pulls)
}

func TestSyncer_SettingsChangeReopens(t *testing.T) {
	f := newFixture(t, model.SyncSettings{Enabled: true, URL: "postgres://db/one"})
	ctx := context.Background()
	_, err := f.syncer.Push(ctx)
	require.NoError(t, err)

	require.NoError(t, f.settings.SaveSync(ctx, model.SyncSettings{Enabled: true, URL: "postgres://db/two"}))
	_, err = f.syncer.Push(ctx)
	require.NoError(t, err)
	assert.Len(t, f.opened, 2)
	assert.True(t, f.remote.closed)
}

func TestSyncer_OpenErrorSurfaces(t *testing.T) {
	store := infra.NewMemoryStore()
	settings := repository.NewSettingsRepository(store)
	require.NoError(t, settings.SaveSync(context.Background(), model.SyncSettings{Enabled: true, URL: "postgres://db/x"}))
	s := NewSyncer(settings, repository.NewMaterialRepository(store), func(context.Context, string) (Remote, error) {
		return nil, errors.New("refused")
	})

	_, err := s.Push(context.Background())
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	_, err := DSN(model.SyncSettings{URL: "mysql://x"})
	assert.Error(t, err)

	dsn, err := DSN(model.SyncSettings{URL: "postgresql://db/x?sslmode=disable", Credential: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "postgresql://postgres:pw@db/x?sslmode=disable", dsn)
}
