package remotesync

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/rs/zerolog/log"
)

// Opener connects to a remote given a full DSN.
type Opener func(ctx context.Context, dsn string) (Remote, error)

// PostgresOpener opens a RecordStore.
func PostgresOpener(ctx context.Context, dsn string) (Remote, error) {
	return OpenRecordStore(ctx, dsn)
}

// Syncer pushes and pulls the material catalog. When sync is disabled or
// unconfigured every operation returns immediately without error.
type Syncer struct {
	settings  repository.SettingsRepository
	materials repository.MaterialRepository
	open      Opener

	mu     sync.Mutex
	remote Remote
	dsn    string
}

func NewSyncer(settings repository.SettingsRepository, materials repository.MaterialRepository, open Opener) *Syncer {
	if open == nil {
		open = PostgresOpener
	}
	return &Syncer{settings: settings, materials: materials, open: open}
}

// Active reports whether sync is enabled and configured.
func (s *Syncer) Active(ctx context.Context) bool {
	st := s.settings.Sync(ctx)
	return st.Configured()
}

// connect returns the remote for the current settings, reopening when they
// changed. ok=false means sync is off.
func (s *Syncer) connect(ctx context.Context) (Remote, bool, error) {
	st := s.settings.Sync(ctx)
	if !st.Configured() {
		return nil, false, nil
	}
	dsn, err := DSN(st)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote != nil && s.dsn == dsn {
		return s.remote, true, nil
	}
	if s.remote != nil {
		_ = s.remote.Close()
		s.remote = nil
	}
	r, err := s.open(ctx, dsn)
	if err != nil {
		return nil, false, err
	}
	s.remote, s.dsn = r, dsn
	return r, true, nil
}

// Push upserts the whole local catalog. Returns the number of records sent.
func (s *Syncer) Push(ctx context.Context) (int, error) {
	remote, ok, err := s.connect(ctx)
	if err != nil || !ok {
		return 0, err
	}
	local, err := s.materials.List(ctx)
	if err != nil {
		return 0, err
	}
	records := make([]Record, 0, len(local))
	for _, m := range local {
		records = append(records, toRecord(m))
	}
	if err := remote.Upsert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Pull merges the remote catalog into the local one. A remote record replaces
// the local one unless the local copy is strictly newer. Local-only records
// are kept. Returns the number of local records added or replaced.
func (s *Syncer) Pull(ctx context.Context) (int, error) {
	remote, ok, err := s.connect(ctx)
	if err != nil || !ok {
		return 0, err
	}
	records, err := remote.SelectAll(ctx)
	if err != nil {
		return 0, err
	}
	local, err := s.materials.List(ctx)
	if err != nil {
		return 0, err
	}

	merged, changed := Merge(local, records)
	if changed == 0 {
		return 0, nil
	}
	if err := s.materials.SaveAll(ctx, merged); err != nil {
		return 0, err
	}
	return changed, nil
}

// DeleteRemote removes one record remotely.
func (s *Syncer) DeleteRemote(ctx context.Context, id string) error {
	remote, ok, err := s.connect(ctx)
	if err != nil || !ok {
		return err
	}
	return remote.Delete(ctx, id)
}

// Watch re-pulls on every remote change signal and then calls onPulled. It
// blocks until ctx ends and returns immediately when sync is off.
func (s *Syncer) Watch(ctx context.Context, onPulled func(changed int)) error {
	remote, ok, err := s.connect(ctx)
	if err != nil || !ok {
		return err
	}
	return remote.Subscribe(ctx, func() {
		n, err := s.Pull(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("remotesync: pull after change signal failed")
			return
		}
		if onPulled != nil {
			onPulled(n)
		}
	})
}

func (s *Syncer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return nil
	}
	err := s.remote.Close()
	s.remote = nil
	return err
}

// Merge applies remote records over local ones, keeping local order and
// appending remote-only records. Articles stay unique case-insensitively: a
// remote record whose article belongs to a different local record is skipped,
// so BOM lines keep pointing at the local id.
func Merge(local []model.Material, remote []Record) ([]model.Material, int) {
	index := make(map[string]int, len(local))
	byArticle := make(map[string]int, len(local))
	out := append([]model.Material(nil), local...)
	for i, m := range out {
		index[m.ID] = i
		byArticle[model.ArticleKey(m.Article)] = i
	}

	changed := 0
	for _, r := range remote {
		m := fromRecord(r)
		key := model.ArticleKey(m.Article)
		i, ok := index[r.ID]
		if j, taken := byArticle[key]; taken && (!ok || j != i) {
			log.Warn().Str("id", r.ID).Str("article", m.Article).Str("local_id", out[j].ID).
				Msg("remotesync: article held by another material, skipping")
			continue
		}
		if !ok {
			index[r.ID] = len(out)
			byArticle[key] = len(out)
			out = append(out, m)
			changed++
			continue
		}
		cur := out[i]
		if cur.UpdatedAt.After(r.UpdatedAt) {
			continue
		}
		if cur.Name == m.Name && cur.Article == m.Article && cur.Unit == m.Unit && cur.Price.Equal(m.Price) {
			continue
		}
		delete(byArticle, model.ArticleKey(cur.Article))
		byArticle[key] = i
		out[i] = m
		changed++
	}
	return out, changed
}

// DSN builds the connection string with the credential as the password.
func DSN(st model.SyncSettings) (string, error) {
	u, err := url.Parse(st.URL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", fmt.Errorf("remotesync: sync url must be a postgres:// url")
	}
	if st.Credential != "" {
		user := "postgres"
		if u.User != nil && u.User.Username() != "" {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, st.Credential)
	}
	return u.String(), nil
}

func toRecord(m model.Material) Record {
	return Record{
		ID:        m.ID,
		Name:      m.Name,
		Article:   m.Article,
		Unit:      m.Unit,
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromRecord(r Record) model.Material {
	return model.Material{
		ID:        r.ID,
		Name:      r.Name,
		Article:   r.Article,
		Unit:      r.Unit,
		Price:     r.Price,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
