package service

import (
	"context"
	"strings"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"
)

// CatalogSync is the remote mirror of the material catalog.
// remotesync.Syncer implements it.
type CatalogSync interface {
	Active(ctx context.Context) bool
	Push(ctx context.Context) (int, error)
	Pull(ctx context.Context) (int, error)
}

// SyncService exposes sync settings and manual push/pull. With sync disabled
// push and pull report zero changes.
type SyncService interface {
	Settings(ctx context.Context) dto.SyncSettingsResponse
	SaveSettings(ctx context.Context, req dto.SyncSettingsRequest) (dto.SyncSettingsResponse, error)
	Push(ctx context.Context) (*dto.SyncResult, error)
	Pull(ctx context.Context) (*dto.SyncResult, error)
}

type syncService struct {
	settings repository.SettingsRepository
	syncer   CatalogSync
	audit    AuditService
	notifier ChangeNotifier
}

func NewSyncService(settings repository.SettingsRepository, syncer CatalogSync, audit AuditService, notifier ChangeNotifier) SyncService {
	return &syncService{settings: settings, syncer: syncer, audit: audit, notifier: notifierOrNop(notifier)}
}

func (s *syncService) Settings(ctx context.Context) dto.SyncSettingsResponse {
	st := s.settings.Sync(ctx)
	return dto.SyncSettingsResponse{
		Enabled:       st.Enabled,
		URL:           st.URL,
		HasCredential: st.Credential != "",
		Active:        st.Configured(),
	}
}

// SaveSettings stores the connection. A nil credential keeps the stored one.
func (s *syncService) SaveSettings(ctx context.Context, req dto.SyncSettingsRequest) (dto.SyncSettingsResponse, error) {
	current, err := s.settings.SyncForUpdate(ctx)
	if err != nil {
		return dto.SyncSettingsResponse{}, err
	}
	next := model.SyncSettings{
		Enabled:    req.Enabled,
		URL:        strings.TrimSpace(req.URL),
		Credential: current.Credential,
	}
	if req.Credential != nil {
		next.Credential = *req.Credential
	}
	if next.Enabled && next.URL == "" {
		return dto.SyncSettingsResponse{}, invalid("url is required when sync is enabled")
	}
	if err := s.settings.SaveSync(ctx, next); err != nil {
		return dto.SyncSettingsResponse{}, err
	}
	s.audit.Record(ctx, "update", "sync", "", next.URL)
	return s.Settings(ctx), nil
}

func (s *syncService) Push(ctx context.Context) (*dto.SyncResult, error) {
	if s.syncer == nil {
		return &dto.SyncResult{}, nil
	}
	n, err := s.syncer.Push(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.audit.Record(ctx, "sync", "material", "", "push")
	}
	return &dto.SyncResult{Pushed: n}, nil
}

func (s *syncService) Pull(ctx context.Context) (*dto.SyncResult, error) {
	if s.syncer == nil {
		return &dto.SyncResult{}, nil
	}
	n, err := s.syncer.Pull(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.audit.Record(ctx, "sync", "material", "", "pull")
		s.notifier.Notify("synced", "material", "")
	}
	return &dto.SyncResult{Pulled: n}, nil
}

// CompanyService holds the identity printed on price lists.
type CompanyService interface {
	Get(ctx context.Context) model.CompanyProfile
	Save(ctx context.Context, req dto.CompanyRequest) (model.CompanyProfile, error)
}

type companyService struct {
	settings repository.SettingsRepository
	audit    AuditService
}

func NewCompanyService(settings repository.SettingsRepository, audit AuditService) CompanyService {
	return &companyService{settings: settings, audit: audit}
}

func (s *companyService) Get(ctx context.Context) model.CompanyProfile {
	return s.settings.Company(ctx)
}

func (s *companyService) Save(ctx context.Context, req dto.CompanyRequest) (model.CompanyProfile, error) {
	p := model.CompanyProfile{
		Name:       strings.TrimSpace(req.Name),
		Brand:      strings.TrimSpace(req.Brand),
		LogoURL:    strings.TrimSpace(req.LogoURL),
		CatalogURL: strings.TrimSpace(req.CatalogURL),
	}
	if err := s.settings.SaveCompany(ctx, p); err != nil {
		return model.CompanyProfile{}, err
	}
	s.audit.Record(ctx, "update", "company", "", p.Name)
	return p, nil
}
