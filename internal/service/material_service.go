package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CSVHeader is the column layout for material import and export.
var CSVHeader = []string{"name", "article", "unit", "price"}

// MaterialMirror receives material changes for the optional remote store.
// remotesync.Syncer implements it; both calls are no-ops while sync is off.
type MaterialMirror interface {
	Push(ctx context.Context) (int, error)
	DeleteRemote(ctx context.Context, id string) error
}

// MaterialService defines business operations for the material price list.
type MaterialService interface {
	List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, error)
	Get(ctx context.Context, id string) (*model.Material, error)
	Create(ctx context.Context, req dto.CreateMaterialRequest) (*model.Material, error)
	Update(ctx context.Context, id string, req dto.UpdateMaterialRequest) (*model.Material, error)
	Delete(ctx context.Context, id string) error
	ImportCSV(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
}

type materialService struct {
	repo     repository.MaterialRepository
	audit    AuditService
	notifier ChangeNotifier
	mirror   MaterialMirror
	now      func() time.Time
}

func NewMaterialService(repo repository.MaterialRepository, audit AuditService, notifier ChangeNotifier, mirror MaterialMirror) MaterialService {
	return &materialService{
		repo:     repo,
		audit:    audit,
		notifier: notifierOrNop(notifier),
		mirror:   mirror,
		now:      time.Now,
	}
}

func (s *materialService) List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	if q == "" {
		return all, nil
	}
	out := make([]model.Material, 0, len(all))
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Article), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *materialService) Get(ctx context.Context, id string) (*model.Material, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexMaterial(all, id)
	if i < 0 {
		return nil, notFound("material", id)
	}
	return &all[i], nil
}

func (s *materialService) Create(ctx context.Context, req dto.CreateMaterialRequest) (*model.Material, error) {
	name := strings.TrimSpace(req.Name)
	article := strings.TrimSpace(req.Article)
	if name == "" || article == "" {
		return nil, invalid("name and article are required")
	}
	if req.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if articleTaken(all, article, "") {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateArticle, article)
	}

	now := s.now().UTC()
	m := model.Material{
		ID:        uuid.NewString(),
		Name:      name,
		Article:   article,
		Unit:      strings.TrimSpace(req.Unit),
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	all = append(all, m)
	if err := s.repo.SaveAll(ctx, all); err != nil {
		return nil, err
	}
	s.committed(ctx, "create", m.ID, m.Article)
	return &m, nil
}

func (s *materialService) Update(ctx context.Context, id string, req dto.UpdateMaterialRequest) (*model.Material, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexMaterial(all, id)
	if i < 0 {
		return nil, notFound("material", id)
	}
	m := all[i]

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		m.Name = name
	}
	if req.Article != nil {
		article := strings.TrimSpace(*req.Article)
		if article == "" {
			return nil, invalid("article must not be empty")
		}
		if articleTaken(all, article, id) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArticle, article)
		}
		m.Article = article
	}
	if req.Unit != nil {
		m.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, invalid("price must not be negative")
		}
		m.Price = *req.Price
	}
	m.UpdatedAt = s.now().UTC()
	all[i] = m

	if err := s.repo.SaveAll(ctx, all); err != nil {
		return nil, err
	}
	s.committed(ctx, "update", m.ID, m.Article)
	return &m, nil
}

// Delete removes the material. Tech-card lines that reference it stay and
// price at zero until edited.
func (s *materialService) Delete(ctx context.Context, id string) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	i := indexMaterial(all, id)
	if i < 0 {
		return notFound("material", id)
	}
	article := all[i].Article
	all = append(all[:i], all[i+1:]...)
	if err := s.repo.SaveAll(ctx, all); err != nil {
		return err
	}

	s.audit.Record(ctx, "delete", "material", id, article)
	s.notifier.Notify("deleted", "material", id)
	if s.mirror != nil {
		if err := s.mirror.DeleteRemote(ctx, id); err != nil {
			log.Warn().Err(err).Str("material_id", id).Msg("material: remote delete failed")
		}
	}
	return nil
}

// ImportCSV upserts materials by article (case-insensitive). Within one file
// a later row for the same article wins. Bad rows are skipped and reported.
func (s *materialService) ImportCSV(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	rows, err := parseMaterialCSV(r)
	if err != nil {
		return nil, invalid("csv: %v", err)
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byArticle := make(map[string]int, len(all))
	for i, m := range all {
		byArticle[model.ArticleKey(m.Article)] = i
	}

	result := &dto.ImportResult{}
	created := make(map[string]bool)
	updated := make(map[string]bool)
	now := s.now().UTC()
	for _, row := range rows {
		if row.err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", row.line, row.err))
			continue
		}
		key := model.ArticleKey(row.article)
		if i, ok := byArticle[key]; ok {
			m := &all[i]
			m.Name = row.name
			m.Article = row.article
			m.Unit = row.unit
			m.Price = row.price
			m.UpdatedAt = now
			if !created[key] && !updated[key] {
				updated[key] = true
				result.Updated++
			}
			continue
		}
		all = append(all, model.Material{
			ID:        uuid.NewString(),
			Name:      row.name,
			Article:   row.article,
			Unit:      row.unit,
			Price:     row.price,
			CreatedAt: now,
			UpdatedAt: now,
		})
		byArticle[key] = len(all) - 1
		created[key] = true
		result.Created++
	}

	if result.Created+result.Updated > 0 {
		if err := s.repo.SaveAll(ctx, all); err != nil {
			return nil, err
		}
		s.committed(ctx, "import", "", fmt.Sprintf("created=%d updated=%d skipped=%d", result.Created, result.Updated, result.Skipped))
	}
	return result, nil
}

// ExportCSV writes every material with the import header. The output
// round-trips through ImportCSV.
func (s *materialService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, err
	}
	for _, m := range all {
		if err := cw.Write([]string{m.Name, m.Article, m.Unit, m.Price.String()}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	s.audit.Record(ctx, "export", "material", "", fmt.Sprintf("rows=%d", len(all)))
	return len(all), nil
}

func (s *materialService) committed(ctx context.Context, action, id, details string) {
	s.audit.Record(ctx, action, "material", id, details)
	s.notifier.Notify(eventType(action), "material", id)
	if s.mirror == nil {
		return
	}
	if _, err := s.mirror.Push(ctx); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("material: remote push failed")
	}
}

func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(512)
	first := string(head)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if strings.Contains(first, ";") && !strings.Contains(first, ",") {
		return ';'
	}
	return ','
}

type csvRow struct {
	line    int
	name    string
	article string
	unit    string
	price   decimal.Decimal
	err     error
}

// parseMaterialCSV reads the header to locate columns, so reordered or extra
// columns are tolerated. A UTF-8 BOM is skipped. A header with semicolons
// and no commas switches the delimiter to ';', as spreadsheet exports in
// comma-decimal locales do.
func parseMaterialCSV(r io.Reader) ([]csvRow, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "article", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []csvRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rows = append(rows, csvRow{line: line, err: err})
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := csvRow{
			line:    line,
			name:    field(rec, "name"),
			article: field(rec, "article"),
			unit:    field(rec, "unit"),
		}
		switch {
		case row.article == "":
			row.err = errors.New("article is empty")
		case row.name == "":
			row.err = errors.New("name is empty")
		default:
			row.price, row.err = parsePrice(field(rec, "price"))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parsePrice accepts "1234.5", "1234,5" and "1 234,50".
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %q is negative", s)
	}
	return d, nil
}

func indexMaterial(all []model.Material, id string) int {
	for i, m := range all {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func articleTaken(all []model.Material, article, exceptID string) bool {
	key := model.ArticleKey(article)
	for _, m := range all {
		if m.ID != exceptID && model.ArticleKey(m.Article) == key {
			return true
		}
	}
	return false
}
