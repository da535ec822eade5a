package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/simpa-client/internal/models"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
)

const (
	// DefaultPerPage — размер страницы истории.
	DefaultPerPage = 10

	minPhotos = 2
)

// MaintenanceForm — данные, которые техник вводит для записи обслуживания.
type MaintenanceForm struct {
	UnitID int
	// Unit — выбранный юнит; нужен для kategori (nil — indoor).
	Unit       *models.Unit
	Inspection []models.InspectionResult
	Cleaning   []models.CleaningInput
	Photos     []models.Photo
}

// Validate проверяет форму в том же порядке, что и экран ввода.
func (f MaintenanceForm) Validate() error {
	if f.UnitID <= 0 || len(f.Inspection) == 0 || len(f.Photos) < minPhotos {
		return ErrIncompleteForm
	}

	for _, r := range f.Inspection {
		if strings.TrimSpace(r.Nilai) == "" {
			return fmt.Errorf("%w: variable %d", ErrInspectionIncomplete, r.VariableID)
		}
	}

	for _, c := range f.Cleaning {
		if _, _, err := parseCleaning(c); err != nil {
			return fmt.Errorf("%w: variable %d", ErrCleaningIncomplete, c.VariableID)
		}
	}

	for i, p := range f.Photos {
		if err := validatePhoto(p); err != nil {
			return fmt.Errorf("photo %d: %w", i, err)
		}
	}

	return nil
}

// Record строит тело POST /maintenance на дату now (UTC).
func (f MaintenanceForm) Record(now time.Time) (*models.MaintenanceRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	kategori := models.DefaultKategori
	if f.Unit != nil && f.Unit.Kategori != "" {
		kategori = f.Unit.Kategori
	}

	cleaning := make([]models.CleaningResult, 0, len(f.Cleaning))
	for _, c := range f.Cleaning {
		before, after, _ := parseCleaning(c)
		cleaning = append(cleaning, models.CleaningResult{
			VariableID: c.VariableID,
			Sebelum:    before,
			Sesudah:    after,
		})
	}

	photos := make([]models.Photo, 0, len(f.Photos))
	for _, p := range f.Photos {
		photos = append(photos, models.Photo{Foto: p.Foto, Status: p.Status})
	}

	return &models.MaintenanceRecord{
		IDUnit:           f.UnitID,
		Tanggal:          now.UTC().Format(time.DateOnly),
		NamaPemeriksaan:  models.RoutineInspection,
		Kategori:         kategori,
		HasilPemeriksaan: append([]models.InspectionResult(nil), f.Inspection...),
		HasilPembersihan: cleaning,
		Foto:             photos,
	}, nil
}

// SubmitMaintenance валидирует форму и отправляет запись. Возвращает
// отправленное тело.
func (s *Service) SubmitMaintenance(ctx context.Context, form MaintenanceForm) (*models.MaintenanceRecord, error) {
	const op = "service/SubmitMaintenance"

	rec, err := form.Record(s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.api.PostJSON(ctx, "/maintenance", rec, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("maintenance_submitted",
		slog.Int("id_unit", rec.IDUnit),
		slog.String("tanggal", rec.Tanggal),
		slog.Int("photos", len(rec.Foto)),
	)

	return rec, nil
}

// History возвращает историю обслуживания проекта. Даты (YYYY-MM-DD)
// передаются, только если заданы обе.
func (s *Service) History(ctx context.Context, projectID int, start, end string) ([]models.MaintenanceEntry, error) {
	const op = "service/History"

	var q url.Values
	if start != "" && end != "" {
		q = url.Values{"startDate": {start}, "endDate": {end}}
	}

	var out []models.MaintenanceEntry
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/maintenance/project/%d", projectID), q, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Page возвращает страницу page (с 1) и общее число страниц.
// perPage <= 0 — DefaultPerPage. Для пустого списка допустима только страница 1.
func Page[T any](items []T, page, perPage int) ([]T, int, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	total := (len(items) + perPage - 1) / perPage
	if page < 1 || (page > total && !(total == 0 && page == 1)) {
		return nil, total, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, total)
	}

	start := (page - 1) * perPage
	end := min(start+perPage, len(items))

	return items[start:end], total, nil
}

// LoadPhoto читает файл и кодирует его в base64 без сжатия.
func LoadPhoto(path, status string) (models.Photo, error) {
	const op = "service/LoadPhoto"

	if status != models.PhotoBefore && status != models.PhotoAfter {
		return models.Photo{}, fmt.Errorf("%s: %w: status %q", op, ErrInvalidPhoto, status)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(raw) == 0 {
		return models.Photo{}, fmt.Errorf("%s: %w: empty file", op, ErrInvalidPhoto)
	}

	return models.Photo{Foto: base64.StdEncoding.EncodeToString(raw), Status: status}, nil
}

func validatePhoto(p models.Photo) error {
	if p.Foto == "" {
		return fmt.Errorf("%w: empty image", ErrInvalidPhoto)
	}

	if p.Status != models.PhotoBefore && p.Status != models.PhotoAfter {
		return fmt.Errorf("%w: status %q", ErrInvalidPhoto, p.Status)
	}

	return nil
}

func parseCleaning(c models.CleaningInput) (float64, float64, error) {
	before, err := parseNumber(c.Sebelum)
	if err != nil {
		return 0, 0, err
	}

	after, err := parseNumber(c.Sesudah)
	if err != nil {
		return 0, 0, err
	}

	return before, after, nil
}

// parseNumber принимает и десятичную запятую ("2,5").
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}

	return v, nil
}
