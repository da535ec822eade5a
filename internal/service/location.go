package service

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/simpa-client/internal/models"
)

// Projects возвращает проекты вместе с вложенными зданиями.
func (s *Service) Projects(ctx context.Context) ([]models.Project, error) {
	const op = "service/Projects"

	var out []models.Project
	if err := s.api.GetJSON(ctx, "/proyek", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Buildings берёт здания из проекта: отдельного эндпойнта нет.
func (s *Service) Buildings(ctx context.Context, projectID int) ([]models.Building, error) {
	const op = "service/Buildings"

	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, p := range projects {
		if p.ID == projectID {
			if p.Gedung == nil {
				return []models.Building{}, nil
			}
			return p.Gedung, nil
		}
	}

	return nil, fmt.Errorf("%s: project %d: %w", op, projectID, ErrNotFound)
}

func (s *Service) Rooms(ctx context.Context, projectID, buildingID int) ([]models.Room, error) {
	const op = "service/Rooms"

	var out []models.Room
	path := fmt.Sprintf("/proyek/%d/gedung/%d/ruangan", projectID, buildingID)
	if err := s.api.GetJSON(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) Units(ctx context.Context, roomID int) ([]models.Unit, error) {
	const op = "service/Units"

	var out []models.Unit
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/unit/ruangan/%d", roomID), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Variables — переменные для категории юнита и строки результатов по умолчанию.
type Variables struct {
	Inspection []models.InspectionVariable
	Cleaning   []models.CleaningVariable

	// InspectionResults — по строке на переменную, nilai = "Normal".
	InspectionResults []models.InspectionResult
	// CleaningInputs — по строке на переменную, значения пустые.
	CleaningInputs []models.CleaningInput
}

// Variables загружает переменные осмотра и очистки параллельно. Ошибка
// любого из запросов отменяет второй.
func (s *Service) Variables(ctx context.Context, kategori string) (*Variables, error) {
	const op = "service/Variables"

	if kategori == "" {
		kategori = models.DefaultKategori
	}
	k := url.PathEscape(kategori)

	var out Variables

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.api.GetJSON(gctx, "/variable-pemeriksaan/kategori/"+k, nil, &out.Inspection)
	})
	g.Go(func() error {
		return s.api.GetJSON(gctx, "/variable-pembersihan/kategori/"+k, nil, &out.Cleaning)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.InspectionResults = make([]models.InspectionResult, 0, len(out.Inspection))
	for _, v := range out.Inspection {
		out.InspectionResults = append(out.InspectionResults, models.InspectionResult{
			VariableID: v.ID,
			Nilai:      models.DefaultInspectionValue,
		})
	}

	out.CleaningInputs = make([]models.CleaningInput, 0, len(out.Cleaning))
	for _, v := range out.Cleaning {
		out.CleaningInputs = append(out.CleaningInputs, models.CleaningInput{VariableID: v.ID})
	}

	return &out, nil
}
