package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pribylovaa/simpa-client/internal/models"
	"github.com/pribylovaa/simpa-client/internal/service"
)

type app struct {
	svc    *service.Service
	stdout io.Writer
	stderr io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":     cmdLogin,
	"logout":    cmdLogout,
	"status":    cmdStatus,
	"projects":  cmdProjects,
	"buildings": cmdBuildings,
	"rooms":     cmdRooms,
	"units":     cmdUnits,
	"variables": cmdVariables,
	"submit":    cmdSubmit,
	"history":   cmdHistory,
}

var errUsage = errors.New("invalid arguments")

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (default $SIMPA_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		*password = os.Getenv("SIMPA_PASSWORD")
	}

	if *username == "" || *password == "" {
		return fmt.Errorf("%w: login requires -u and -p (or SIMPA_PASSWORD)", errUsage)
	}

	u, err := a.svc.Login(ctx, *username, *password)
	if err != nil {
		return err
	}

	return a.print(u)
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}

	return a.print(map[string]bool{"logged_out": true})
}

type statusOutput struct {
	LoggedIn  bool         `json:"logged_in"`
	User      *models.User `json:"user,omitempty"`
	ExpiresAt string       `json:"access_expires_at,omitempty"`
}

func cmdStatus(ctx context.Context, a *app, _ []string) error {
	sess, err := a.svc.Session(ctx)
	if err != nil {
		return err
	}

	out := statusOutput{LoggedIn: sess.LoggedIn, User: sess.User}
	if !sess.ExpiresAt.IsZero() {
		out.ExpiresAt = sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
	}

	return a.print(out)
}

func cmdProjects(ctx context.Context, a *app, _ []string) error {
	projects, err := a.svc.Projects(ctx)
	if err != nil {
		return err
	}

	return a.print(projects)
}

func cmdBuildings(ctx context.Context, a *app, args []string) error {
	fs := a.flags("buildings")
	project := fs.Int("project", 0, "project id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *project <= 0 {
		return fmt.Errorf("%w: -project is required", errUsage)
	}

	buildings, err := a.svc.Buildings(ctx, *project)
	if err != nil {
		return err
	}

	return a.print(buildings)
}

func cmdRooms(ctx context.Context, a *app, args []string) error {
	fs := a.flags("rooms")
	project := fs.Int("project", 0, "project id")
	building := fs.Int("building", 0, "building id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *project <= 0 || *building <= 0 {
		return fmt.Errorf("%w: -project and -building are required", errUsage)
	}

	rooms, err := a.svc.Rooms(ctx, *project, *building)
	if err != nil {
		return err
	}

	return a.print(rooms)
}

func cmdUnits(ctx context.Context, a *app, args []string) error {
	fs := a.flags("units")
	room := fs.Int("room", 0, "room id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *room <= 0 {
		return fmt.Errorf("%w: -room is required", errUsage)
	}

	units, err := a.svc.Units(ctx, *room)
	if err != nil {
		return err
	}

	return a.print(units)
}

func cmdVariables(ctx context.Context, a *app, args []string) error {
	fs := a.flags("variables")
	kategori := fs.String("kategori", models.DefaultKategori, "unit category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vars, err := a.svc.Variables(ctx, *kategori)
	if err != nil {
		return err
	}

	return a.print(map[string]any{
		"pemeriksaan": vars.Inspection,
		"pembersihan": vars.Cleaning,
	})
}

func cmdSubmit(ctx context.Context, a *app, args []string) error {
	fs := a.flags("submit")
	unit := fs.Int("unit", 0, "unit id")
	kategori := fs.String("kategori", models.DefaultKategori, "unit category")
	inspect := fs.String("inspect", "", "inspection overrides: ID=VALUE,...")
	clean := fs.String("clean", "", "cleaning values: ID=BEFORE:AFTER,...")

	var photos []models.Photo
	var photoErr error
	addPhoto := func(status string) func(string) error {
		return func(path string) error {
			p, err := service.LoadPhoto(path, status)
			if err != nil {
				photoErr = err
				return err
			}
			photos = append(photos, p)
			return nil
		}
	}
	fs.Func("before", "photo taken before cleaning (repeatable)", addPhoto(models.PhotoBefore))
	fs.Func("after", "photo taken after cleaning (repeatable)", addPhoto(models.PhotoAfter))

	if err := fs.Parse(args); err != nil {
		if photoErr != nil {
			return photoErr
		}
		return err
	}

	if *unit <= 0 {
		return fmt.Errorf("%w: -unit is required", errUsage)
	}

	vars, err := a.svc.Variables(ctx, *kategori)
	if err != nil {
		return err
	}

	inspection, err := applyInspection(vars.InspectionResults, *inspect)
	if err != nil {
		return err
	}

	cleaning, err := applyCleaning(vars.CleaningInputs, *clean)
	if err != nil {
		return err
	}

	rec, err := a.svc.SubmitMaintenance(ctx, service.MaintenanceForm{
		UnitID:     *unit,
		Unit:       &models.Unit{ID: *unit, Kategori: *kategori},
		Inspection: inspection,
		Cleaning:   cleaning,
		Photos:     photos,
	})
	if err != nil {
		return err
	}

	return a.print(map[string]any{
		"submitted":         true,
		"id_unit":           rec.IDUnit,
		"tanggal":           rec.Tanggal,
		"hasil_pemeriksaan": rec.HasilPemeriksaan,
		"hasil_pembersihan": rec.HasilPembersihan,
		"foto":              len(rec.Foto),
	})
}

type historyOutput struct {
	Page       int                       `json:"page"`
	TotalPages int                       `json:"total_pages"`
	Items      []models.MaintenanceEntry `json:"items"`
}

func cmdHistory(ctx context.Context, a *app, args []string) error {
	fs := a.flags("history")
	project := fs.Int("project", 0, "project id")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", service.DefaultPerPage, "items per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *project <= 0 {
		return fmt.Errorf("%w: -project is required", errUsage)
	}

	entries, err := a.svc.History(ctx, *project, *start, *end)
	if err != nil {
		return err
	}

	items, total, err := service.Page(entries, *page, *perPage)
	if err != nil {
		return err
	}

	return a.print(historyOutput{Page: *page, TotalPages: total, Items: items})
}

// applyInspection переопределяет значения по умолчанию: "4=Normal,5=Bising".
func applyInspection(rows []models.InspectionResult, raw string) ([]models.InspectionResult, error) {
	pairs, err := parsePairs(raw)
	if err != nil {
		return nil, err
	}

	out := append([]models.InspectionResult(nil), rows...)
	for id, val := range pairs {
		i := indexOf(len(out), func(i int) bool { return out[i].VariableID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: unknown inspection variable %d", errUsage, id)
		}
		out[i].Nilai = val
	}

	return out, nil
}

// applyCleaning заполняет значения очистки: "3=120:118.5".
func applyCleaning(rows []models.CleaningInput, raw string) ([]models.CleaningInput, error) {
	pairs, err := parsePairs(raw)
	if err != nil {
		return nil, err
	}

	out := append([]models.CleaningInput(nil), rows...)
	for id, val := range pairs {
		i := indexOf(len(out), func(i int) bool { return out[i].VariableID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: unknown cleaning variable %d", errUsage, id)
		}

		before, after, ok := strings.Cut(val, ":")
		if !ok {
			return nil, fmt.Errorf("%w: cleaning value %q must be BEFORE:AFTER", errUsage, val)
		}
		out[i].Sebelum, out[i].Sesudah = before, after
	}

	return out, nil
}

func parsePairs(raw string) (map[int]string, error) {
	out := make(map[int]string)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		k, v, ok := strings.Cut(part, "=")
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if !ok || err != nil {
			return nil, fmt.Errorf("%w: %q must be ID=VALUE", errUsage, part)
		}
		out[id] = strings.TrimSpace(v)
	}

	return out, nil
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}

	return -1
}
