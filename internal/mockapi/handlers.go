package mockapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/simpa-client/internal/models"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
	"github.com/pribylovaa/simpa-client/internal/pkg/redact"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	lg := log.From(r.Context())

	s.mu.RLock()
	u, ok := s.users[in.Username]
	s.mu.RUnlock()

	// Одинаковый ответ для неизвестного пользователя и неверного пароля.
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.Password)) != nil {
		lg.Warn("login_failed",
			slog.String("username", in.Username),
			slog.String("password", redact.Password()),
		)
		writeError(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}

	access, err := s.issueAccessToken(u)
	if err != nil {
		lg.Error("access_token_sign_failed", slog.String("err", err.Error()))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	user := u.User
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Success:      true,
		AccessToken:  access,
		RefreshToken: s.issueRefreshToken(u.Username),
		User:         &user,
	})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}

	u, ok := s.lookupRefresh(in.RefreshToken)
	if !ok {
		log.From(r.Context()).Warn("refresh_rejected",
			slog.String("refresh_token", redact.Token(in.RefreshToken)),
		)
		writeError(w, r, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	access, err := s.issueAccessToken(u)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: access})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.projects)
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	projectID, ok1 := pathInt(r, "projectID")
	buildingID, ok2 := pathInt(r, "buildingID")
	if !ok1 || !ok2 {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	p, ok := s.data.project(projectID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "project not found")
		return
	}

	for _, b := range p.Gedung {
		if b.ID == buildingID {
			writeJSON(w, http.StatusOK, nonNil(s.data.rooms[buildingID]))
			return
		}
	}

	writeError(w, r, http.StatusNotFound, "building not found")
}

func (s *Server) listUnits(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathInt(r, "roomID")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(s.data.units[roomID]))
}

func (s *Server) listInspectionVariables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.data.inspection[chi.URLParam(r, "kategori")]))
}

func (s *Server) listCleaningVariables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.data.cleaning[chi.URLParam(r, "kategori")]))
}

func (s *Server) createMaintenance(w http.ResponseWriter, r *http.Request) {
	var in models.MaintenanceRecord
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := time.Parse(time.DateOnly, in.Tanggal); err != nil {
		writeError(w, r, http.StatusBadRequest, "tanggal must be YYYY-MM-DD")
		return
	}

	if len(in.HasilPemeriksaan) == 0 || len(in.Foto) < 2 {
		writeError(w, r, http.StatusBadRequest, "incomplete maintenance record")
		return
	}

	id, err := s.saveRecord(in)
	if err != nil {
		if errors.Is(err, errUnknownUnit) {
			writeError(w, r, http.StatusNotFound, "unit not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	claims, _ := authUser(r.Context())
	log.From(r.Context()).Info("maintenance_created",
		slog.Int("id", id),
		slog.Int("id_unit", in.IDUnit),
		slog.String("by", claims.Username),
	)

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
}

// listMaintenance отдаёт историю проекта; фильтр по датам применяется,
// только если заданы обе границы (включительно).
func (s *Server) listMaintenance(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathInt(r, "projectID")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	if _, ok := s.data.project(projectID); !ok {
		writeError(w, r, http.StatusNotFound, "project not found")
		return
	}

	start, end := r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate")
	filter := start != "" && end != ""

	s.mu.RLock()
	out := make([]models.MaintenanceEntry, 0, len(s.records))
	for _, row := range s.records {
		if row.projectID != projectID {
			continue
		}
		// YYYY-MM-DD сравнивается лексикографически.
		if filter && (row.entry.Tanggal < start || row.entry.Tanggal > end) {
			continue
		}
		out = append(out, row.entry)
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, out)
}

func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		return 0, false
	}

	return v, true
}

// nonNil — пустой список сериализуется как [], а не null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
