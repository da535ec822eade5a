// mockapi — локальный фейковый SIMPA-бэкенд для разработки и тестов.
//
// Реализует эндпойнты, которые использует клиент: вход и обновление
// токена, справочники проект/здание/помещение/юнит, переменные осмотра и
// очистки, приём и историю записей обслуживания. Данные живут в памяти.
//
// Access-токены — HS256 JWT с коротким TTL; refresh-токены непрозрачные и
// не ротируются, как в боевом API.
package mockapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/simpa-client/internal/metrics"
	"github.com/pribylovaa/simpa-client/internal/models"
)

// Options — параметры фейкового бэкенда.
type Options struct {
	Logger     *slog.Logger
	Metrics    *metrics.Server // nil — незарегистрированные коллекторы
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RequestTimeout — дедлайн обработки запроса (0 — без дедлайна).
	RequestTimeout time.Duration

	// BcryptCost — стоимость хэширования паролей (0 — bcrypt.DefaultCost).
	BcryptCost int
	// Now — источник времени для выпуска и проверки токенов (nil — time.Now).
	Now func() time.Time
}

type user struct {
	models.User
	passwordHash []byte
}

type maintenanceRow struct {
	projectID int
	entry     models.MaintenanceEntry
	record    models.MaintenanceRecord
}

// Server — состояние фейкового бэкенда.
type Server struct {
	log        *slog.Logger
	metrics    *metrics.Server
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	reqTimeout time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	users   map[string]*user
	refresh map[string]refreshSession
	data    *dataset
	records []maintenanceRow
	nextID  int
}

// New создаёт бэкенд с сид-данными и пользователями.
func New(opts Options) (*Server, error) {
	const op = "mockapi/New"

	if opts.JWTSecret == "" {
		return nil, fmt.Errorf("%s: empty jwt secret", op)
	}

	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be positive", op)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.NewServer(nil)
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	s := &Server{
		log:        opts.Logger,
		metrics:    opts.Metrics,
		secret:     []byte(opts.JWTSecret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		reqTimeout: opts.RequestTimeout,
		now:        opts.Now,
		users:      make(map[string]*user),
		refresh:    make(map[string]refreshSession),
		data:       seedData(),
	}

	for _, su := range seedUsers {
		if err := s.AddUser(su.User, su.password, opts.BcryptCost); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, rec := range seedHistory {
		if _, err := s.saveRecord(rec); err != nil {
			return nil, fmt.Errorf("%s: seed history: %w", op, err)
		}
	}

	return s, nil
}

// AddUser регистрирует пользователя (или заменяет существующего с тем же username).
func (s *Server) AddUser(u models.User, password string, cost int) error {
	const op = "mockapi/AddUser"

	if u.Username == "" || password == "" {
		return fmt.Errorf("%s: username and password are required", op)
	}

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = len(s.users) + 1
	}
	s.users[u.Username] = &user{User: u, passwordHash: hash}

	return nil
}

// RevokeRefreshTokens отзывает все выданные refresh-токены.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	s.refresh = make(map[string]refreshSession)
	s.mu.Unlock()
}

// IssueAccessToken выпускает access-токен для пользователя без входа.
func (s *Server) IssueAccessToken(username string) (string, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("mockapi/IssueAccessToken: unknown user %q", username)
	}

	return s.issueAccessToken(u)
}

// Records возвращает копию принятых записей обслуживания.
func (s *Server) Records() []models.MaintenanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MaintenanceRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.record)
	}

	return out
}

// Handler собирает chi-роутер с мидлварами и маршрутами.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Мидлвары (внешний -> внутренний).
	r.Use(
		Recover(),
		RequestID(),
		Logging(s.log),
		Metrics(s.metrics),
		Timeout(s.reqTimeout),
	)

	r.Post("/auth/login", s.login)
	r.Post("/auth/refresh", s.refreshToken)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireAuth())

		r.Get("/proyek", s.listProjects)
		r.Get("/proyek/{projectID}/gedung/{buildingID}/ruangan", s.listRooms)
		r.Get("/unit/ruangan/{roomID}", s.listUnits)
		r.Get("/variable-pemeriksaan/kategori/{kategori}", s.listInspectionVariables)
		r.Get("/variable-pembersihan/kategori/{kategori}", s.listCleaningVariables)
		r.Post("/maintenance", s.createMaintenance)
		r.Get("/maintenance/project/{projectID}", s.listMaintenance)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})

	return r
}

var errUnknownUnit = errors.New("unknown unit")

// saveRecord сохраняет запись и возвращает её id.
func (s *Server) saveRecord(rec models.MaintenanceRecord) (int, error) {
	unit, projectID, ok := s.data.unitByID(rec.IDUnit)
	if !ok {
		return 0, errUnknownUnit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	u := unit
	s.records = append(s.records, maintenanceRow{
		projectID: projectID,
		record:    rec,
		entry: models.MaintenanceEntry{
			ID:              s.nextID,
			Tanggal:         rec.Tanggal,
			NamaPemeriksaan: rec.NamaPemeriksaan,
			Kategori:        rec.Kategori,
			Unit:            &u,
		},
	})

	return s.nextID, nil
}
