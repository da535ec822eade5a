package mockapi

import (
	"github.com/pribylovaa/simpa-client/internal/models"
)

// Сид-пользователи: вход разрешён только роли teknisi, admin нужен для
// проверки политики ролей на стороне клиента.
var seedUsers = []struct {
	models.User
	password string
}{
	{User: models.User{ID: 1, Username: "teknisi1", Nama: "Budi Santoso", Role: "teknisi"}, password: "teknisi123"},
	{User: models.User{ID: 2, Username: "teknisi2", Nama: "Siti Rahma", Role: "teknisi"}, password: "teknisi123"},
	{User: models.User{ID: 3, Username: "admin", Nama: "Administrator", Role: "admin"}, password: "admin123"},
}

var seedHistory = []models.MaintenanceRecord{
	{IDUnit: 1, Tanggal: "2025-01-10", NamaPemeriksaan: models.RoutineInspection, Kategori: "indoor"},
	{IDUnit: 2, Tanggal: "2025-02-15", NamaPemeriksaan: models.RoutineInspection, Kategori: "outdoor"},
	{IDUnit: 3, Tanggal: "2025-03-20", NamaPemeriksaan: models.RoutineInspection, Kategori: "indoor"},
	{IDUnit: 5, Tanggal: "2025-03-21", NamaPemeriksaan: models.RoutineInspection, Kategori: "indoor"},
}

// dataset — неизменяемые справочники. Мутабельные записи живут в Server.
type dataset struct {
	projects   []models.Project
	rooms      map[int][]models.Room // buildingID -> rooms
	units      map[int][]models.Unit // roomID -> units
	inspection map[string][]models.InspectionVariable
	cleaning   map[string][]models.CleaningVariable
}

func seedData() *dataset {
	return &dataset{
		projects: []models.Project{
			{ID: 1, Nama: "Kampus FTI", Gedung: []models.Building{
				{ID: 1, Nama: "Gedung A"},
				{ID: 2, Nama: "Gedung B"},
			}},
			{ID: 2, Nama: "RS Suralaya", Gedung: []models.Building{
				{ID: 3, Nama: "Gedung Utama"},
			}},
		},
		rooms: map[int][]models.Room{
			1: {{ID: 1, Nama: "Ruang 101"}, {ID: 2, Nama: "Ruang 102"}},
			2: {{ID: 3, Nama: "Lab Komputer"}},
			3: {{ID: 4, Nama: "ICU"}},
		},
		units: map[int][]models.Unit{
			1: {
				{ID: 1, Nama: "AC-101-IN", Kategori: "indoor", NomorSeri: "SN-0001", DetailModel: &models.DetailModel{NamaModel: "Daikin FTKC25"}},
				{ID: 2, Nama: "AC-101-OUT", Kategori: "outdoor", NomorSeri: "SN-0002", DetailModel: &models.DetailModel{NamaModel: "Daikin RKC25"}},
			},
			2: {
				{ID: 3, Nama: "AC-102-IN", Kategori: "indoor", NomorSeri: "SN-0003"},
			},
			3: {
				{ID: 4, Nama: "AC-LAB-1", Kategori: "indoor", NomorSeri: "SN-0004", DetailModel: &models.DetailModel{NamaModel: "Panasonic CS-PN9"}},
			},
			4: {
				{ID: 5, Nama: "AC-ICU-1", Kategori: "indoor", NomorSeri: "SN-0005", DetailModel: &models.DetailModel{NamaModel: "LG S10EV"}},
			},
		},
		inspection: map[string][]models.InspectionVariable{
			"indoor": {
				{ID: 1, Nama: "Suhu udara keluar"},
				{ID: 2, Nama: "Kondisi filter"},
				{ID: 3, Nama: "Kebocoran air"},
			},
			"outdoor": {
				{ID: 4, Nama: "Tekanan freon"},
				{ID: 5, Nama: "Kondisi kipas"},
			},
		},
		cleaning: map[string][]models.CleaningVariable{
			"indoor": {
				{ID: 1, Nama: "Arus listrik", Satuan: "A"},
				{ID: 2, Nama: "Suhu evaporator", Satuan: "°C"},
			},
			"outdoor": {
				{ID: 3, Nama: "Tekanan refrigeran", Satuan: "psi"},
			},
		},
	}
}

func (d *dataset) project(id int) (models.Project, bool) {
	for _, p := range d.projects {
		if p.ID == id {
			return p, true
		}
	}

	return models.Project{}, false
}

// unitByID возвращает юнит и id проекта, к которому он относится.
func (d *dataset) unitByID(id int) (models.Unit, int, bool) {
	for _, p := range d.projects {
		for _, b := range p.Gedung {
			for _, r := range d.rooms[b.ID] {
				for _, u := range d.units[r.ID] {
					if u.ID == id {
						return u, p.ID, true
					}
				}
			}
		}
	}

	return models.Unit{}, 0, false
}
