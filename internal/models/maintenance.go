package models

const (
	// DefaultInspectionValue - значение результата осмотра по умолчанию.
	DefaultInspectionValue = "Normal"
	// DefaultKategori - категория, если у юнита она не указана.
	DefaultKategori = "indoor"
	// RoutineInspection - название записи, которое отправляет клиент.
	RoutineInspection = "Pemeriksaan Rutin"

	PhotoBefore = "sebelum"
	PhotoAfter  = "sesudah"
)

// InspectionVariable - переменная осмотра ("pemeriksaan").
type InspectionVariable struct {
	ID   int    `json:"id"`
	Nama string `json:"nama"`
}

// CleaningVariable - переменная очистки ("pembersihan") с единицей измерения.
type CleaningVariable struct {
	ID     int    `json:"id"`
	Nama   string `json:"nama"`
	Satuan string `json:"satuan,omitempty"`
}

type InspectionResult struct {
	VariableID int    `json:"id_variable_pemeriksaan"`
	Nilai      string `json:"nilai"`
}

// CleaningInput - значения очистки в том виде, как их ввёл техник.
type CleaningInput struct {
	VariableID int    `json:"id_variable_pembersihan"`
	Sebelum    string `json:"sebelum"`
	Sesudah    string `json:"sesudah"`
}

// CleaningResult - значения очистки в отправляемой записи.
type CleaningResult struct {
	VariableID int     `json:"id_variable_pembersihan"`
	Sebelum    float64 `json:"sebelum"`
	Sesudah    float64 `json:"sesudah"`
}

// Photo - фото в base64; Status: sebelum | sesudah.
type Photo struct {
	Foto   string `json:"foto"`
	Status string `json:"status"`
}

// MaintenanceRecord - тело POST /maintenance.
type MaintenanceRecord struct {
	IDUnit           int                `json:"id_unit"`
	Tanggal          string             `json:"tanggal"` // YYYY-MM-DD
	NamaPemeriksaan  string             `json:"nama_pemeriksaan"`
	Kategori         string             `json:"kategori"`
	HasilPemeriksaan []InspectionResult `json:"hasil_pemeriksaan"`
	HasilPembersihan []CleaningResult   `json:"hasil_pembersihan"`
	Foto             []Photo            `json:"foto"`
}

// MaintenanceEntry - строка истории обслуживания.
type MaintenanceEntry struct {
	ID              int    `json:"id"`
	Tanggal         string `json:"tanggal"`
	NamaPemeriksaan string `json:"nama_pemeriksaan,omitempty"`
	Kategori        string `json:"kategori,omitempty"`
	Unit            *Unit  `json:"unit,omitempty"`
}
