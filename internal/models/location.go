package models

// Project - проект (объект обслуживания) с вложенным списком зданий.
type Project struct {
	ID     int        `json:"id"`
	Nama   string     `json:"nama"`
	Gedung []Building `json:"gedung,omitempty"`
}

type Building struct {
	ID   int    `json:"id"`
	Nama string `json:"nama"`
}

type Room struct {
	ID   int    `json:"id"`
	Nama string `json:"nama"`
}

// Unit - кондиционер в помещении. Kategori определяет набор переменных
// осмотра и очистки (indoor/outdoor).
type Unit struct {
	ID          int          `json:"id"`
	Nama        string       `json:"nama"`
	Kategori    string       `json:"kategori"`
	NomorSeri   string       `json:"nomor_seri,omitempty"`
	DetailModel *DetailModel `json:"detailModel,omitempty"`
}

type DetailModel struct {
	NamaModel string `json:"nama_model"`
}

// Label - строка для выбора юнита: "<nama> - <model|N/A> - <serial> (<kategori>)".
func (u Unit) Label() string {
	model := "N/A"
	if u.DetailModel != nil && u.DetailModel.NamaModel != "" {
		model = u.DetailModel.NamaModel
	}

	return u.Nama + " - " + model + " - " + u.NomorSeri + " (" + u.Kategori + ")"
}
