package database

import (
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
)

// Prepared statement names
const (
	stmtListPoints             = "list_points"
	stmtListPointsByCity       = "list_points_by_city"
	stmtGetPoint               = "get_point"
	stmtInsertPoint            = "insert_point"
	stmtUpdatePoint            = "update_point"
	stmtDeletePoint            = "delete_point"
	stmtListMissingCoordinates = "list_missing_coordinates"
	stmtUpdateCoordinates      = "update_coordinates"
	stmtCountPoints            = "count_points"
)

const pointColumns = `id, nome, endereco, cidade, tipos_doacao, itens_urgentes,
	horario_funcionamento, contato, latitude, longitude, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoint(row rowScanner) (types.DonationPoint, error) {
	var p types.DonationPoint
	err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.City, &p.DonationTypes, &p.UrgentItems,
		&p.OpeningHours, &p.Contact, &p.Latitude, &p.Longitude,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// BackfillResult summarises one coordinate backfill run
type BackfillResult struct {
	Scanned  int `json:"scanned"`
	Updated  int `json:"updated"`
	NotFound int `json:"not_found"`
	Failed   int `json:"failed"`
}
