package types

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/encoding"
)

// StringList is an ordered list of labels (donation types, urgent items).
//
// Decoding is lenient: null, absent or non-array values become an empty list,
// non-string and blank elements are dropped. The same rules apply when the
// list is read back from its TEXT column, so every consumer downstream sees a
// well-formed list.
type StringList []string

// ParseStringList normalises raw JSON into a StringList
func ParseStringList(data []byte) StringList {
	if encoding.IsNull(data) {
		return StringList{}
	}

	var raw []interface{}
	if err := encoding.UnmarshalJSON(data, &raw); err != nil {
		return StringList{}
	}

	out := make(StringList, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler and never fails
func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = ParseStringList(data)
	return nil
}

// MarshalJSON always emits an array, never null
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return encoding.MarshalJSON([]string(l))
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		*l = ParseStringList(v)
	case string:
		*l = ParseStringList([]byte(v))
	default:
		*l = StringList{}
	}
	return nil
}

// Value implements driver.Valuer; lists are stored as JSON arrays
func (l StringList) Value() (driver.Value, error) {
	data, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// DonationPoint is a physical location accepting donations
type DonationPoint struct {
	ID            int64      `json:"id"`
	Name          string     `json:"nome"`
	Address       string     `json:"endereco"`
	City          string     `json:"cidade"`
	DonationTypes StringList `json:"tipos_doacao"`
	UrgentItems   StringList `json:"itens_urgentes"`
	OpeningHours  string     `json:"horario_funcionamento"`
	Contact       string     `json:"contato"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are set
func (p *DonationPoint) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// GeocodeQuery builds the free-form address sent to the geocoder
func (p *DonationPoint) GeocodeQuery() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Address, p.City, "Brasil"} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// PointInput is the create/update request body for a donation point
type PointInput struct {
	Name          string     `json:"nome" binding:"required,notblank,max=200"`
	Address       string     `json:"endereco" binding:"max=300"`
	City          string     `json:"cidade" binding:"required,notblank,max=120"`
	DonationTypes StringList `json:"tipos_doacao"`
	UrgentItems   StringList `json:"itens_urgentes"`
	OpeningHours  string     `json:"horario_funcionamento" binding:"max=200"`
	Contact       string     `json:"contato" binding:"max=200"`
	Latitude      *float64   `json:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64   `json:"longitude" binding:"omitempty,longitude"`
}

// Apply copies the input onto a record, leaving id and timestamps untouched
func (in PointInput) Apply(p *DonationPoint) {
	p.Name = strings.TrimSpace(in.Name)
	p.Address = strings.TrimSpace(in.Address)
	p.City = strings.TrimSpace(in.City)
	p.DonationTypes = nonNil(in.DonationTypes)
	p.UrgentItems = nonNil(in.UrgentItems)
	p.OpeningHours = strings.TrimSpace(in.OpeningHours)
	p.Contact = strings.TrimSpace(in.Contact)
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
}

func nonNil(l StringList) StringList {
	if l == nil {
		return StringList{}
	}
	return l
}
