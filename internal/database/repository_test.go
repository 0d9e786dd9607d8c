package database

import (
	"context"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(v float64) *float64 { return &v }

func samplePoint(name, city string) *types.DonationPoint {
	return &types.DonationPoint{
		Name:          name,
		Address:       "Rua das Flores, 10",
		City:          city,
		DonationTypes: types.StringList{"Alimento", "Roupas"},
		UrgentItems:   types.StringList{"Arroz"},
		OpeningHours:  "08:00-18:00",
		Contact:       "(11) 99999-0000",
	}
}

func TestNewDBRejectsBadConfig(t *testing.T) {
	_, err := NewDB(Config{Driver: DriverPostgres})
	assert.ErrorContains(t, err, "DSN is required")

	_, err = NewDB(Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.migrate())

	stats := db.GetPoolStats()
	assert.Equal(t, DriverSQLite, stats["driver"])
	assert.Equal(t, 25, stats["max_open_connections"])
	assert.NoError(t, db.Ping(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t,
		"UPDATE t SET a = $1, b = $2 WHERE id = $3",
		pg.Rebind("UPDATE t SET a = ?, b = ? WHERE id = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? FROM t", lite.Rebind("SELECT ? FROM t"))
}

func TestCreateAndGetPoint(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	p := samplePoint("Centro Comunitário", "São Paulo")
	p.Latitude = floatPtr(-23.55)
	p.Longitude = floatPtr(-46.63)
	require.NoError(t, repo.CreatePoint(ctx, p))
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.GetPoint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Address, got.Address)
	assert.Equal(t, p.City, got.City)
	assert.Equal(t, types.StringList{"Alimento", "Roupas"}, got.DonationTypes)
	assert.Equal(t, types.StringList{"Arroz"}, got.UrgentItems)
	assert.Equal(t, p.OpeningHours, got.OpeningHours)
	assert.Equal(t, p.Contact, got.Contact)
	require.True(t, got.HasCoordinates())
	assert.InDelta(t, -23.55, *got.Latitude, 1e-9)
	assert.InDelta(t, -46.63, *got.Longitude, 1e-9)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)
}

func TestGetPointNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	_, err := repo.GetPoint(context.Background(), 999)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListPoints(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	empty, err := repo.ListPoints(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, city := range []string{"Recife", "Olinda", "recife"} {
		require.NoError(t, repo.CreatePoint(ctx, samplePoint("Ponto "+city, city)))
	}

	all, err := repo.ListPoints(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)
	assert.Less(t, all[1].ID, all[2].ID)
	assert.False(t, all[0].HasCoordinates())

	byCity, err := repo.ListPointsByCity(ctx, "RECIFE")
	require.NoError(t, err)
	require.Len(t, byCity, 2)
	assert.Equal(t, "Recife", byCity[0].City)
	assert.Equal(t, "recife", byCity[1].City)

	none, err := repo.ListPointsByCity(ctx, "Manaus")
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := repo.CountPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMalformedListColumnsReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := db.Exec(`INSERT INTO pontos_doacao (nome, cidade, tipos_doacao, itens_urgentes, created_at, updated_at)
		VALUES ('Legado', 'Natal', 'not json', '{"a":1}', ?, ?)`, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO pontos_doacao (nome, cidade, tipos_doacao, itens_urgentes, created_at, updated_at)
		VALUES ('Misto', 'Natal', '["Higiene", 3, null, ""]', 'null', ?, ?)`, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	points, err := repo.ListPoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, types.StringList{}, points[0].DonationTypes)
	assert.Equal(t, types.StringList{}, points[0].UrgentItems)
	assert.Equal(t, types.StringList{"Higiene"}, points[1].DonationTypes)
	assert.Equal(t, types.StringList{}, points[1].UrgentItems)
}

func TestUpdatePoint(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	p := samplePoint("Original", "Salvador")
	require.NoError(t, repo.CreatePoint(ctx, p))

	p.Name = "Renomeado"
	p.UrgentItems = types.StringList{"Água", "Leite"}
	require.NoError(t, repo.UpdatePoint(ctx, p))

	got, err := repo.GetPoint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renomeado", got.Name)
	assert.Equal(t, types.StringList{"Água", "Leite"}, got.UrgentItems)

	missing := samplePoint("Fantasma", "Salvador")
	missing.ID = 12345
	assert.ErrorIs(t, repo.UpdatePoint(ctx, missing), errors.ErrNotFound)
}

func TestDeletePoint(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	p := samplePoint("Temporário", "Belém")
	require.NoError(t, repo.CreatePoint(ctx, p))

	require.NoError(t, repo.DeletePoint(ctx, p.ID))
	assert.ErrorIs(t, repo.DeletePoint(ctx, p.ID), errors.ErrNotFound)

	_, err := repo.GetPoint(ctx, p.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCoordinatesBackfillQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	located := samplePoint("Com coordenadas", "Curitiba")
	located.Latitude = floatPtr(-25.43)
	located.Longitude = floatPtr(-49.27)
	require.NoError(t, repo.CreatePoint(ctx, located))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreatePoint(ctx, samplePoint("Sem coordenadas", "Curitiba")))
	}

	missing, err := repo.ListPointsMissingCoordinates(ctx, 2)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	for _, p := range missing {
		assert.False(t, p.HasCoordinates())
	}

	require.NoError(t, repo.UpdateCoordinates(ctx, missing[0].ID, -25.4, -49.2))
	got, err := repo.GetPoint(ctx, missing[0].ID)
	require.NoError(t, err)
	require.True(t, got.HasCoordinates())
	assert.InDelta(t, -25.4, *got.Latitude, 1e-9)

	remaining, err := repo.ListPointsMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	assert.ErrorIs(t, repo.UpdateCoordinates(ctx, 9999, 0, 0), errors.ErrNotFound)
}
