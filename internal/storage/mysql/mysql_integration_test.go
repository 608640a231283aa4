//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/domain"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

func pstr(s string) *string { return &s }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startMySQL runs an isolated MySQL; Docker picks a free host port.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotel",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hotel?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	pool.MaxWait = 2 * time.Minute
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepos_MySQL(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()

	hotels := mysqlrepo.NewHotelRepo(db)
	reservations := mysqlrepo.NewReservationRepo(db)
	notifications := mysqlrepo.NewNotificationRepo(db)

	t.Run("hotels", func(t *testing.T) {
		h := domain.Hotel{
			ID: 1, Name: "Riad Atlas", City: "Marrakech", Category: "4*",
			Images: []string{"a.jpg"},
			RoomTypes: []domain.RoomType{
				{ID: 1, Label: "Double", Available: 4, Prices: map[string]float64{"standard": 100, "high": 150}},
				{ID: 2, Label: "Suite", Available: 1, Prices: map[string]float64{"standard": 250}},
			},
		}
		require.NoError(t, hotels.UpsertHotel(ctx, h))
		require.NoError(t, hotels.UpsertHotel(ctx, domain.Hotel{ID: 2, Name: "Sea Breeze", City: "Agadir"}))

		got, err := hotels.GetHotel(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, h, got)

		// re-import replaces room types
		h.RoomTypes = h.RoomTypes[:1]
		require.NoError(t, hotels.UpsertHotel(ctx, h))
		got, _ = hotels.GetHotel(ctx, 1)
		assert.Len(t, got.RoomTypes, 1)

		city := "MARRAKECH"
		list, err := hotels.ListHotels(ctx, domain.HotelFilter{City: &city})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 150.0, list[0].RoomTypes[0].Prices["high"])

		_, err = hotels.GetHotel(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("reservations", func(t *testing.T) {
		now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
		r, err := reservations.Create(ctx, domain.Reservation{
			ReferenceNumber: "RES-00000001",
			UserID:          7,
			HotelID:         1,
			Rooms:           []domain.RoomLine{{RoomTypeID: 1, Quantity: 2}},
			CheckIn:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:        time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
			SpecialRequests: pstr("late arrival"),
			BookingSource:   "web",
			Status:          domain.StatusPendingAdminValidation,
			TotalAmount:     600,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		require.NoError(t, err)
		require.NotZero(t, r.ID)

		got, err := reservations.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r, got)

		updated, err := reservations.UpdateStatus(ctx, r.ID, domain.StatusPendingAdminValidation, domain.StatusCancelledByClient, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelledByClient, updated.Status)

		_, err = reservations.UpdateStatus(ctx, r.ID, domain.StatusPendingAdminValidation, domain.StatusConfirmed, now)
		assert.ErrorIs(t, err, domain.ErrInvalidState)

		dup := r
		dup.UserID = 8
		_, err = reservations.Create(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrDuplicateReference)

		list, err := reservations.ListByUser(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = reservations.GetByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("notifications", func(t *testing.T) {
		n, err := notifications.Create(ctx, domain.Notification{
			UserID: 7, Message: "received", Category: domain.CategoryReservationPending,
			Link: pstr("/reservations/1"), CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		c, err := notifications.CountUnread(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 1, c)

		_, err = notifications.MarkRead(ctx, n.ID, 8)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		for i := 0; i < 2; i++ {
			got, err := notifications.MarkRead(ctx, n.ID, 7)
			require.NoError(t, err)
			assert.True(t, got.Read)
		}
		c, _ = notifications.CountUnread(ctx, 7)
		assert.Equal(t, 0, c)

		list, err := notifications.ListByUser(ctx, 7)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "/reservations/1", *list[0].Link)
	})
}
