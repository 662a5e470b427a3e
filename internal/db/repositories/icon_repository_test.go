package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
)

var iconCols = []string{"slug", "type", "data"}

func newIconRepo(t *testing.T) (*IconRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewIconRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestIconGet_Found(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT slug, type, data FROM icons WHERE slug = $1")).
		WithArgs("rocket").
		WillReturnRows(sqlmock.NewRows(iconCols).AddRow("rocket", "svg+xml", "PHN2Zz4="))

	icon, err := repo.Get(context.Background(), "rocket")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if icon == nil || icon.Slug != "rocket" || icon.Type != "svg+xml" || icon.Data != "PHN2Zz4=" {
		t.Errorf("Get = %+v", icon)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIconGet_NotFound(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectQuery("SELECT slug, type, data FROM icons").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(iconCols))

	icon, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if icon != nil {
		t.Errorf("Get = %+v, want nil", icon)
	}
}

func TestIconGet_DBError(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectQuery("SELECT slug, type, data FROM icons").
		WillReturnError(errors.New("connection refused"))

	if _, err := repo.Get(context.Background(), "rocket"); err == nil {
		t.Fatal("expected error")
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestIconList_InsertionOrder(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT slug, type, data FROM icons ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(iconCols).
			AddRow("zeta", "png", "iVBO").
			AddRow("alpha", "svg+xml", "PHN2Zz4="))

	icons, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(icons) != 2 || icons[0].Slug != "zeta" || icons[1].Slug != "alpha" {
		t.Errorf("List = %+v", icons)
	}
}

func TestIconList_Empty(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectQuery("SELECT slug, type, data FROM icons").
		WillReturnRows(sqlmock.NewRows(iconCols))

	icons, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if icons == nil || len(icons) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", icons)
	}
}

// ---------------------------------------------------------------------------
// Insert
// ---------------------------------------------------------------------------

func TestIconInsert_Success(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO icons (slug, type, data) VALUES ($1, $2, $3)")).
		WithArgs("rocket", "svg+xml", "PHN2Zz4=").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), models.Icon{Slug: "rocket", Type: "svg+xml", Data: "PHN2Zz4="})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIconInsert_UniqueViolation(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectExec("INSERT INTO icons").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "icons_slug_key"})

	err := repo.Insert(context.Background(), models.Icon{Slug: "rocket", Type: "svg+xml", Data: "x"})
	if !errors.Is(err, iconstore.ErrSlugTaken) {
		t.Errorf("Insert error = %v, want ErrSlugTaken", err)
	}
}

func TestIconInsert_OtherError(t *testing.T) {
	repo, mock := newIconRepo(t)
	mock.ExpectExec("INSERT INTO icons").
		WillReturnError(&pq.Error{Code: "23502"})

	err := repo.Insert(context.Background(), models.Icon{Slug: "rocket", Type: "svg+xml", Data: "x"})
	if err == nil || errors.Is(err, iconstore.ErrSlugTaken) {
		t.Errorf("Insert error = %v, want wrapped non-conflict error", err)
	}
}
