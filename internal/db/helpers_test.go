package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHasTableAndColumn(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("ticket_sales").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("ticket_sales"))
	mock.ExpectQuery("information_schema\\.tables").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("ticket_sales", "trip_id").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("trip_id"))

	ctx := context.Background()
	if !HasTable(ctx, conn, "ticket_sales") {
		t.Fatalf("expected ticket_sales to exist")
	}
	if HasTable(ctx, conn, "missing") {
		t.Fatalf("expected missing table to be absent")
	}
	if !HasColumn(ctx, conn, "ticket_sales", "trip_id") {
		t.Fatalf("expected trip_id column")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	cases := map[int]string{0: "", 1: "?", 3: "?,?,?"}
	for n, want := range cases {
		if got := Placeholders(n); got != want {
			t.Fatalf("Placeholders(%d) = %q, want %q", n, got, want)
		}
	}
	if got := Int64Args([]int64{4, 5}); len(got) != 2 || got[1] != int64(5) {
		t.Fatalf("unexpected args %v", got)
	}
}
