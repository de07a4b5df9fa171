package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("disk full")
	err := Wrap(CodePersistence, cause, "insert order header")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodePersistence {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := New(CodeOutOfStock, "variant sold out")
	outer := fmt.Errorf("add to cart: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeOutOfStock {
		t.Fatalf("expected out-of-stock code, got %v", typed)
	}
	if !IsCode(outer, CodeOutOfStock) {
		t.Fatal("IsCode should match through wrapping")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestMetadataStatuses(t *testing.T) {
	t.Parallel()

	if MetadataFor(CodeOutOfStock).HTTPStatus != http.StatusConflict {
		t.Fatal("out of stock should map to 409")
	}
	if MetadataFor(CodeInfeasiblePackage).HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatal("infeasible package should map to 422")
	}
}

func TestDumpExtractsPGFields(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "42703", ColumnName: "condition", TableName: "order_items"}
	err := Wrap(CodePersistence, pgErr, "insert line items")

	d := Dump(err)
	if d.Postgres == nil {
		t.Fatalf("expected postgres detail in dump, got %+v", d)
	}
	if d.Postgres.Code != "42703" || d.Postgres.Column != "condition" {
		t.Fatalf("expected pg fields in dump, got %+v", d.Postgres)
	}
	if d.Code != CodePersistence {
		t.Fatalf("expected coded error in dump, got %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected unwrap chain, got %+v", d.Chain)
	}
}

func TestDumpPlainError(t *testing.T) {
	t.Parallel()

	d := Dump(New(CodeValidation, "qty must be positive"))
	if d.Postgres != nil {
		t.Fatalf("expected no postgres detail, got %+v", d.Postgres)
	}
	if d.Message == "" || d.Code != CodeValidation {
		t.Fatalf("unexpected dump: %+v", d)
	}
}
