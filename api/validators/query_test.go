package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/padmaajarasooi/padmaaja-backend/pkg/pagination"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/?cursor=abc", nil)
	params, err := ParsePagination(r)
	if err != nil {
		t.Fatalf("parse pagination: %v", err)
	}
	if params.Limit != pagination.DefaultLimit {
		t.Fatalf("expected default limit, got %d", params.Limit)
	}
	if params.Cursor != "abc" {
		t.Fatalf("cursor not forwarded: %q", params.Cursor)
	}
}

func TestParsePaginationRejectsOversizedLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10000", nil)
	if _, err := ParsePagination(r); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestParseQueryDateAcceptsBothFormats(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2026-01-15", nil)
	value, err := ParseQueryDate(r, "from")
	if err != nil {
		t.Fatalf("plain date: %v", err)
	}
	if value == nil || value.Year() != 2026 || value.Month() != 1 || value.Day() != 15 {
		t.Fatalf("wrong date: %v", value)
	}

	r = httptest.NewRequest("GET", "/?from=2026-01-15T10:30:00Z", nil)
	value, err = ParseQueryDate(r, "from")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if value == nil || value.Hour() != 10 {
		t.Fatalf("wrong timestamp: %v", value)
	}

	r = httptest.NewRequest("GET", "/?from=yesterday", nil)
	if _, err := ParseQueryDate(r, "from"); err == nil {
		t.Fatal("expected error for garbage date")
	}
}

func TestParseQueryUUIDAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	value, err := ParseQueryUUID(r, "category_id")
	if err != nil {
		t.Fatalf("absent uuid: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil for absent param, got %v", value)
	}

	r = httptest.NewRequest("GET", "/?category_id=not-a-uuid", nil)
	if _, err := ParseQueryUUID(r, "category_id"); err == nil {
		t.Fatal("expected error for invalid uuid")
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	value, err := ParseQueryBool(r, "active_only", true)
	if err != nil || value != true {
		t.Fatalf("default not honored: %v %v", value, err)
	}

	r = httptest.NewRequest("GET", "/?active_only=false", nil)
	value, err = ParseQueryBool(r, "active_only", true)
	if err != nil || value != false {
		t.Fatalf("explicit false not parsed: %v %v", value, err)
	}
}
