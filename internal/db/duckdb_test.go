package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func calculatorSymbols() []Symbol {
	return []Symbol{
		{CanonicalReference: "@example/calculator!", Route: "/package/fixtures:calculator/", Title: "@example/calculator", Kind: "EntryPoint"},
		{CanonicalReference: "@example/calculator!add:function(1)", Route: "/package/fixtures:calculator/add", Title: "add", Kind: "Function"},
		{CanonicalReference: "@example/calculator!Calculator:class", Route: "/package/fixtures:calculator/Calculator", Title: "Calculator", Kind: "Class"},
		{CanonicalReference: "@example/calculator!Calculator#add:member(1)", Route: "/package/fixtures:calculator/Calculator.add", Title: "Calculator.add", Kind: "Method"},
		{CanonicalReference: "@example/calculator!Options#format:member(1)", Route: "/package/fixtures:calculator/Options.format", Title: "Options.format", Kind: "MethodSignature"},
		{CanonicalReference: "@example/calculator!Color.Red:member", Route: "/package/fixtures:calculator/Color#Red", Title: "Color.Red", Kind: "EnumMember"},
	}
}

func TestRecordAndGetPackage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	pkg := Package{ID: "fixtures:calculator", Name: "@example/calculator", Version: "1.0.0", ContentHash: "abc", Pages: 19}
	if err := db.RecordPackage(ctx, pkg, calculatorSymbols()); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetPackage(ctx, "fixtures:calculator")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected package")
	}
	if got.Name != "@example/calculator" || got.Version != "1.0.0" || got.ContentHash != "abc" || got.Pages != 19 {
		t.Errorf("unexpected package: %+v", got)
	}
	if got.ProcessedAt.IsZero() {
		t.Error("processed_at not set")
	}

	n, err := db.CountSymbols(ctx, "fixtures:calculator")
	if err != nil {
		t.Fatal(err)
	}
	if n != len(calculatorSymbols()) {
		t.Errorf("symbols = %d, want %d", n, len(calculatorSymbols()))
	}

	missing, err := db.GetPackage(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing package, got %+v", missing)
	}
}

func TestRecordPackage_ReplacesSymbols(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	pkg := Package{ID: "p", Name: "p", Version: "1", ContentHash: "h1", Pages: 2}
	if err := db.RecordPackage(ctx, pkg, calculatorSymbols()); err != nil {
		t.Fatal(err)
	}
	pkg.Version = "2"
	pkg.ContentHash = "h2"
	if err := db.RecordPackage(ctx, pkg, calculatorSymbols()[:2]); err != nil {
		t.Fatal(err)
	}

	got, _ := db.GetPackage(ctx, "p")
	if got.Version != "2" || got.ContentHash != "h2" {
		t.Errorf("package not updated: %+v", got)
	}
	n, _ := db.CountSymbols(ctx, "p")
	if n != 2 {
		t.Errorf("symbols = %d, want 2", n)
	}
}

func TestListPackages_NewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		pkg := Package{ID: id, Name: id, Version: "1", ContentHash: id, ProcessedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := db.RecordPackage(ctx, pkg, nil); err != nil {
			t.Fatal(err)
		}
	}
	// Re-recording moves a package to the front.
	if err := db.RecordPackage(ctx, Package{ID: "a", Name: "a", Version: "1", ContentHash: "a", ProcessedAt: base.Add(time.Hour)}, nil); err != nil {
		t.Fatal(err)
	}

	pkgs, err := db.ListPackages(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 3 {
		t.Fatalf("got %d packages, want 3", len(pkgs))
	}
	if pkgs[0].ID != "a" {
		t.Errorf("first = %s, want a", pkgs[0].ID)
	}

	limited, err := db.ListPackages(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}

func TestSearchSymbols_Ranking(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.RecordPackage(ctx, Package{ID: "fixtures:calculator", Name: "c", Version: "1", ContentHash: "h"}, calculatorSymbols()); err != nil {
		t.Fatal(err)
	}

	matches, err := db.SearchSymbols(ctx, "ADD", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}
	if matches[0].Title != "add" || matches[0].Rank != RankExact {
		t.Errorf("first match = %+v, want exact add", matches[0])
	}
	if matches[1].Title != "Calculator.add" || matches[1].Rank != RankPrefix {
		t.Errorf("second match = %+v, want Calculator.add by final segment", matches[1])
	}

	matches, err = db.SearchSymbols(ctx, "or", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.Rank != RankSubstring {
			t.Errorf("%s: rank %d, want substring", m.Title, m.Rank)
		}
	}
	if len(matches) != 5 {
		t.Errorf("got %d substring matches, want 5", len(matches))
	}
}

func TestSearchSymbols_PackageFilterAndLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, id := range []string{"one", "two"} {
		if err := db.RecordPackage(ctx, Package{ID: id, Name: id, Version: "1", ContentHash: id}, calculatorSymbols()); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := db.SearchSymbols(ctx, "calculator", []string{"two"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.PackageID != "two" {
			t.Errorf("unexpected package %s", m.PackageID)
		}
	}

	matches, err = db.SearchSymbols(ctx, "a", nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Errorf("limit ignored: got %d", len(matches))
	}
}

func TestDeleteAndClear(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := db.RecordPackage(ctx, Package{ID: id, Name: id, Version: "1", ContentHash: id}, calculatorSymbols()); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.DeletePackage(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if p, _ := db.GetPackage(ctx, "a"); p != nil {
		t.Error("package a survived delete")
	}
	if n, _ := db.CountSymbols(ctx, "a"); n != 0 {
		t.Errorf("symbols for a = %d after delete", n)
	}

	if err := db.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	pkgs, _ := db.ListPackages(ctx, 0)
	if len(pkgs) != 0 {
		t.Errorf("got %d packages after clear", len(pkgs))
	}
}
