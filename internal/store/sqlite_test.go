package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

type testDoc struct {
	Name  string   `json:"name"`
	Items []string `json:"items,omitempty"`
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}

	t.Cleanup(func() { st.Close() })

	return st
}

func TestGet_NotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Get(context.Background(), ContractsCollection, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsert_Replaces(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Upsert(ctx, ContractsCollection, "c1", testDoc{Name: "first"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := st.Upsert(ctx, ContractsCollection, "c1", testDoc{Name: "second"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	raw, err := st.Get(ctx, ContractsCollection, "c1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	var doc testDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}

	if doc.Name != "second" {
		t.Errorf("upsert did not replace: %+v", doc)
	}

	n, err := st.Count(ctx, ContractsCollection)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}

	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}

func TestMergeUpsert(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	appendItem := func(item string) MergeFunc {
		return func(existing json.RawMessage) (any, error) {
			var doc testDoc
			if err := json.Unmarshal(existing, &doc); err != nil {
				return nil, err
			}

			doc.Items = append(doc.Items, item)

			return doc, nil
		}
	}

	initial := testDoc{Name: "acme", Items: []string{"a"}}

	// First call creates; merge must not run.
	err := st.MergeUpsert(ctx, CompaniesCollection, "k1", initial,
		func(json.RawMessage) (any, error) {
			t.Fatal("merge ran on first insert")

			return nil, nil
		})
	if err != nil {
		t.Fatalf("MergeUpsert returned error: %v", err)
	}

	if err := st.MergeUpsert(ctx, CompaniesCollection, "k1", initial, appendItem("b")); err != nil {
		t.Fatalf("MergeUpsert returned error: %v", err)
	}

	raw, err := st.Get(ctx, CompaniesCollection, "k1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	var doc testDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}

	if len(doc.Items) != 2 || doc.Items[0] != "a" || doc.Items[1] != "b" {
		t.Errorf("merge result = %+v, want items [a b]", doc)
	}
}

func TestMergeUpsert_MergeErrorLeavesDocument(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Upsert(ctx, CompaniesCollection, "k1", testDoc{Name: "acme"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	boom := errors.New("boom")

	err := st.MergeUpsert(ctx, CompaniesCollection, "k1", nil,
		func(json.RawMessage) (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected merge error to surface, got %v", err)
	}

	raw, err := st.Get(ctx, CompaniesCollection, "k1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	var doc testDoc
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Name != "acme" {
		t.Errorf("failed merge corrupted the document: %s", raw)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Upsert(ctx, CompaniesCollection, "same-id", testDoc{Name: "company"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if _, err := st.Get(ctx, ContractsCollection, "same-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("id leaked across collections: %v", err)
	}
}
