package ingest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func dryRunSession(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run session: %v", err)
	}
	return db
}

func buildListSQL(t *testing.T, f ItemFilter) (string, []any) {
	t.Helper()
	db := dryRunSession(t)
	var models []itemModel
	stmt := f.apply(db.Model(&itemModel{})).Find(&models).Statement
	if stmt.Error != nil {
		t.Fatalf("build statement: %v", stmt.Error)
	}
	return stmt.SQL.String(), stmt.Vars
}

func TestItemFilterAlwaysScopesByOwner(t *testing.T) {
	owner := uuid.New()
	sql, vars := buildListSQL(t, ItemFilter{OwnerID: owner})

	if !strings.Contains(sql, "JOIN projects ON projects.id = items.project_id") {
		t.Fatalf("missing tenancy join in %q", sql)
	}
	if !strings.Contains(sql, "projects.owner_id") {
		t.Fatalf("missing owner predicate in %q", sql)
	}

	found := false
	for _, v := range vars {
		if id, ok := v.(uuid.UUID); ok && id == owner {
			found = true
		}
	}
	if !found {
		t.Fatalf("owner id not bound in vars: %v", vars)
	}
}

func TestItemFilterOptionalPredicates(t *testing.T) {
	sqlBare, _ := buildListSQL(t, ItemFilter{OwnerID: uuid.New()})
	if strings.Contains(sqlBare, "items.project_id = ") || strings.Contains(sqlBare, "items.status") {
		t.Fatalf("unexpected optional predicates in %q", sqlBare)
	}

	sqlFull, _ := buildListSQL(t, ItemFilter{
		OwnerID:   uuid.New(),
		ProjectID: uuid.New(),
		Status:    ItemFailed,
	})
	if !strings.Contains(sqlFull, "items.project_id") {
		t.Fatalf("missing project predicate in %q", sqlFull)
	}
	if !strings.Contains(sqlFull, "items.status") {
		t.Fatalf("missing status predicate in %q", sqlFull)
	}
}

func TestItemFilterLimitBounds(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to default", 0, defaultListLimit},
		{"negative falls back to default", -3, defaultListLimit},
		{"oversized falls back to default", 1000, defaultListLimit},
		{"in range is kept", 25, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, vars := buildListSQL(t, ItemFilter{OwnerID: uuid.New(), Limit: tc.limit})
			found := false
			for _, v := range vars {
				if n, ok := v.(int); ok && n == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("limit %d not bound in vars: %v", tc.want, vars)
			}
		})
	}
}
