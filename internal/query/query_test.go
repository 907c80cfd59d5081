package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recentOrders() *Query {
	return From("orders").OrderBy("created_at", true).Take(10)
}

func TestCompileSQL_RecentOrders(t *testing.T) {
	sql, params, err := CompileSQL(recentOrders(), Postgres)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM orders ORDER BY created_at DESC, id DESC LIMIT $1", sql)
	assert.Equal(t, []any{10}, params)
}

func TestCompileSQL_FiltersAreParameterized(t *testing.T) {
	q := From("orders").
		Select("id", "total_amount").
		Where("status", Eq, "pending").
		Where("order_date", Gte, "2024-05-01").
		Where("order_date", Lte, "2024-05-31")

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{Postgres, "SELECT id, total_amount FROM orders WHERE status = $1 AND order_date >= $2 AND order_date <= $3 ORDER BY id ASC"},
		{MySQL, "SELECT id, total_amount FROM orders WHERE status = ? AND order_date >= ? AND order_date <= ? ORDER BY id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			sql, params, err := CompileSQL(q, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{"pending", "2024-05-01", "2024-05-31"}, params)
			assert.NotContains(t, sql, "pending")
		})
	}
}

func TestCompileSQL_ExplicitIDOrderNotDuplicated(t *testing.T) {
	sql, _, err := CompileSQL(From("menu_items").OrderBy("id", true), SQLite)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM menu_items ORDER BY id DESC", sql)
}

func TestValidate_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
	}{
		{"nil", nil},
		{"table injection", From("orders; DROP TABLE orders")},
		{"field injection", From("orders").Where("status = 'x' OR 1", Eq, "a")},
		{"bad op", From("orders").Where("status", Op("like"), "a")},
		{"float", From("orders").Where("total_amount", Gt, 10.5)},
		{"nil value", From("orders").Where("notes", Eq, nil)},
		{"bad order", From("orders").OrderBy("created_at desc", false)},
		{"negative limit", From("orders").Take(-1)},
		{"bad column", From("orders").Select("COUNT(*)")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.q), ErrInvalidQuery)
		})
	}
}

func TestEncodePostgREST(t *testing.T) {
	q := From("menu_items").
		Where("category_id", Eq, int64(3)).
		Where("is_available", Eq, true).
		OrderBy("name", false)

	v, err := EncodePostgREST(q)
	require.NoError(t, err)

	assert.Equal(t, "*", v.Get("select"))
	assert.Equal(t, "eq.3", v.Get("category_id"))
	assert.Equal(t, "eq.true", v.Get("is_available"))
	assert.Equal(t, "name.asc,id.asc", v.Get("order"))
	assert.Empty(t, v.Get("limit"))
}

func TestEncodePostgREST_RepeatedFieldAndLimit(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	q := recentOrders().Where("created_at", Gte, since).Where("created_at", Lt, since.AddDate(0, 0, 1))

	v, err := EncodePostgREST(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"gte.2024-05-01T00:00:00Z", "lt.2024-05-02T00:00:00Z"}, v["created_at"])
	assert.Equal(t, "created_at.desc,id.desc", v.Get("order"))
	assert.Equal(t, "10", v.Get("limit"))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = DialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, "?", d.Placeholder(3))

	_, err = DialectFor("oracle")
	assert.Error(t, err)

	assert.Equal(t, "$2, $3, $4", Postgres.Placeholders(2, 3))
}

func TestEncodePostgREST_Embeds(t *testing.T) {
	q := From("menu_items").Select("id", "name").Include("categories", "name")

	v, err := EncodePostgREST(q)
	require.NoError(t, err)
	assert.Equal(t, "id,name,categories(name)", v.Get("select"))

	sql, _, err := CompileSQL(q, SQLite)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM menu_items ORDER BY id ASC", sql)

	assert.ErrorIs(t, Validate(From("menu_items").Include("categories", "name)")), ErrInvalidQuery)
}

func TestWriteStatements(t *testing.T) {
	ins, err := InsertSQL(Postgres, "orders", []string{"customer_name", "total_amount"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO orders (customer_name, total_amount) VALUES ($1, $2) RETURNING id", ins)

	ins, err = InsertSQL(MySQL, "orders", []string{"customer_name"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO orders (customer_name) VALUES (?)", ins)

	upd, err := UpdateSQL(Postgres, "orders", []string{"status", "updated_at"})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3", upd)

	del, err := DeleteSQL(SQLite, "menu_items")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM menu_items WHERE id = ?", del)

	_, err = InsertSQL(SQLite, "orders", nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = UpdateSQL(SQLite, "orders", []string{"status; --"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
