package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
)

// testDialect renders a neutral SQL form so builder logic can be checked
// without a real adapter.
type testDialect struct{}

func (testDialect) QuoteIdentifier(name string) string { return "<" + name + ">" }
func (testDialect) Placeholder(n int) string            { return fmt.Sprintf("?%d", n) }
func (testDialect) ContainsExpr(column, placeholder string) string {
	return column + " ~ " + placeholder
}
func (testDialect) LimitSelect(table, where string, limit int) string {
	q := "SELECT * FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	return fmt.Sprintf("%s LIMIT %d", q, limit)
}

type mockReader struct {
	closed atomic.Bool
}

func (m *mockReader) ReadRows(context.Context, string, Predicate, int) ([]map[string]any, error) {
	return []map[string]any{}, nil
}

func (m *mockReader) Close() error {
	m.closed.Store(true)
	return nil
}

type mockFactory struct {
	opens atomic.Int32
	fail  bool
	last  *mockReader
}

func (f *mockFactory) NewRowReader(_ context.Context, storeType string, _ map[string]any) (RowReader, error) {
	f.opens.Add(1)
	if f.fail {
		return nil, errors.New("connect failed: password=hunter2")
	}
	f.last = &mockReader{}
	return f.last, nil
}

func (f *mockFactory) ListTypes() []StoreAdapterInfo { return nil }

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, MaxReadLimit, EffectiveLimit(0))
	assert.Equal(t, MaxReadLimit, EffectiveLimit(-5))
	assert.Equal(t, MaxReadLimit, EffectiveLimit(MaxReadLimit+1))
	assert.Equal(t, 100, EffectiveLimit(100))
	assert.Equal(t, 1, EffectiveLimit(1))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `a\_b`, EscapeLike("a_b"))
	assert.Equal(t, `c:\\x`, EscapeLike(`c:\x`))
	assert.Equal(t, "plain", EscapeLike("plain"))
}

func TestBuildSelect_EmptyPredicate(t *testing.T) {
	query, args, err := BuildSelect(testDialect{}, "properties", MatchAll, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM <properties> LIMIT 1", query)
	assert.Empty(t, args)
	assert.True(t, MatchAll.IsEmpty())
}

func TestBuildSelect_AnyOfAndAllOf(t *testing.T) {
	pred := Predicate{
		AnyOf: []Condition{
			{Column: "title", Op: OpContains, Value: "oak"},
			{Column: "eircode", Op: OpContains, Value: "oak"},
		},
		AllOf: []Condition{
			{Column: "price", Op: OpLte, Value: 5.0},
			{Column: "property_type", Op: OpEq, Value: "House"},
		},
	}

	query, args, err := BuildSelect(testDialect{}, "public.properties", pred, 5)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM <public>.<properties> WHERE (<title> ~ ?1 OR <eircode> ~ ?2) AND <price> <= ?3 AND <property_type> = ?4 LIMIT 5",
		query)
	assert.Equal(t, []any{"%oak%", "%oak%", 5.0, "House"}, args)
	assert.False(t, pred.IsEmpty())
}

func TestBuildSelect_Errors(t *testing.T) {
	_, _, err := BuildSelect(testDialect{}, "t", Predicate{AllOf: []Condition{{Column: "", Op: OpEq, Value: 1}}}, 1)
	assert.Error(t, err)

	_, _, err = BuildSelect(testDialect{}, "t", Predicate{AnyOf: []Condition{{Column: "a", Op: "regex", Value: 1}}}, 1)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	Register(StoreAdapterRegistration{
		Info: StoreAdapterInfo{Type: "zz_test", DisplayName: "Test"},
		Factory: func(context.Context, map[string]any, *zap.Logger) (RowReader, error) {
			return &mockReader{}, nil
		},
	})

	assert.True(t, IsRegistered("zz_test"))
	assert.False(t, IsRegistered("nope"))
	assert.NotNil(t, GetFactory("zz_test"))
	assert.Nil(t, GetFactory("nope"))

	infos := RegisteredAdapters()
	require.NotEmpty(t, infos)
	assert.Equal(t, "zz_test", infos[len(infos)-1].Type)
}

func TestRowReaderFactory(t *testing.T) {
	Register(StoreAdapterRegistration{
		Info: StoreAdapterInfo{Type: "zz_factory"},
		Factory: func(_ context.Context, config map[string]any, _ *zap.Logger) (RowReader, error) {
			if config == nil {
				return nil, errors.New("nil config")
			}
			return &mockReader{}, nil
		},
	})

	factory := NewRowReaderFactory(zaptest.NewLogger(t))

	reader, err := factory.NewRowReader(context.Background(), "zz_factory", nil)
	require.NoError(t, err)
	assert.NotNil(t, reader)

	_, err = factory.NewRowReader(context.Background(), "unknown_type", nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownStoreType)

	assert.NotEmpty(t, factory.ListTypes())
}

func TestStoreManager_LazyOpenAndReuse(t *testing.T) {
	factory := &mockFactory{}
	m := NewStoreManager(factory, []StoreSpec{
		{Name: "primary", Type: "memory"},
		{Name: "daft", Type: "memory"},
		{Name: "primary", Type: "postgres"},
	}, zap.NewNop())

	assert.Equal(t, []string{"primary", "daft"}, m.Names())
	spec, ok := m.Spec("primary")
	require.True(t, ok)
	assert.Equal(t, "memory", spec.Type)
	assert.Equal(t, int32(0), factory.opens.Load())

	r1, err := m.Get(context.Background(), "primary")
	require.NoError(t, err)
	r2, err := m.Get(context.Background(), "primary")
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, int32(1), factory.opens.Load())

	_, err = m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrStoreNotConfigured)

	require.NoError(t, m.Close())
	assert.True(t, r1.(*mockReader).closed.Load())
}

func TestStoreManager_FailedOpenIsRetried(t *testing.T) {
	factory := &mockFactory{fail: true}
	m := NewStoreManager(factory, []StoreSpec{{Name: "s", Type: "postgres"}}, zap.NewNop())

	_, err := m.Get(context.Background(), "s")
	require.Error(t, err)

	factory.fail = false
	_, err = m.Get(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, int32(2), factory.opens.Load())
}
