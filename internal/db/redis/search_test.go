package redis

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
)

// --- search.go tests ---

func TestSearch_WithFacets(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmds ...rueidis.Completed) []rueidis.RedisResult {
			if len(cmds) != 2 {
				t.Fatalf("expected search + 1 aggregate, got %d", len(cmds))
			}
			search := cmds[0].Commands()
			if search[0] != "FT.SEARCH" || search[1] != "idx" || search[3] != "WITHSCORES" {
				t.Errorf("unexpected search command %v", search)
			}
			agg := cmds[1].Commands()
			if agg[0] != "FT.AGGREGATE" || agg[6] != "GROUPBY" || agg[8] != "@license" {
				t.Errorf("unexpected aggregate command %v", agg)
			}
			return []rueidis.RedisResult{
				mock.Result(mock.RedisArray(
					mock.RedisInt64(2),
					mock.RedisString("p:doc:1"),
					mock.RedisString("1.5"),
					mock.RedisArray(mock.RedisString("$"), mock.RedisString(`{"id":"1"}`)),
					mock.RedisString("p:doc:2"),
					mock.RedisString("0.5"),
					mock.RedisArray(mock.RedisString("$"), mock.RedisString(`{"id":"2"}`)),
				)),
				mock.Result(mock.RedisArray(
					mock.RedisInt64(2),
					mock.RedisArray(
						mock.RedisString("license"), mock.RedisString("mit"),
						mock.RedisString("count"), mock.RedisString("1"),
					),
					mock.RedisArray(
						mock.RedisString("license"), mock.RedisString("apache"),
						mock.RedisString("count"), mock.RedisString("1"),
					),
				)),
			}
		})

	aggs, err := aggregation.NewRequest([]string{"license"}, 10)
	if err != nil {
		t.Fatalf("aggregation: %v", err)
	}

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		IndexName:    "idx",
		Aggregations: aggs,
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Entries[0].Key != "p:doc:1" || res.Entries[0].Score != 1.5 {
		t.Errorf("unexpected first entry: %+v", res.Entries[0])
	}
	if res.Entries[1].Fields["$"] != `{"id":"2"}` {
		t.Errorf("unexpected fields: %v", res.Entries[1].Fields)
	}

	buckets := res.Aggregations["license"]
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %v", buckets)
	}
	// equal counts fall back to key order
	if buckets[0].Key != "apache" || buckets[1].Key != "mit" {
		t.Errorf("unexpected bucket order: %v", buckets)
	}
}

func TestSearch_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisError("p:idx: no such index")),
		})

	s := NewStoreForTest(c)
	_, err := s.Search(context.Background(), &db.SearchQuery{IndexName: "p:idx", Limit: 10})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(context.DeadlineExceeded)})

	s := NewStoreForTest(c)
	_, err := s.Search(context.Background(), &db.SearchQuery{IndexName: "idx", Limit: 10})
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestSearch_MissingAggregationField(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisInt64(0))),
			mock.Result(mock.RedisError("Property `region` not loaded nor in schema")),
		})

	aggs, _ := aggregation.NewRequest([]string{"region"}, 0)

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{IndexName: "idx", Aggregations: aggs, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buckets, ok := res.Aggregations["region"]
	if !ok || len(buckets) != 0 {
		t.Errorf("expected empty bucket list, got %v (present=%v)", buckets, ok)
	}
}

func TestSearch_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	if _, err := s.Search(context.Background(), &db.SearchQuery{Limit: 10}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.Search(context.Background(), &db.SearchQuery{IndexName: "idx", Offset: -1}); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestSearchCount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "idx", "@catalog_path:{0\\.1|0\\.1\\.*}", "LIMIT", "0", "0", "DIALECT", "2")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(7))))

	scope, _ := filter.NewScope("catalog_path", "0.1")
	expr, _ := filter.NewExpression(nil, []filter.Condition{scope}, nil)

	s := NewStoreForTest(c)
	n, err := s.SearchCount(context.Background(), &db.CountQuery{IndexName: "idx", Expression: expr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
}

func TestSearchCount_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	s := NewStoreForTest(c)
	_, err := s.SearchCount(context.Background(), &db.CountQuery{IndexName: "idx"})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestParseAggregation_ExpandsArrayKeys(t *testing.T) {
	res := mock.Result(mock.RedisArray(
		mock.RedisInt64(3),
		mock.RedisArray(
			mock.RedisString("tags"), mock.RedisString(`["finance","banking"]`),
			mock.RedisString("count"), mock.RedisString("2"),
		),
		mock.RedisArray(
			mock.RedisString("tags"), mock.RedisString("finance"),
			mock.RedisString("count"), mock.RedisString("1"),
		),
		mock.RedisArray(
			mock.RedisString("tags"), mock.RedisString(""),
			mock.RedisString("count"), mock.RedisString("5"),
		),
	))

	buckets, err := parseAggregation(res, aggregation.Terms{Name: "tags", Field: "tags", Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %v", buckets)
	}
	if buckets[0] != (aggregation.Bucket{Key: "finance", Count: 3}) {
		t.Errorf("unexpected first bucket: %+v", buckets[0])
	}
	if buckets[1] != (aggregation.Bucket{Key: "banking", Count: 2}) {
		t.Errorf("unexpected second bucket: %+v", buckets[1])
	}
}

func TestParseAggregation_CapsSize(t *testing.T) {
	res := mock.Result(mock.RedisArray(
		mock.RedisInt64(3),
		mock.RedisArray(mock.RedisString("f"), mock.RedisString("a"), mock.RedisString("count"), mock.RedisString("3")),
		mock.RedisArray(mock.RedisString("f"), mock.RedisString("b"), mock.RedisString("count"), mock.RedisString("2")),
		mock.RedisArray(mock.RedisString("f"), mock.RedisString("c"), mock.RedisString("count"), mock.RedisString("1")),
	))

	buckets, err := parseAggregation(res, aggregation.Terms{Name: "f", Field: "f", Size: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Key != "a" || buckets[1].Key != "b" {
		t.Errorf("unexpected buckets: %v", buckets)
	}
}

func TestSearch_FacetValueSpreadAcrossCombinations(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	combo := func(key, count string) rueidis.RedisMessage {
		return mock.RedisArray(
			mock.RedisString("tags"), mock.RedisString(key),
			mock.RedisString("count"), mock.RedisString(count),
		)
	}

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmds ...rueidis.Completed) []rueidis.RedisResult {
			agg := cmds[1].Commands()
			want := []string{"LIMIT", "0", strconv.Itoa(maxFacetGroups)}
			if got := agg[len(agg)-5 : len(agg)-2]; !slices.Equal(got, want) {
				t.Errorf("aggregate limit = %v, want %v", got, want)
			}
			return []rueidis.RedisResult{
				mock.Result(mock.RedisArray(mock.RedisInt64(0))),
				// "finance" leads overall but never tops a single combination.
				mock.Result(mock.RedisArray(
					mock.RedisInt64(4),
					combo(`["retail"]`, "3"),
					combo(`["finance","banking"]`, "2"),
					combo(`["finance","energy"]`, "2"),
					combo(`["finance"]`, "1"),
				)),
			}
		})

	aggs, err := aggregation.NewRequest([]string{"tags"}, 1)
	if err != nil {
		t.Fatalf("aggregation: %v", err)
	}

	res, err := NewStoreForTest(c).Search(context.Background(), &db.SearchQuery{
		IndexName:    "idx",
		Aggregations: aggs,
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buckets := res.Aggregations["tags"]
	if len(buckets) != 1 || buckets[0] != (aggregation.Bucket{Key: "finance", Count: 5}) {
		t.Errorf("buckets = %v, want [{finance 5}]", buckets)
	}
}

func TestExpandKey(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"mit", []string{"mit"}},
		{`["a","b"]`, []string{"a", "b"}},
		{`["a",null,""]`, []string{"a"}},
		{`[1,2]`, []string{"1", "2"}},
		{"[broken", []string{"[broken"}},
	}
	for _, tc := range tests {
		got := expandKey(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("expandKey(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("expandKey(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

// --- query.go tests ---

func TestBuildQuery_Empty(t *testing.T) {
	if got := buildQuery(filter.Expression{}); got != "*" {
		t.Errorf("expected *, got %q", got)
	}
}

func TestBuildQuery_Text(t *testing.T) {
	tx, err := filter.NewText([]string{"title", "description"}, "world bank")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	expr, _ := filter.NewExpression([]filter.Text{tx}, nil, nil)

	want := "(@title|description:(world bank*)) => { $slop: 0; $inorder: true; }"
	if got := buildQuery(expr); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildQuery_ShortLastTermNotPrefixed(t *testing.T) {
	tx, _ := filter.NewText([]string{"title"}, "gdp a")
	expr, _ := filter.NewExpression([]filter.Text{tx}, nil, nil)

	want := "(@title:(gdp a)) => { $slop: 0; $inorder: true; }"
	if got := buildQuery(expr); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildQuery_TextEscaped(t *testing.T) {
	tx, _ := filter.NewText([]string{"title"}, "e-commerce")
	expr, _ := filter.NewExpression([]filter.Text{tx}, nil, nil)

	want := `(@title:(e\-commerce*)) => { $slop: 0; $inorder: true; }`
	if got := buildQuery(expr); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildQuery_Conditions(t *testing.T) {
	scope, _ := filter.NewScope("catalog_path", "0.1")
	license, _ := filter.NewMatch("license", "mit")
	tags, _ := filter.NewAll("tags", []string{"finance", "e-commerce"})
	exclude, _ := filter.NewMatch("id", "abc")

	expr, err := filter.NewExpression(nil, []filter.Condition{scope, license, tags}, []filter.Condition{exclude})
	if err != nil {
		t.Fatalf("expression: %v", err)
	}

	want := `@catalog_path:{0\.1|0\.1\.*} @license:{mit} @tags:{finance} @tags:{e\-commerce} -@id:{abc}`
	if got := buildQuery(expr); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildQuery_OnlyNegative(t *testing.T) {
	exclude, _ := filter.NewMatch("id", "abc")
	expr, _ := filter.NewExpression(nil, nil, []filter.Condition{exclude})

	want := `* -@id:{abc}`
	if got := buildQuery(expr); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildTagFilter_Escaping(t *testing.T) {
	got := buildTagFilter("owner", "acme corp.io")
	want := `@owner:{acme\ corp\.io}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery("a@b"); got != `a\@b` {
		t.Errorf("got %q", got)
	}
}

func TestSearch_SortBy(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmds ...rueidis.Completed) []rueidis.RedisResult {
			got := cmds[0].Commands()
			want := []string{
				"FT.SEARCH", "idx", "*", "WITHSCORES",
				"SORTBY", "title_sort", "ASC",
				"LIMIT", "10", "10", "DIALECT", "2",
			}
			if len(got) != len(want) {
				t.Fatalf("command = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
				}
			}
			return []rueidis.RedisResult{mock.Result(mock.RedisArray(mock.RedisInt64(0)))}
		})

	s := NewStoreForTest(c)
	if _, err := s.Search(context.Background(), &db.SearchQuery{
		IndexName: "idx",
		Offset:    10,
		Limit:     10,
		SortBy:    "title_sort",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
