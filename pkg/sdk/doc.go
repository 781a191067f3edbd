// Package catalogdex is an embedded Go client for catalogdex: catalog-scoped
// faceted search over dataset documents stored in Redis, with optional
// subscriber and rating lookups in Postgres.
//
// It runs the same usecases as the HTTP server in-process:
//
//	client, _ := catalogdex.New(ctx,
//	    catalogdex.WithRedis("localhost:6379", ""),
//	    catalogdex.WithPostgres(os.Getenv("POSTGRES_DSN")),
//	)
//	defer client.Close()
//
//	_, _ = client.Catalogs("market").Put(ctx, "0.1.4", []catalogdex.Field{
//	    {Name: "title", Kind: catalogdex.FieldText},
//	    {Name: "tags", Kind: catalogdex.FieldFilter},
//	}, nil)
//	indexed, _ := client.Datasets("market").CreateMany(ctx, docs)
//	res, _ := client.Search("market").Do(ctx, catalogdex.Query{
//	    Term:    "bank",
//	    Catalog: "0.1.4",
//	    AllOf:   map[string][]string{"tags": {"finance", "rates"}},
//	})
package catalogdex
