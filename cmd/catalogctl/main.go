// Command catalogctl loads datasets, registers catalogs and runs recounts
// against the same stores the API server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/catalogdex/internal/app"
	"github.com/kailas-cloud/catalogdex/internal/config"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/catalogdex/internal/logger"
	indexinguc "github.com/kailas-cloud/catalogdex/internal/usecase/indexing"
)

func main() {
	if err := newCLI(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCLI(out io.Writer) *cli.App {
	partitionFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "partition",
			Aliases:  []string{"p"},
			Usage:    "Partition (index) name",
			Required: true,
		}
	}

	return &cli.App{
		Name:      "catalogdex",
		HelpName:  "catalogctl",
		Usage:     "Administer catalogdex partitions",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Config environment (config/{env}.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Bulk-index datasets from a JSON array or NDJSON file",
				ArgsUsage: "FILE",
				Action:    loadCommand,
				Flags: []cli.Flag{
					partitionFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Documents per bulk write",
						Value: indexinguc.MaxBulkSize,
					},
				},
			},
			{
				Name:  "catalog",
				Usage: "Manage catalog metadata",
				Subcommands: []*cli.Command{
					{
						Name:      "put",
						Usage:     "Register catalog metadata from a YAML file",
						ArgsUsage: "FILE",
						Action:    catalogPutCommand,
						Flags:     []cli.Flag{partitionFlag()},
					},
					{
						Name:      "get",
						Usage:     "Print registered catalog metadata",
						ArgsUsage: "PATH",
						Action:    catalogGetCommand,
						Flags:     []cli.Flag{partitionFlag()},
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the partition index from registered catalogs",
				Action: reindexCommand,
				Flags:  []cli.Flag{partitionFlag()},
			},
			{
				Name:   "recount",
				Usage:  "Recompute per-category document counts synchronously",
				Action: recountCommand,
				Flags: []cli.Flag{
					partitionFlag(),
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Recount deadline",
						Value: time.Minute,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a search and print the envelope",
				ArgsUsage: "[TERM]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					partitionFlag(),
					&cli.StringFlag{Name: "scope", Usage: "Secondary text term"},
					&cli.StringFlag{Name: "catalog", Usage: "Catalog path"},
					&cli.StringSliceFlag{Name: "facet", Usage: "Facet selection name=value, repeat for all-of"},
					&cli.StringFlag{Name: "exclude", Usage: "Dataset id to exclude"},
					&cli.IntFlag{Name: "from", Usage: "Offset"},
					&cli.IntFlag{Name: "size", Usage: "Page size", Value: request.DefaultSize},
				},
			},
		},
	}
}

// withApp loads config, connects the stores and runs fn.
func withApp(c *cli.Context, fn func(ctx context.Context, a *app.App) error) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	if l := c.String("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Shutdown(cfg.Indexing.RecountTimeout())

	return fn(logpkg.WithContext(ctx, logger), a)
}

func loadCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("dataset file is required")
	}
	batchSize := c.Int("batch-size")
	if batchSize <= 0 || batchSize > indexinguc.MaxBulkSize {
		return fmt.Errorf("batch-size must be between 1 and %d", indexinguc.MaxBulkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	docs, err := readDocuments(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	partition := c.String("partition")
	return withApp(c, func(ctx context.Context, a *app.App) error {
		logger := logpkg.FromContext(ctx)
		for i, batch := range chunk(docs, batchSize) {
			indexed, err := a.Indexing.CreateMany(ctx, partition, batch)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			logger.Info("batch written",
				logpkg.Partition(partition),
				zap.Int("batch", i),
				zap.Int("documents", len(batch)),
				zap.Bool("indexed", indexed),
			)
		}
		fmt.Fprintf(c.App.Writer, "loaded %d datasets into %s\n", len(docs), partition)
		return nil
	})
}

// readDocuments accepts either a JSON array of objects or one object per line.
func readDocuments(r io.Reader) ([]domds.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("no documents")
	}

	var raws []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	} else {
		for line := range strings.Lines(trimmed) {
			if line = strings.TrimSpace(line); line != "" {
				raws = append(raws, json.RawMessage(line))
			}
		}
	}

	docs := make([]domds.Document, 0, len(raws))
	for i, raw := range raws {
		doc, err := domds.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func chunk(docs []domds.Document, size int) [][]domds.Document {
	var out [][]domds.Document
	for start := 0; start < len(docs); start += size {
		out = append(out, docs[start:min(start+size, len(docs))])
	}
	return out
}

// catalogFile is the YAML layout of a catalog metadata file.
type catalogFile struct {
	Path   string `yaml:"path"`
	Fields []struct {
		Name string `yaml:"name"`
		Kind string `yaml:"kind"`
	} `yaml:"fields"`
	Categories []categoryNode `yaml:"categories"`
}

type categoryNode struct {
	Path     string         `yaml:"path"`
	Name     string         `yaml:"name"`
	Children []categoryNode `yaml:"children"`
}

func parseCatalogFile(data []byte) (domcat.Path, []field.Field, []domcat.Category, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return "", nil, nil, fmt.Errorf("decode catalog: %w", err)
	}
	if cf.Path == "" {
		return "", nil, nil, fmt.Errorf("catalog path is required")
	}
	fields := make([]field.Field, 0, len(cf.Fields))
	for _, f := range cf.Fields {
		fl, err := field.New(f.Name, field.Kind(f.Kind))
		if err != nil {
			return "", nil, nil, err
		}
		fields = append(fields, fl)
	}
	return domcat.Path(cf.Path), fields, toCategories(cf.Categories), nil
}

func toCategories(nodes []categoryNode) []domcat.Category {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domcat.Category, len(nodes))
	for i, n := range nodes {
		out[i] = domcat.Category{Path: domcat.Path(n.Path), Name: n.Name, Children: toCategories(n.Children)}
	}
	return out
}

func catalogPutCommand(c *cli.Context) error {
	file := c.Args().First()
	if file == "" {
		return fmt.Errorf("catalog file is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	path, fields, categories, err := parseCatalogFile(data)
	if err != nil {
		return err
	}

	partition := c.String("partition")
	return withApp(c, func(ctx context.Context, a *app.App) error {
		meta, err := a.Catalogs.Put(ctx, partition, path, fields, categories)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "registered %s in %s (%d fields, %d category paths)\n",
			meta.Path(), partition, len(meta.Fields()), len(meta.Paths()))
		return nil
	})
}

func catalogGetCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("catalog path is required")
	}
	partition := c.String("partition")
	return withApp(c, func(ctx context.Context, a *app.App) error {
		meta, err := a.Catalogs.Get(ctx, partition, domcat.Path(path))
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "path: %s\n", meta.Path())
		for _, f := range meta.Fields() {
			fmt.Fprintf(w, "field %s (%s)\n", f.Name(), f.Kind())
		}
		for _, p := range meta.Paths() {
			cat, _ := meta.Lookup(p)
			fmt.Fprintf(w, "category %s %s\n", p, cat.Name)
		}
		return nil
	})
}

func reindexCommand(c *cli.Context) error {
	partition := c.String("partition")
	return withApp(c, func(ctx context.Context, a *app.App) error {
		n, err := a.Catalogs.Reindex(ctx, partition)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "reindexed %s with %d catalog fields; run recount once indexing finishes\n",
			partition, n)
		return nil
	})
}

func recountCommand(c *cli.Context) error {
	partition := c.String("partition")
	return withApp(c, func(ctx context.Context, a *app.App) error {
		ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()

		if err := a.Recount.Recount(ctx, partition); err != nil {
			return fmt.Errorf("recount: %w", err)
		}
		counts, err := a.Recount.Counts(ctx, partition)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, counts)
	})
}

func searchCommand(c *cli.Context) error {
	facets, err := parseFacets(c.StringSlice("facet"))
	if err != nil {
		return err
	}
	req, err := request.New(request.Params{
		Term:      c.Args().First(),
		Scope:     c.String("scope"),
		Catalog:   c.String("catalog"),
		Facets:    facets,
		ExcludeID: c.String("exclude"),
		From:      c.Int("from"),
		Size:      c.Int("size"),
	})
	if err != nil {
		return err
	}

	partition := c.String("partition")
	return withApp(c, func(ctx context.Context, a *app.App) error {
		env, err := a.Search.Search(ctx, partition, &req)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, envelopeJSON(&env))
	})
}

// parseFacets groups name=value pairs; a name given more than once becomes an all-of selection.
func parseFacets(pairs []string) (map[string]request.Selection, error) {
	grouped := make(map[string][]string)
	var order []string
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("facet %q must be name=value", p)
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], value)
	}
	out := make(map[string]request.Selection, len(order))
	for _, name := range order {
		values := grouped[name]
		if len(values) == 1 {
			out[name] = request.Single(values[0])
		} else {
			out[name] = request.Multi(values)
		}
	}
	return out, nil
}

func envelopeJSON(env *result.Envelope) map[string]any {
	items := make([]map[string]any, len(env.Items()))
	for i, it := range env.Items() {
		items[i] = it.Document()
	}
	return map[string]any{
		"items":  items,
		"total":  env.Total(),
		"facets": env.Facets(),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
