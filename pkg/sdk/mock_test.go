package catalogdex

import (
	"context"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	datasetuc "github.com/kailas-cloud/catalogdex/internal/usecase/dataset"
	healthuc "github.com/kailas-cloud/catalogdex/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, partition string, req *request.Request) (result.Envelope, error)
}

func (m *mockSearchUC) Search(ctx context.Context, partition string, req *request.Request) (result.Envelope, error) {
	return m.searchFn(ctx, partition, req)
}

// --- datasetUseCase mock ---

type mockDatasetUC struct {
	getFn  func(ctx context.Context, partition, id, userID string) (datasetuc.View, error)
	subsFn func(ctx context.Context, partition, id string) ([]string, error)
}

func (m *mockDatasetUC) Get(ctx context.Context, partition, id, userID string) (datasetuc.View, error) {
	return m.getFn(ctx, partition, id, userID)
}

func (m *mockDatasetUC) Subscribers(ctx context.Context, partition, id string) ([]string, error) {
	return m.subsFn(ctx, partition, id)
}

// --- indexingUseCase mock ---

type mockIndexingUC struct {
	createManyFn func(ctx context.Context, partition string, docs []domds.Document) (bool, error)
	createOneFn  func(ctx context.Context, partition string, doc domds.Document) (string, error)
	updateOneFn  func(ctx context.Context, partition, id string, doc domds.Document) error
	deleteOneFn  func(ctx context.Context, partition, id string) error
}

func (m *mockIndexingUC) CreateMany(ctx context.Context, partition string, docs []domds.Document) (bool, error) {
	return m.createManyFn(ctx, partition, docs)
}

func (m *mockIndexingUC) CreateOne(ctx context.Context, partition string, doc domds.Document) (string, error) {
	return m.createOneFn(ctx, partition, doc)
}

func (m *mockIndexingUC) UpdateOne(ctx context.Context, partition, id string, doc domds.Document) error {
	return m.updateOneFn(ctx, partition, id, doc)
}

func (m *mockIndexingUC) DeleteOne(ctx context.Context, partition, id string) error {
	return m.deleteOneFn(ctx, partition, id)
}

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	putFn  func(ctx context.Context, partition string, path domcat.Path, fields []field.Field, cats []domcat.Category) (domcat.Metadata, error)
	getFn  func(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error)
	listFn func(ctx context.Context, partition string) ([]domcat.Metadata, error)
}

func (m *mockCatalogUC) Put(
	ctx context.Context, partition string, path domcat.Path, fields []field.Field, cats []domcat.Category,
) (domcat.Metadata, error) {
	return m.putFn(ctx, partition, path, fields, cats)
}

func (m *mockCatalogUC) Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error) {
	return m.getFn(ctx, partition, path)
}

func (m *mockCatalogUC) List(ctx context.Context, partition string) ([]domcat.Metadata, error) {
	return m.listFn(ctx, partition)
}

// --- recountUseCase mock ---

type mockRecountUC struct {
	recountFn func(ctx context.Context, partition string) error
	countsFn  func(ctx context.Context, partition string) (map[string]int64, error)
}

func (m *mockRecountUC) Recount(ctx context.Context, partition string) error {
	return m.recountFn(ctx, partition)
}

func (m *mockRecountUC) Counts(ctx context.Context, partition string) (map[string]int64, error) {
	return m.countsFn(ctx, partition)
}

// --- healthUseCase mock ---

type mockHealthUC struct{ report healthuc.Report }

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
