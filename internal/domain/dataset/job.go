package dataset

// Stage is the indexing stage of a bulk write.
type Stage string

const (
	// StageIndexing means written documents are not all searchable yet.
	StageIndexing Stage = "indexing"
	// StageIndexed means every written document is searchable.
	StageIndexed Stage = "indexed"
)

// Job identifies a submitted bulk write.
type Job struct {
	Partition string
	Size      int
}
