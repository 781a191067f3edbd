package aggregation

import "fmt"

// DefaultBucketLimit caps the number of buckets returned per terms aggregation.
const DefaultBucketLimit = 100

// Terms is a value-bucketed count over one field. Name equals Field so buckets
// can be looked up by field name in the response.
type Terms struct {
	Name  string
	Field string
	Size  int
}

// Request is an ordered set of terms aggregations.
type Request struct {
	terms []Terms
}

// NewRequest creates one terms aggregation per field, keyed by the field name.
func NewRequest(fields []string, size int) (Request, error) {
	if size <= 0 {
		size = DefaultBucketLimit
	}
	seen := make(map[string]bool, len(fields))
	terms := make([]Terms, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			return Request{}, fmt.Errorf("aggregation field is required")
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, Terms{Name: f, Field: f, Size: size})
	}
	return Request{terms: terms}, nil
}

// Terms returns the aggregations in request order.
func (r Request) Terms() []Terms { return r.terms }

// Names returns the aggregation names in request order.
func (r Request) Names() []string {
	out := make([]string, len(r.terms))
	for i, t := range r.terms {
		out[i] = t.Name
	}
	return out
}

// IsEmpty reports whether no aggregation is requested.
func (r Request) IsEmpty() bool { return len(r.terms) == 0 }

// Bucket is one distinct value and its document count.
type Bucket struct {
	Key   string
	Count int64
}
