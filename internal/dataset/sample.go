package dataset

import (
	_ "embed"
	"sync"
)

//go:embed sample_cycling.csv
var sampleCSV []byte

var (
	sampleOnce  sync.Once
	sampleTable *Table
	sampleErr   error
)

// Sample returns the bundled sample dataset, loaded and expanded once and
// cached for the life of the process. It is the fallback the front ends use
// whenever an upload cannot be parsed or no data has been uploaded yet.
func Sample() (*Table, error) {
	sampleOnce.Do(func() {
		t, err := Load(sampleCSV, "text/csv", nil)
		if err != nil {
			sampleErr = err
			return
		}
		sampleTable = Expand(t)
	})
	return sampleTable, sampleErr
}
