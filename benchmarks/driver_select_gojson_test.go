//go:build gojson

package benchmarks_test

import (
	"github.com/reoring/gracedec"
	drv "github.com/reoring/gracedec/source/gojson"
)

func init() {
	gracedec.SetJSONDriver(drv.Driver())
}
