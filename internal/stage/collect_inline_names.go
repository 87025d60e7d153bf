package stage

import (
	"context"
	"strconv"

	"github.com/flarebyte/ekvstore/internal/greeting"
)

const collectInlineNamesStage = "collect-inline-names"

func inlineLocator(i int) string {
	return "config#" + strconv.Itoa(i)
}

// collectInlineNamesRunner appends one record per inline config name. Null
// entries resolve to the default name.
func collectInlineNamesRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	out := in
	if in.Meta == nil || len(in.Meta.Names) == 0 {
		if out.Records == nil {
			out.Records = []Record{}
		}
		return out, nil
	}
	recs := make([]Record, 0, len(in.Records)+len(in.Meta.Names))
	recs = append(recs, in.Records...)
	for i, n := range in.Meta.Names {
		recs = append(recs, Record{
			Locator: inlineLocator(i),
			Name:    greeting.Resolve(n.Name, n.Supplied),
		})
	}
	out.Records = recs
	return out, nil
}

func init() { Register(collectInlineNamesStage, collectInlineNamesRunner) }
