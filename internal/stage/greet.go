package stage

import (
	"context"

	"github.com/flarebyte/ekvstore/internal/greeting"
)

const greetStage = "greet"

// greetRunner formats the greeting of every record that has not failed.
// Records keep their input order.
func greetRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	out := in
	out.Records = runIndexedParallel(len(in.Records), getWorkers(in.Meta), func(i int) Record {
		rec := in.Records[i]
		if rec.Error == nil {
			rec.Greeting = greeting.Format(rec.Name)
		}
		return rec
	})
	return out, nil
}

func init() { Register(greetStage, greetRunner) }
