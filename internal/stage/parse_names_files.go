package stage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/flarebyte/ekvstore/internal/greeting"
	"github.com/flarebyte/ekvstore/internal/namesfile"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const parseNamesFilesStage = "parse-names-files"

type parsedNamesFile struct {
	entries []namesfile.Entry
	envErr  *Error
}

func fileLocator(path string, i int) string {
	return path + "#" + strconv.Itoa(i)
}

// parseNamesFilesRunner reads every discovered names file with bounded
// parallelism and appends one record per entry in (file, index) order.
func parseNamesFilesRunner(ctx context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Discovery == nil || len(in.Meta.NamesFiles) == 0 {
		return in, nil
	}
	root := in.Meta.Discovery.Root
	if root == "" {
		root = "."
	}
	files := in.Meta.NamesFiles
	keepGoing := errorMode(in.Meta) == modeKeepGoing
	results := make([]parsedNamesFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(getWorkers(in.Meta))
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err == nil {
				results[i].entries, err = namesfile.Parse(b)
			}
			if err != nil {
				if keepGoing {
					results[i].envErr = &Error{Stage: parseNamesFilesStage, Locator: rel, Message: err.Error()}
					return nil
				}
				return stageFatal(parseNamesFilesStage, rel, err.Error())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Envelope{}, err
	}

	out := in
	recs := make([]Record, 0, len(in.Records))
	recs = append(recs, in.Records...)
	var envErrs []Error
	for i, rel := range files {
		res := results[i]
		if res.envErr != nil {
			envErrs = append(envErrs, *res.envErr)
			continue
		}
		for j, e := range res.entries {
			recs = append(recs, Record{
				Locator: fileLocator(rel, j),
				Name:    greeting.Resolve(e.Name, e.Supplied),
			})
		}
	}
	out.Records = recs
	appendSanitizedErrors(&out, envErrs)
	deps.logger().Debug("names files parsed", zap.Int("files", len(files)), zap.Int("failed", len(envErrs)))
	return out, nil
}

func init() { Register(parseNamesFilesStage, parseNamesFilesRunner) }
