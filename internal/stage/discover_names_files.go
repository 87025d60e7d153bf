package stage

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
)

const discoverNamesFilesStage = "discover-names-files"

// discoverNamesFilesRunner lists *.names.yaml files under the discovery root
// into meta.namesFiles. It is a passthrough when no discovery is configured.
func discoverNamesFilesRunner(_ context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Discovery == nil {
		return in, nil
	}
	root := in.Meta.Discovery.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Envelope{}, stageFatal(discoverNamesFilesStage, "", err.Error())
	}
	files, envErrs, err := findNamesFiles(absRoot, in.Meta.Discovery.NoGitignore, errorMode(in.Meta) == modeKeepGoing)
	if err != nil {
		return Envelope{}, err
	}
	out := in
	meta := *in.Meta
	meta.NamesFiles = files
	out.Meta = &meta
	appendSanitizedErrors(&out, envErrs)
	deps.logger().Debug("names files discovered", zap.String("root", root), zap.Strings("files", files))
	return out, nil
}

func init() { Register(discoverNamesFilesStage, discoverNamesFilesRunner) }
