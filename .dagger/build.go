package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/kataru/internal/dagger"
)

// crossCompilers maps a linux GOARCH to the C compiler used for CGO.
// go-sqlite3 needs CGO, so every target needs a matching toolchain.
var crossCompilers = map[string]string{
	"amd64": "gcc",
	"arm64": "aarch64-linux-gnu-gcc",
}

// Build and return directory of go binaries
func (k *Kataru) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// create empty directory to put build artifacts
	outputs := dag.Directory()

	golang := k.goContainer().
		WithEnvVariable("GOOS", "linux")

	for _, goarch := range []string{"amd64", "arm64"} {
		// create directory for each architecture
		path := fmt.Sprintf("linux/%s/", goarch)

		// build artifact
		build := golang.
			WithEnvVariable("GOARCH", goarch).
			WithEnvVariable("CC", crossCompilers[goarch]).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/kataru"})

		// add build to outputs
		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (k *Kataru) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/kataru/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/kataru/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/kataru/pkg/utils.Buildtime=%s'", buildtime),
	}

	return k.Build(ctx, strings.Join(ldflags, " "))
}
