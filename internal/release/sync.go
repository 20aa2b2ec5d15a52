package release

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/mod/semver"

	"jambiato/internal/paper"
	"jambiato/internal/paperdb"
	"jambiato/internal/textree"
)

// Options configure one indexing run.
type Options struct {
	CacheDir     string
	RootFile     string // top-level .tex file inside the release tree
	MinVersion   string // floor tag; releases at or below it are not indexed
	SectionPivot string // first tag whose formulas are numbered per section
}

// Sync indexes every release above the floor, oldest first, skipping
// releases whose database artifact is already cached. It returns the latest
// version (newest tag, without the leading "v"). A release that fails to
// index is logged and skipped; artifacts built earlier stay valid.
func Sync(ctx context.Context, c *Client, opts Options) (string, error) {
	releases, err := c.List(ctx)
	if err != nil {
		return "", err
	}
	if len(releases) == 0 {
		return "", fmt.Errorf("repository %s has no releases", c.repo)
	}

	latest := Version(releases[0].Tag)

	// Oldest first, so an interrupted run leaves a contiguous range of
	// artifacts behind.
	for i := len(releases) - 1; i >= 0; i-- {
		rel := releases[i]
		if semver.Compare(canonical(rel.Tag), canonical(opts.MinVersion)) <= 0 {
			continue
		}
		if paperdb.Exists(opts.CacheDir, rel.Tag) {
			log.Printf("release %s already present, skipping", rel.Tag)
			continue
		}
		if err := c.index(ctx, rel, opts); err != nil {
			log.Printf("release %s: %v", rel.Tag, err)
		}
	}

	return latest, nil
}

// index downloads one release, parses its document tree, and writes the
// database artifact. All intermediate files live in a temp dir removed on
// return, so a failure never leaves a partial artifact in the cache.
func (c *Client) index(ctx context.Context, rel Release, opts Options) error {
	work, err := os.MkdirTemp("", "jambiato-"+rel.Tag+"-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	log.Printf("downloading release %s", rel.Tag)
	tarball := filepath.Join(work, rel.Tag+".tar.gz")
	if err := c.download(ctx, rel.TarballURL, tarball); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	src := filepath.Join(work, "src")
	if err := untar(tarball, src); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	root, err := soleSubdir(src)
	if err != nil {
		return err
	}

	tex, err := textree.Expand(root, opts.RootFile)
	if err != nil {
		return fmt.Errorf("expand %s: %w", opts.RootFile, err)
	}

	perSection := semver.Compare(canonical(rel.Tag), canonical(opts.SectionPivot)) >= 0
	records, err := paper.Parse(textree.Parse(tex), perSection)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	db, err := paperdb.Build(records)
	if err != nil {
		return err
	}

	log.Printf("release %s: indexed %d formulas", rel.Tag, len(db))
	return paperdb.Write(opts.CacheDir, rel.Tag, db)
}
