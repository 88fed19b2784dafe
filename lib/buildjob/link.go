// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package buildjob

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
)

const (
	// DevelManifestFileName records, per package, the (source, dest)
	// pairs the linked layout created in the shared devel space. It
	// lives in the package's metadata directory; its first line is the
	// package source path, the rest is space-delimited CSV.
	DevelManifestFileName = "devel_manifest.txt"

	// DevelCollisionsFileName counts, per destination path, how many
	// packages want to provide that file. It lives in the profile
	// metadata directory. A link is only removed when its collision
	// count drops to zero.
	DevelCollisionsFileName = "devel_collisions.txt"
)

// develLinkSkiplist names devel files that the environment setup owns
// and that must never be symlinked per package: they exist once per
// merged devel space, not once per package.
var develLinkSkiplist = []string{
	".catkin",
	".rosinstall",
	filepath.Join("etc", "catkin", "profile.d", "05.catkin_make.bash"),
	filepath.Join("etc", "catkin", "profile.d", "05.catkin_make_isolated.bash"),
	filepath.Join("etc", "catkin", "profile.d", "05.catkin-test-results.sh"),
	"env.sh",
	"setup.bash",
	"setup.fish",
	"setup.zsh",
	"setup.sh",
	"local_setup.bash",
	"local_setup.fish",
	"local_setup.zsh",
	"local_setup.sh",
	"_setup_util.py",
}

var develLinkSkipDirectories = []string{"__pycache__"}

// collisionsMu serializes access to the collisions file across
// concurrently linking jobs.
var collisionsMu sync.Mutex

type linkPair struct {
	Source string
	Dest   string
}

// LinkDevelProducts mirrors a package's private devel space into the
// shared one with symlinks, records the created links in the package's
// devel manifest, and removes links from previous builds that this
// build no longer produces. Destinations already provided by another
// package are counted as collisions instead of being overwritten.
func LinkDevelProducts(out io.Writer, packageSourcePath, privateDevel, sharedDevel, packageMetadataPath, profileMetadataPath string) error {
	if err := os.MkdirAll(packageMetadataPath, 0o755); err != nil {
		return fmt.Errorf("creating package metadata directory: %w", err)
	}

	var products []linkPair
	var collisions []string

	err := filepath.WalkDir(privateDevel, func(sourcePath string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, relErr := filepath.Rel(privateDevel, sourcePath)
		if relErr != nil {
			return relErr
		}
		if relative == "." {
			return nil
		}
		destPath := filepath.Join(sharedDevel, relative)

		if entry.IsDir() {
			if slices.Contains(develLinkSkipDirectories, entry.Name()) {
				return filepath.SkipDir
			}
			if info, statErr := os.Stat(destPath); statErr == nil {
				if !info.IsDir() {
					return fmt.Errorf("cannot create directory %s: a file is in the way", destPath)
				}
				return nil
			}
			if mkErr := os.Mkdir(destPath, 0o755); mkErr != nil {
				return fmt.Errorf("creating devel directory: %w", mkErr)
			}
			return nil
		}

		if shouldSkipDevelFile(relative) {
			return nil
		}

		products = append(products, linkPair{Source: sourcePath, Dest: destPath})

		if _, statErr := os.Lstat(destPath); statErr == nil {
			sourceReal, _ := filepath.EvalSymlinks(sourcePath)
			destReal, _ := filepath.EvalSymlinks(destPath)
			if sourceReal != destReal {
				warnLinkCollision(out, sourcePath, destPath)
				collisions = append(collisions, destPath)
			}
			return nil
		}

		fmt.Fprintf(out, "Symlinking %s\n", destPath)
		if linkErr := os.Symlink(sourcePath, destPath); linkErr != nil {
			return fmt.Errorf("creating symlink %s: %w", destPath, linkErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Links from the previous build that this one did not recreate are
	// stale and get cleaned (or decremented, if still collided-on).
	manifestPath := filepath.Join(packageMetadataPath, DevelManifestFileName)
	var stale []string
	if _, previous, readErr := readDevelManifest(manifestPath); readErr == nil {
		for _, pair := range previous {
			if !slices.Contains(products, pair) {
				fmt.Fprintf(out, "Cleaning stale link %s\n", pair.Dest)
				stale = append(stale, pair.Dest)
			}
		}
	}

	if err := cleanLinkedFiles(out, profileMetadataPath, collisions, stale, false); err != nil {
		return err
	}

	return writeDevelManifest(manifestPath, packageSourcePath, products)
}

// UnlinkDevelProducts removes every link recorded in the package's
// devel manifest, honoring collision counts: a destination that other
// packages still provide only has its count decremented.
func UnlinkDevelProducts(out io.Writer, privateDevel, packageMetadataPath, profileMetadataPath string, dryRun bool) error {
	if _, err := os.Stat(privateDevel); err != nil {
		fmt.Fprintf(out, "No private devel space at %s, nothing to unlink\n", privateDevel)
		return nil
	}

	manifestPath := filepath.Join(packageMetadataPath, DevelManifestFileName)
	_, pairs, err := readDevelManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("reading devel manifest: %w", err)
	}

	var toClean []string
	for _, pair := range pairs {
		info, statErr := os.Lstat(pair.Dest)
		if statErr != nil {
			fmt.Fprintf(out, "Already unlinked: %s\n", pair.Dest)
			continue
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("%s is not a symbolic link", pair.Dest)
		}
		toClean = append(toClean, pair.Dest)
	}

	return cleanLinkedFiles(out, profileMetadataPath, nil, toClean, dryRun)
}

// cleanLinkedFiles updates the shared collision counts: newCollisions
// increment, and each path in toClean is either unlinked (count zero)
// or decremented.
func cleanLinkedFiles(out io.Writer, profileMetadataPath string, newCollisions, toClean []string, dryRun bool) error {
	collisionsMu.Lock()
	defer collisionsMu.Unlock()

	collisionsPath := filepath.Join(profileMetadataPath, DevelCollisionsFileName)
	counts, err := readCollisions(collisionsPath)
	if err != nil {
		return err
	}

	for _, dest := range newCollisions {
		counts[dest]++
	}

	for _, dest := range toClean {
		switch counts[dest] {
		case 0:
			fmt.Fprintf(out, "Unlinking %s\n", dest)
			if dryRun {
				continue
			}
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("unlinking %s: %w", dest, err)
			}
			removeEmptyParents(filepath.Dir(dest))
		case 1:
			delete(counts, dest)
		default:
			counts[dest]--
		}
	}

	if dryRun {
		return nil
	}
	return writeCollisions(collisionsPath, counts)
}

// warnLinkCollision reports that two packages provide the same devel
// file. Identical content (by BLAKE3 digest) is a benign collision and
// reported quietly; differing content gets the loud warning.
func warnLinkCollision(out io.Writer, sourcePath, destPath string) {
	sourceHash, sourceErr := hashFile(sourcePath)
	destHash, destErr := hashFile(destPath)
	if sourceErr == nil && destErr == nil && sourceHash == destHash {
		fmt.Fprintf(out, "Collision (identical content): %s\n", destPath)
		return
	}
	fmt.Fprintf(out, "Warning: cannot symlink %s over existing file %s\n", sourcePath, destPath)
	if sourceErr == nil && destErr == nil {
		fmt.Fprintf(out, "Warning: source digest %s, dest digest %s\n", sourceHash, destHash)
	}
}

func hashFile(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	file, err := os.Open(resolved)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// HashBytes returns the hex BLAKE3 digest of data. The build record
// uses it to fingerprint manifests.
func HashBytes(data []byte) string {
	digest := blake3.Sum256(data)
	return fmt.Sprintf("%x", digest)
}

func shouldSkipDevelFile(relative string) bool {
	if slices.Contains(develLinkSkiplist, relative) {
		return true
	}
	for _, part := range strings.Split(relative, string(filepath.Separator)) {
		if slices.Contains(develLinkSkipDirectories, part) {
			return true
		}
	}
	return false
}

// removeEmptyParents removes dir and its ancestors as long as they are
// empty. Stops silently at the first non-empty directory.
func removeEmptyParents(dir string) {
	for {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func readDevelManifest(path string) (sourcePath string, pairs []linkPair, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	lines := strings.SplitN(string(data), "\n", 2)
	sourcePath = lines[0]
	if len(lines) < 2 {
		return sourcePath, nil, nil
	}

	reader := csv.NewReader(strings.NewReader(lines[1]))
	reader.Comma = ' '
	records, err := reader.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("parsing devel manifest %s: %w", path, err)
	}
	for _, record := range records {
		if len(record) != 2 {
			return "", nil, fmt.Errorf("malformed devel manifest entry in %s: %v", path, record)
		}
		pairs = append(pairs, linkPair{Source: record[0], Dest: record[1]})
	}
	return sourcePath, pairs, nil
}

func writeDevelManifest(path, sourcePath string, pairs []linkPair) error {
	var b strings.Builder
	b.WriteString(sourcePath + "\n")
	writer := csv.NewWriter(&b)
	writer.Comma = ' '
	for _, pair := range pairs {
		if err := writer.Write([]string{pair.Source, pair.Dest}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func readCollisions(path string) (map[string]int, error) {
	counts := make(map[string]int)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return counts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading collisions file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = ' '
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing collisions file %s: %w", path, err)
	}
	for _, record := range records {
		if len(record) != 2 {
			return nil, fmt.Errorf("malformed collisions entry in %s: %v", path, record)
		}
		count, convErr := strconv.Atoi(record[1])
		if convErr != nil {
			return nil, fmt.Errorf("malformed collision count in %s: %v", path, record)
		}
		counts[record[0]] = count
	}
	return counts, nil
}

func writeCollisions(path string, counts map[string]int) error {
	dests := make([]string, 0, len(counts))
	for dest := range counts {
		dests = append(dests, dest)
	}
	slices.Sort(dests)

	var b strings.Builder
	writer := csv.NewWriter(&b)
	writer.Comma = ' '
	for _, dest := range dests {
		if err := writer.Write([]string{dest, strconv.Itoa(counts[dest])}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
