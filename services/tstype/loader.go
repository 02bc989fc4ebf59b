// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tstype

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
)

// Loader reads source files.
type Loader interface {
	// Load returns the content at path.
	Load(ctx context.Context, path string) ([]byte, error)
}

// Expander is implemented by loaders that can turn directories into the
// source files they contain.
type Expander interface {
	// Expand replaces each directory in paths with its source files, in
	// lexical order. Non-directory paths are returned unchanged, in place.
	Expand(ctx context.Context, paths []string) ([]string, error)
}

// AFSLoader loads sources through github.com/viant/afs, so local paths
// and any URL scheme afs understands are accepted.
//
// Thread Safety: Safe for concurrent use.
type AFSLoader struct {
	fs         afs.Service
	extensions []string
}

// NewAFSLoader creates a loader that expands directories to files with the
// given extensions.
func NewAFSLoader(extensions ...string) *AFSLoader {
	return &AFSLoader{fs: afs.New(), extensions: extensions}
}

// Load implements Loader.
func (l *AFSLoader) Load(ctx context.Context, path string) ([]byte, error) {
	return l.fs.DownloadWithURL(ctx, path)
}

// Expand implements Expander.
func (l *AFSLoader) Expand(ctx context.Context, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		object, err := l.fs.Object(ctx, p)
		if err != nil {
			return nil, &IOError{Path: p, Err: err}
		}
		if !object.IsDir() {
			out = append(out, p)
			continue
		}

		objects, err := l.fs.List(ctx, p, option.NewRecursive(true))
		if err != nil {
			return nil, &IOError{Path: p, Err: err}
		}
		var files []string
		for _, o := range objects {
			if o.IsDir() || !l.matches(o.Name()) {
				continue
			}
			files = append(files, localPath(o.URL()))
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

func (l *AFSLoader) matches(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	ext := path.Ext(name)
	for _, e := range l.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// localPath strips the file scheme so local results match user input.
func localPath(URL string) string {
	if strings.HasPrefix(URL, file.Scheme+"://") {
		return url.Path(URL)
	}
	return URL
}
