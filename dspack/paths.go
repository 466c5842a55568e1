// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import "fmt"

// resolveState tracks one folder's progress through path resolution.
type resolveState uint8

const (
	stateUnresolved resolveState = iota
	stateResolving
	stateResolved
)

// folderPathResolver turns per-folder parent links into full slash-joined
// paths. Results are memoized per index so resolving every folder costs
// O(num_folders) total, and folders whose parent chain loops back on itself
// are reported instead of walked forever. Parent links are raw indices into
// the same table, so a corrupt archive can encode such a cycle.
type folderPathResolver struct {
	folders []FolderEntry
	memo    []string
	state   []resolveState
	visits  int
}

// newFolderPathResolver returns a resolver over already validated folder records.
func newFolderPathResolver(folders []FolderEntry) *folderPathResolver {
	return &folderPathResolver{
		folders: folders,
		memo:    make([]string, len(folders)),
		state:   make([]resolveState, len(folders)),
	}
}

// resolveAll computes the path of every folder and returns the memo table.
func (r *folderPathResolver) resolveAll() ([]string, error) {
	for i := range r.folders {
		if _, err := r.resolve(i); err != nil {
			return nil, err
		}
	}

	return r.memo, nil
}

// resolve returns the full path of folder i, walking parent links to the
// root. A parent that is itself mid-resolution means the chain is cyclic.
func (r *folderPathResolver) resolve(i int) (string, error) {
	r.visits++

	switch r.state[i] {
	case stateResolved:
		return r.memo[i], nil
	case stateResolving:
		return "", fmt.Errorf("%w: folder %d is its own ancestor", ErrCorruptArchive, i)
	}

	r.state[i] = stateResolving
	if parent := r.folders[i].ParentFolder; parent == RootFolder {
		r.memo[i] = r.folders[i].Name
	} else {
		parentPath, err := r.resolve(int(parent))
		if err != nil {
			return "", err
		}
		r.memo[i] = parentPath + "/" + r.folders[i].Name
	}
	r.state[i] = stateResolved

	return r.memo[i], nil
}
