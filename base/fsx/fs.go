// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsx provides various utility functions for dealing with filesystems,
// in particular the crash-safe write and move operations used to keep
// project state and texture slots consistent.
package fsx

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
)

// DirFS returns the directory part of given file path as an os.DirFS
// and the filename as a string.  These can then be used to access the file
// using the FS-based interface, consistent with embed and other use-cases.
func DirFS(fpath string) (fs.FS, string, error) {
	fabs, err := filepath.Abs(fpath)
	if err != nil {
		return nil, "", err
	}
	dir, fname := filepath.Split(fabs)
	dfs := os.DirFS(dir)
	return dfs, fname, nil
}

// FileExists checks whether given regular file exists, returning true if so,
// false if not, and error if there is an error in accessing the file.
func FileExists(filePath string) (bool, error) {
	fileInfo, err := os.Stat(filePath)
	if err == nil {
		return !fileInfo.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// DirExists checks whether given directory exists, returning true if so,
// false if not, and error if there is an error in accessing the path.
func DirExists(path string) (bool, error) {
	fileInfo, err := os.Stat(path)
	if err == nil {
		return fileInfo.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomic writes data to the named file by first writing
// a temporary file in the same directory and then renaming it over
// the target. A failure at any point leaves any existing file untouched.
func WriteFileAtomic(filename string, data []byte, perm fs.FileMode) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tname := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tname)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tname)
		return err
	}
	if err := os.Rename(tname, filename); err != nil {
		os.Remove(tname)
		return err
	}
	return nil
}

// CopyFileAtomic copies the src file to dst using the same
// temp-then-rename discipline as [WriteFileAtomic], overwriting dst
// if it exists. It returns the number of bytes copied.
func CopyFileAtomic(dst, src string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	dir, base := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return 0, err
	}
	tname := tmp.Name()
	n, err := io.Copy(tmp, in)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tname, dst)
	}
	if err != nil {
		os.Remove(tname)
		return 0, err
	}
	return n, nil
}

// UniqueName returns a file name in dir based on name that does not
// exist yet, appending -1, -2, ... before the extension as needed.
func UniqueName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	cand := name
	for i := 1; ; i++ {
		_, err := os.Lstat(filepath.Join(dir, cand))
		if errors.Is(err, fs.ErrNotExist) {
			return cand, nil
		}
		if err != nil {
			return "", err
		}
		cand = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}

// MoveUnique renames src into dir under the given name, never
// overwriting an existing file: see [UniqueName]. It returns the
// full path of the moved file.
func MoveUnique(src, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	nm, err := UniqueName(dir, name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, nm)
	if err := os.Rename(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}
