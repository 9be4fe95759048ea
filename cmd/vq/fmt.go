package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mgomes/vibequery/query"
)

const sourceExt = ".vq"

func fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	write := fs.Bool("w", false, "write result to source files instead of stdout")
	check := fs.Bool("check", false, "fail if any source file needs formatting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("vq fmt: path required")
	}

	files, err := collectSourceFiles(targets)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	changedCount := 0
	for _, path := range files {
		originalBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		original := string(originalBytes)
		formatted, err := query.Format(original)
		if err != nil {
			return fmt.Errorf("format %s: %w", path, err)
		}
		changed := formatted != original
		if changed {
			changedCount++
		}

		switch {
		case *write && changed:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		case *check && changed:
			fmt.Println(path)
		case !*write && !*check:
			fmt.Print(formatted)
		}
	}

	if *check && changedCount > 0 {
		return fmt.Errorf("vq fmt: %d file(s) need formatting", changedCount)
	}

	return nil
}

func collectSourceFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0)
	addFile := func(path string, explicit bool) {
		if !explicit && filepath.Ext(path) != sourceExt {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target, true)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			addFile(path, false)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
