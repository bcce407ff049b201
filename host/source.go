package host

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

// LanguageVersion identifies an ECMAScript language level.
type LanguageVersion int

const (
	ES3 LanguageVersion = iota
	ES5
	ES2015
	ES2016
	ES2017
	ES2018
	ES2019
	ES2020
	ES2021
	ES2022
	ESNext
)

var versionNames = map[LanguageVersion]string{
	ES3:    "es3",
	ES5:    "es5",
	ES2015: "es2015",
	ES2016: "es2016",
	ES2017: "es2017",
	ES2018: "es2018",
	ES2019: "es2019",
	ES2020: "es2020",
	ES2021: "es2021",
	ES2022: "es2022",
	ESNext: "esnext",
}

// String returns the lower-case name of the version, as used in library
// file names.
func (v LanguageVersion) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return fmt.Sprintf("LanguageVersion(%d)", int(v))
}

// SourceFile is a source unit handed to the compiler.
type SourceFile struct {
	// FileName is the file's path in system form.
	FileName string

	// Text is the file content with any byte order mark removed.
	Text string

	LanguageVersion LanguageVersion

	// LineStarts holds the byte offset of the first character of each line.
	LineStarts []int
}

// ParseFunc builds a SourceFile from file content.
type ParseFunc func(fileName, content string, version LanguageVersion) (*SourceFile, error)

// ParseSource is the default ParseFunc. It rejects content that is not valid
// UTF-8 and records line offsets.
func ParseSource(fileName, content string, version LanguageVersion) (*SourceFile, error) {
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8", fileName)
	}
	content = strings.TrimPrefix(content, "\uFEFF")

	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &SourceFile{
		FileName:        fileName,
		Text:            content,
		LanguageVersion: version,
		LineStarts:      starts,
	}, nil
}

// SourceFile reads name and builds a source unit from it, or returns nil
// when the merged view has no such file. Read and parse faults are passed to
// onError and never returned.
func (h *Host) SourceFile(name string, version LanguageVersion, onError OnErrorFunc) *SourceFile {
	p := h.Resolve(name)
	data, ok, err := h.read(p)
	if err != nil {
		h.report(onError, p, err)
		return nil
	}
	if !ok {
		return nil
	}

	sf, err := h.parse(h.Denormalize(p), string(data), version)
	if err != nil {
		h.report(onError, p, err)
		return nil
	}
	return sf
}

// DefaultLibFileName returns the default library file for the compile
// target, inside opts.LibDir when it is set.
func (h *Host) DefaultLibFileName(opts CompilerOptions) string {
	var name string
	switch {
	case opts.Target <= ES5:
		name = "lib.d.ts"
	case opts.Target == ES2015:
		name = "lib.es6.d.ts"
	default:
		name = "lib." + opts.Target.String() + ".full.d.ts"
	}

	if opts.LibDir == "" {
		return name
	}
	return pathutil.Join(opts.LibDir, name)
}
