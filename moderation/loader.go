package moderation

import (
	"bufio"
	"bytes"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Dictionary is the merged content of the word lists found in a directory.
type Dictionary struct {
	Words     []string
	Languages []string
}

// LoadDictionary reads every "<language>.txt" file of dir, one word per line.
// Extra words, such as the ones given in configuration, are merged in.
func LoadDictionary(fsys fs.FS, dir string, extra ...string) (Dictionary, error) {
	words := slices.Clone(extra)

	var languages []string
	if fsys != nil {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return Dictionary{}, err
		}
		for _, entry := range entries {
			if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
				continue
			}
			languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

			data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
			if err != nil {
				return Dictionary{}, err
			}
			// The scanner copes with both \n and \r\n endings
			scanner := bufio.NewScanner(bytes.NewReader(data))
			for scanner.Scan() {
				words = append(words, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return Dictionary{}, err
			}
		}
	}

	words = lo.Uniq(lo.Compact(lo.Map(words, func(word string, _ int) string {
		return strings.TrimSpace(word)
	})))
	slices.Sort(words)
	return Dictionary{Words: words, Languages: languages}, nil
}
