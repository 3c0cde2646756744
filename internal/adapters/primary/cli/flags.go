package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

// FileOpener reads an image selected by path. When the returned Reader is an
// io.Closer the shell closes it after the upload.
type FileOpener func(path string) (domain.ImageFile, error)

// OpenImage opens a local file and sniffs its content type.
func OpenImage(path string) (domain.ImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImageFile{}, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return domain.ImageFile{}, err
	}

	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ctype == "" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		ctype = http.DetectContentType(head[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return domain.ImageFile{}, err
		}
	}
	return domain.ImageFile{Name: filepath.Base(path), ContentType: ctype, Size: info.Size(), Reader: f}, nil
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parse accepts flags before, between and after positional arguments and
// returns the positionals.
func parse(fs *flag.FlagSet, usage string, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, domain.Invalid("usage: %s", usage)
			}
			return nil, domain.Invalid("%v (usage: %s)", err, usage)
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// need checks the positional count.
func need(pos []string, n int, usage string) error {
	if len(pos) < n {
		return domain.Invalid("missing argument (usage: %s)", usage)
	}
	return nil
}

// visited reports which flags were given explicitly.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04"}

// parseDeadline reads a date in local time; a plain date means the end of that day.
func parseDeadline(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	return time.Time{}, domain.Invalid("deadline %q is not a date (use YYYY-MM-DD)", s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "no deadline"
	}
	return t.Local().Format("2006-01-02")
}

func short(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
