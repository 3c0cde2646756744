package domain

import (
	"io"
	"strings"
)

const (
	MaxImageBytes    int64 = 32 << 20 // 32 MiB, the image host's ceiling
	MaxImagesPerPost       = 5
)

// ImageFile is an image selected for upload.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Validate applies the host limits: image/* only, at most MaxImageBytes.
func (f ImageFile) Validate() error {
	if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return Invalid("%s: only image files can be uploaded (got %q)", f.Name, f.ContentType)
	}
	if f.Size <= 0 {
		return Invalid("%s: file is empty", f.Name)
	}
	if f.Size > MaxImageBytes {
		return Invalid("%s: image exceeds the %d MB limit", f.Name, MaxImageBytes>>20)
	}
	return nil
}

// PendingImages is the set of images waiting to be uploaded with a post.
// Selections beyond MaxImagesPerPost are dropped.
type PendingImages struct {
	files []ImageFile
}

// Add validates and keeps files until the set is full. It returns the validation
// errors of rejected files and the number of files dropped for lack of room.
func (p *PendingImages) Add(files ...ImageFile) (rejected []error, dropped int) {
	for _, f := range files {
		if err := f.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		if len(p.files) >= MaxImagesPerPost {
			dropped++
			continue
		}
		p.files = append(p.files, f)
	}
	return rejected, dropped
}

// Remove drops the file at index i.
func (p *PendingImages) Remove(i int) {
	if i < 0 || i >= len(p.files) {
		return
	}
	p.files = append(p.files[:i], p.files[i+1:]...)
}

func (p *PendingImages) Files() []ImageFile {
	out := make([]ImageFile, len(p.files))
	copy(out, p.files)
	return out
}

func (p *PendingImages) Len() int { return len(p.files) }

func (p *PendingImages) Clear() { p.files = nil }
