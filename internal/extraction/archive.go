package extraction

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// maxMemberBytes caps a single unpacked archive member.
const maxMemberBytes = 256 << 20

var errUnsafePath = errors.New("archive member escapes destination")

// extractArchive unpacks path next to itself, then concatenates the text of
// every member that looks like candidate materials. Each member is preceded
// by a banner naming it. Nested archives are unpacked up to MaxDepth.
func (e *Extractor) extractArchive(ctx context.Context, path string, depth int) (string, error) {
	kind := ArchiveKind(path)

	dest, err := os.MkdirTemp(filepath.Dir(path), "unpacked-*")
	if err != nil {
		return "", fmt.Errorf("failed to create unpack directory: %w", err)
	}
	defer os.RemoveAll(dest)

	if err := unpack(path, kind, dest); err != nil {
		return "", &Error{Kind: KindConversion, File: filepath.Base(path), Message: "failed to unpack " + kind + " archive", Cause: err}
	}

	var b strings.Builder
	err = filepath.WalkDir(dest, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if ArchiveKind(d.Name()) != "" {
			if depth+1 > e.opts.MaxDepth {
				e.logger.Warn("skipping deeply nested archive", "member", d.Name())
				return nil
			}
			text, err := e.extractArchive(ctx, p, depth+1)
			if err != nil {
				return err
			}
			b.WriteString(text)
			return nil
		}

		if !IsMaterials(d.Name()) {
			return nil
		}

		text, err := e.memberText(ctx, p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dest, p)
		if err != nil {
			rel = d.Name()
		}
		fmt.Fprintf(&b, "====================== %s file: %s ======================\n\n", kind, filepath.ToSlash(rel))
		b.WriteString(text)
		b.WriteString("\n\n\n")
		return nil
	})
	if err != nil {
		return "", err
	}

	return b.String(), nil
}

// memberText converts a single unpacked member. Anything that is not a PDF
// or HTML is read as text.
func (e *Extractor) memberText(ctx context.Context, path string) (string, error) {
	switch Classify(filepath.Base(path), "") {
	case FormatPDF:
		return e.pdfToText(ctx, path)
	case FormatHTML:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return HTMLToText(data, e.opts.WrapWidth)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}
}

func unpack(path, kind, dest string) error {
	switch kind {
	case "zip":
		return unpackZip(path, dest)
	case "tar":
		return unpackTar(path, dest, false)
	case "tar.gz":
		return unpackTar(path, dest, true)
	case "7z":
		return unpack7z(path, dest)
	default:
		return fmt.Errorf("unknown archive kind %q", kind)
	}
}

func unpackZip(path, dest string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		err = writeMember(dest, f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func unpackTar(path, dest string, gzipped bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := writeMember(dest, hdr.Name, tr); err != nil {
			return err
		}
	}
}

func unpack7z(path, dest string) error {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		err = writeMember(dest, f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// writeMember copies one archive member under dest, refusing names that
// would land outside it.
func writeMember(dest, name string, r io.Reader) error {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: %s", errUnsafePath, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(r, maxMemberBytes)); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return out.Close()
}
