package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/scott-cotton/cli"
	"go.uber.org/goleak"

	"github.com/signadot/lyb-format/go-lyb"
	"github.com/signadot/lyb-format/go-lyb/diag"
	"github.com/signadot/lyb-format/go-lyb/output"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

func mainConfig() *MainConfig {
	return &MainConfig{Schema: "testdata/ex.yaml", Main: cli.NewCommand("lybdump")}
}

// writeDoc prints one document per name into a file.
func writeDoc(t *testing.T, cfg *MainConfig, names ...string) string {
	t.Helper()
	sctx, err := cfg.schemaContext()
	if err != nil {
		t.Fatal(err)
	}
	top, err := sctx.FindNode("/ex:top")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "doc.lyb")
	out, err := output.NewFilePath(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		root, err := tree.CreateInner(top)
		if err != nil {
			t.Fatal(err)
		}
		leaf, _, err := tree.CreateTerm(top.Child("name", nil, false), name)
		if err != nil {
			t.Fatal(err)
		}
		if err := tree.Insert(root, leaf); err != nil {
			t.Fatal(err)
		}
		if err := lyb.Print(out, sctx, []*tree.Node{root}, lyb.WithPrintLogger(diag.Discard())); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Free(true); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestViewFile(t *testing.T) {
	cfg := &ViewConfig{MainConfig: mainConfig()}
	path := writeDoc(t, cfg.MainConfig, "a", "b")
	buf := &bytes.Buffer{}
	if err := viewFile(cfg, buf, path); err != nil {
		t.Fatal(err)
	}
	want := "ex:top\n  name \"a\"\n\n---\nex:top\n  name \"b\"\n"
	if buf.String() != want {
		t.Errorf("view output %q, want %q", buf.String(), want)
	}
}

func TestViewFilesInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := &ViewConfig{MainConfig: mainConfig(), Stats: true}
	var files []string
	for _, name := range []string{"a", "b", "c", "d"} {
		files = append(files, writeDoc(t, cfg.MainConfig, name))
	}
	buf := &bytes.Buffer{}
	if err := viewFiles(cfg, buf, files); err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(buf.String(), "\n---\n")
	if len(parts) != 4 {
		t.Fatalf("%d files viewed:\n%s", len(parts), buf.String())
	}
	for i, name := range []string{"a", "b", "c", "d"} {
		if !strings.Contains(parts[i], `name "`+name+`"`) {
			t.Errorf("file %d shows %q", i, parts[i])
		}
		if !strings.Contains(parts[i], "# "+files[i]+": 1 documents, ") {
			t.Errorf("file %d stats missing from %q", i, parts[i])
		}
	}
}

// compress rewrites file through zip into file+ext.
func compress(t *testing.T, file, ext string, zip func(io.Writer) io.WriteCloser) string {
	t.Helper()
	d, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	path := file + ext
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip(f)
	if _, err := zw.Write(d); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestViewCompressed(t *testing.T) {
	cfg := &ViewConfig{MainConfig: mainConfig()}
	path := writeDoc(t, cfg.MainConfig, "a", "b")
	zips := map[string]func(io.Writer) io.WriteCloser{
		".lz4": func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) },
		".sz":  func(w io.Writer) io.WriteCloser { return snappy.NewBufferedWriter(w) },
	}
	want := "ex:top\n  name \"a\"\n\n---\nex:top\n  name \"b\"\n"
	for ext, zip := range zips {
		buf := &bytes.Buffer{}
		if err := viewFile(cfg, buf, compress(t, path, ext, zip)); err != nil {
			t.Fatalf("%s: %v", ext, err)
		}
		if buf.String() != want {
			t.Errorf("%s view output %q, want %q", ext, buf.String(), want)
		}
	}
}

func TestViewErrors(t *testing.T) {
	cfg := &ViewConfig{MainConfig: &MainConfig{Main: cli.NewCommand("lybdump")}}
	if err := viewFile(cfg, &bytes.Buffer{}, "x.lyb"); !errors.Is(err, cli.ErrUsage) {
		t.Errorf("missing schema: %v", err)
	}
	cfg = &ViewConfig{MainConfig: mainConfig(), Type: "nope"}
	path := writeDoc(t, cfg.MainConfig, "a")
	if err := viewFile(cfg, &bytes.Buffer{}, path); !errors.Is(err, cli.ErrUsage) {
		t.Errorf("bad type: %v", err)
	}
	cfg.Type = "rpc"
	if err := viewFile(cfg, &bytes.Buffer{}, path); err == nil {
		t.Errorf("data parsed as rpc")
	}
	cfg.Type = ""
	if err := viewFile(cfg, &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.lyb")); err == nil {
		t.Errorf("missing file viewed")
	}
}

func TestModulesFile(t *testing.T) {
	cfg := mainConfig()
	path := writeDoc(t, cfg, "a")
	buf := &bytes.Buffer{}
	if err := modulesFile(cfg, buf, path); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "0\tex\t2024-01-01\n" {
		t.Errorf("modules %q", buf.String())
	}
}

func TestDiffFiles(t *testing.T) {
	cfg := &DiffConfig{MainConfig: mainConfig()}
	a := writeDoc(t, cfg.MainConfig, "a")
	b := writeDoc(t, cfg.MainConfig, "b")

	buf := &bytes.Buffer{}
	differs, err := diffFiles(cfg, buf, a, a)
	if err != nil {
		t.Fatal(err)
	}
	if differs || strings.ContainsAny(buf.String(), "+-") {
		t.Errorf("same file differs:\n%s", buf.String())
	}

	buf.Reset()
	differs, err = diffFiles(cfg, buf, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !differs {
		t.Fatalf("no difference found")
	}
	want := " ex:top\n-  name \"a\"\n+  name \"b\"\n"
	if buf.String() != want {
		t.Errorf("diff %q, want %q", buf.String(), want)
	}
}

func TestHashesFor(t *testing.T) {
	cfg := &HashesConfig{MainConfig: mainConfig()}
	buf := &bytes.Buffer{}
	if err := hashesFor(cfg, buf, nil); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"/ex:\n", "ex:top", "ex:reboot"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("%q missing from %q", s, buf.String())
		}
	}

	buf.Reset()
	cfg.Output = true
	if err := hashesFor(cfg, buf, []string{"/ex:reboot"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ex:status") || strings.Contains(buf.String(), "ex:delay") {
		t.Errorf("rpc output hashes %q", buf.String())
	}
	if err := hashesFor(cfg, buf, []string{"/ex:nope"}); err == nil {
		t.Errorf("unknown schema path")
	}
}

func TestDocParser(t *testing.T) {
	for _, typ := range []string{"", "data", "rpc", "reply", "notif", "notification"} {
		if _, err := docParser(typ); err != nil {
			t.Errorf("%s: %v", typ, err)
		}
	}
	if _, err := docParser("xml"); !errors.Is(err, cli.ErrUsage) {
		t.Errorf("expected usage error")
	}
}
