package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
)

var popplerPagesRe = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// PopplerBackend 调用 poppler-utils（pdfinfo / pdftoppm）的子进程后端。
// 只有配置里显式允许子进程且两支二进制都在 PATH 上时才会进链。
type PopplerBackend struct {
	pdfinfoPath  string
	pdftoppmPath string
}

func NewPopplerBackend() *PopplerBackend {
	b := &PopplerBackend{}
	b.pdfinfoPath, _ = exec.LookPath("pdfinfo")
	b.pdftoppmPath, _ = exec.LookPath("pdftoppm")
	return b
}

// Available 两支二进制都找到了才算可用
func (b *PopplerBackend) Available() bool {
	return b.pdfinfoPath != "" && b.pdftoppmPath != ""
}

func (b *PopplerBackend) Name() string {
	return BackendPoppler
}

func (b *PopplerBackend) CountPages(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, b.pdfinfoPath, pdfPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w, stderr: %s", err, stderr.String())
	}

	m := popplerPagesRe.FindSubmatch(stdout.Bytes())
	if m == nil {
		return 0, fmt.Errorf("pdfinfo output missing Pages field")
	}

	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("pdfinfo reported invalid page count %q", m[1])
	}

	return n, nil
}

func (b *PopplerBackend) RenderPage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdftoppm-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, b.pdftoppmPath,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-png",
		"-singlefile",
		"-r", strconv.Itoa(dpi),
		pdfPath,
		prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w, stderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no output: %w", err)
	}

	return data, nil
}
