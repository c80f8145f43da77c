// File: internal/classifier/process.go
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"go.uber.org/zap"
)

// Process runs the classification model as a child process. The input is
// written to a file inside the work directory and the file name is passed as
// the only argument. The binary is addressed by absolute path and the child
// starts in the work directory, so the caller's working directory is never
// touched.
type Process struct {
	binary    string
	workDir   string
	inputFile string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewProcess resolves the binary and work directory from cfg. An empty work
// directory defaults to the directory holding the binary.
func NewProcess(cfg config.ClassifierConfig, logger *zap.Logger) (*Process, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("classifier binary path is empty")
	}
	binary, err := filepath.Abs(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve classifier binary: %w", err)
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(binary)
	}
	if workDir, err = filepath.Abs(workDir); err != nil {
		return nil, fmt.Errorf("failed to resolve classifier work dir: %w", err)
	}
	inputFile := cfg.InputFile
	if inputFile == "" {
		inputFile = "temp_input.txt"
	}
	return &Process{
		binary:    binary,
		workDir:   workDir,
		inputFile: inputFile,
		timeout:   cfg.Timeout,
		logger:    logger.Named("classifier"),
	}, nil
}

// Classify writes rows as tab-separated lines and runs the model on them.
func (p *Process) Classify(ctx context.Context, rows [][]float64) (int, error) {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(joinFloats(row, "\t"))
		b.WriteByte('\n')
	}
	return p.invoke(ctx, b.String())
}

// ClassifyVector runs the model on exactly three space-separated values.
// Any other length is rejected before the process is started.
func (p *Process) ClassifyVector(ctx context.Context, values []float64) (int, error) {
	if len(values) != VectorLen {
		return NoClass, fmt.Errorf("%w: got %d", ErrShape, len(values))
	}
	return p.invoke(ctx, joinFloats(values, " ")+"\n")
}

func (p *Process) invoke(ctx context.Context, input string) (int, error) {
	inputName, err := p.writeInput(input)
	if err != nil {
		return NoClass, &Error{Op: "write", Err: err}
	}
	defer func() {
		if err := os.Remove(filepath.Join(p.workDir, inputName)); err != nil {
			p.logger.Debug("Could not remove classifier input file.", zap.String("file", inputName), zap.Error(err))
		}
	}()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, inputName)
	cmd.Dir = p.workDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return NoClass, &Error{Op: "spawn", Err: fmt.Errorf("%w: %v", ctxErr, runErr)}
		}
		// A model that exits non-zero may still have printed its scores.
		if _, exited := runErr.(*exec.ExitError); !exited {
			return NoClass, &Error{Op: "spawn", Err: runErr}
		}
		p.logger.Debug("Classifier exited with non-zero status.",
			zap.Error(runErr),
			zap.String("stderr", strings.TrimSpace(stderr.String())))
	}

	scores, err := ParseScores(stdout.String())
	if err != nil {
		return NoClass, &Error{Op: "parse", Err: err}
	}
	idx := Argmax(scores)
	p.logger.Debug("Classifier answered.",
		zap.Float64s("scores", scores),
		zap.Int("class_index", idx),
		zap.Duration("took", time.Since(start)))
	return idx, nil
}

// writeInput stores input in a fresh file inside the work directory and
// returns its base name. Every call gets its own file, named after the
// configured input file (temp_input.txt becomes temp_input-<random>.txt), so
// processes sharing a work directory never read each other's input.
func (p *Process) writeInput(input string) (string, error) {
	ext := filepath.Ext(p.inputFile)
	pattern := strings.TrimSuffix(p.inputFile, ext) + "-*" + ext
	f, err := os.CreateTemp(p.workDir, pattern)
	if err != nil {
		return "", err
	}
	name := filepath.Base(f.Name())
	if _, err := f.WriteString(input); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

func joinFloats(values []float64, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, sep)
}
