package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"
)

// Identifiers that must not appear in sandboxed code. Syntactic check only;
// the wall-clock timeout and workspace cwd are the real containment.
var blockedPatterns = []string{
	"os.system", "os.popen", "os.exec", "os.spawn", "os.remove", "os.unlink", "os.rmdir",
	"eval(", "exec(", "__import__", "requests.", "urllib.",
	"subprocess", "importlib", "shutil.rmtree", "shutil.move",
	"socket.", "ctypes", "getattr(", "setattr(", "delattr(",
	"open(", "pathlib",
}

// executePython runs user code in a python3 subprocess confined to the
// workspace directory.
func (e *Executor) executePython(ctx context.Context, code string) string {
	if !e.cfg.AllowCodeExec {
		return "❌ Execução de código desabilitada neste ambiente."
	}

	for _, pattern := range blockedPatterns {
		if strings.Contains(code, pattern) {
			return fmt.Sprintf("❌ Operação bloqueada por segurança: %s", pattern)
		}
	}

	if err := e.execSem.Acquire(ctx, 1); err != nil {
		return fmt.Sprintf("Erro na execução: %v", err)
	}
	defer e.execSem.Release(1)

	if err := os.MkdirAll(e.cfg.WorkspacePath, 0o755); err != nil {
		return fmt.Sprintf("Erro na execução: %v", err)
	}

	scriptName := fmt.Sprintf("script-%s.py", uuid.NewString())
	scriptPath, err := e.confinePath(scriptName)
	if err != nil {
		return fmt.Sprintf("Erro na execução: %v", err)
	}
	if err := os.WriteFile(scriptPath, []byte(code), 0o644); err != nil {
		return fmt.Sprintf("Erro na execução: %v", err)
	}
	defer os.Remove(scriptPath)

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.CodeTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python3", scriptPath)
	cmd.Dir = e.cfg.WorkspacePath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("❌ Timeout na execução (%ds excedidos).", int(e.cfg.CodeTimeout.Seconds()))
	}

	out := stdout.String()
	if errText := stderr.String(); errText != "" {
		out += fmt.Sprintf("\nSTDERR: %s", errText)
	}
	if strings.TrimSpace(out) == "" {
		if err != nil {
			return fmt.Sprintf("Erro na execução: %v", err)
		}
		return "(Código executado sem output. Use print() para ver resultados.)"
	}
	return out
}
