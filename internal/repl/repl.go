package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"crisp/internal/evaluator"
	"crisp/internal/loader"
	"crisp/internal/util"
)

// Start runs the interactive loop: read one line, evaluate it, print the
// result or the error, repeat. exit/quit (or Ctrl-D) terminate it.
func Start(ev *evaluator.Evaluator, cfg util.Configuration) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(cfg.HistoryFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	for {
		input, err := line.Prompt(cfg.Prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println("Goodbye!")
			break
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		line.AppendHistory(input)

		result, err := loader.EvalString(ev, input)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(result.Inspect())
	}

	if f, err := os.Create(cfg.HistoryFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
	return nil
}
