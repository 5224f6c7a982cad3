package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"villagecraft.ai/internal/sim/world"
)

// ReadTicks decodes a single .jsonl.zst tick log, calling fn for each entry
// in file order. Returning false from fn stops the scan.
func ReadTicks(path string, fn func(world.TickLogEntry) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	r := bufio.NewReaderSize(dec, 128*1024)
	line := 0
	for {
		b, err := r.ReadBytes('\n')
		if len(b) > 0 {
			line++
			var e world.TickLogEntry
			if jerr := json.Unmarshal(b, &e); jerr != nil {
				return fmt.Errorf("%s:%d: %w", path, line, jerr)
			}
			if !fn(e) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// TickFiles lists the tick logs under a world directory, oldest first.
func TickFiles(worldDir string) ([]string, error) {
	files, err := filepath.Glob(tickGlob(worldDir))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
