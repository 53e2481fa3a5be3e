// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OCAP2/aoi/pkg/core"
)

// JournalExport is the root JSON structure
type JournalExport struct {
	ExtensionVersion string       `json:"extensionVersion"`
	SessionName      string       `json:"sessionName"`
	UUID             string       `json:"uuid"`
	MaxRange         float64      `json:"maxRange"`
	Projection       string       `json:"projection,omitempty"`
	StartTime        time.Time    `json:"startTime"`
	EndTime          time.Time    `json:"endTime"`
	EndSeq           uint64       `json:"endSeq"`
	Entities         []EntityJSON `json:"entities"`
	Transitions      [][]any      `json:"transitions"`
}

// EntityJSON is one entity's path through the scene.
// Each path entry is [seq, kind, x, y, aoi].
type EntityJSON struct {
	ID   string  `json:"id"`
	Path [][]any `json:"path"`
}

// exportJSON writes the session journal to a (gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	name := strings.ReplaceAll(b.session.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

type pathEntry struct {
	seq  uint64
	kind core.EventKind
	pos  core.Position2D
	aoi  float64
}

func (b *Backend) buildExport() JournalExport {
	export := JournalExport{
		ExtensionVersion: b.session.ExtensionVersion,
		SessionName:      b.session.Name,
		UUID:             b.session.UUID,
		MaxRange:         b.session.MaxRange,
		Projection:       b.session.Projection,
		StartTime:        b.session.StartTime,
		EndTime:          b.session.EndTime,
		EndSeq:           b.maxSeq,
		Entities:         make([]EntityJSON, 0, len(b.entities)),
		Transitions:      make([][]any, 0, len(b.transitions)),
	}

	ids := make([]string, 0, len(b.entities))
	for id := range b.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := b.entities[id]

		entries := make([]pathEntry, 0, len(rec.Enters)+len(rec.Moves)+len(rec.Leaves))
		for _, e := range rec.Enters {
			entries = append(entries, pathEntry{e.Seq, core.KindEnter, e.Position, e.AOI})
		}
		for _, e := range rec.Moves {
			kind := e.Kind
			if kind == "" {
				kind = core.KindMove
			}
			entries = append(entries, pathEntry{e.Seq, kind, e.To, e.AOI})
		}
		for _, e := range rec.Leaves {
			entries = append(entries, pathEntry{e.Seq, core.KindLeave, e.Position, e.AOI})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

		entity := EntityJSON{ID: id, Path: make([][]any, 0, len(entries))}
		for _, p := range entries {
			entity.Path = append(entity.Path, []any{p.seq, string(p.kind), p.pos.X, p.pos.Y, p.aoi})
		}
		export.Entities = append(export.Entities, entity)
	}

	// Format: [seq, watcher, target, visible]
	for _, t := range b.transitions {
		export.Transitions = append(export.Transitions, []any{
			t.Seq,
			t.Watcher,
			t.Target,
			boolToInt(t.Visible),
		})
	}

	return export
}

func writeJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
