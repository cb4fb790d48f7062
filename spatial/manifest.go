package spatial

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/starkdb/stark/errs"
	"github.com/tidwall/btree"
)

// newPartFileName mints a stable, process-unique part-file name for a
// partition that wasn't given an explicit one, per §6's manifest part
// file naming.
func newPartFileName() string {
	return uuid.NewString() + ".part"
}

// ManifestEntry is one line of a partition manifest sidecar: a spatial
// envelope, an optional temporal range, and the partition's data file
// name. Start/End nil means unbounded on that side; both nil means no
// temporal component at all, per §6.
type ManifestEntry struct {
	Envelope NRectRange
	Start    *int64
	End      *int64
	File     string
}

func envelopeWKT(r NRectRange) string {
	return fmt.Sprintf("POLYGON((%g %g, %g %g, %g %g, %g %g, %g %g))",
		r.LL[0], r.LL[1], r.UR[0], r.LL[1], r.UR[0], r.UR[1], r.LL[0], r.UR[1], r.LL[0], r.LL[1])
}

func parseEnvelopeWKT(s string) (NRectRange, error) {
	s = strings.TrimPrefix(s, "POLYGON((")
	s = strings.TrimSuffix(s, "))")
	parts := strings.Split(s, ",")
	if len(parts) == 0 {
		return NRectRange{}, errs.NewGeometryError("empty envelope WKT", map[string]any{"wkt": s})
	}
	var minX, minY, maxX, maxY float64
	first := true
	for _, p := range parts {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) != 2 {
			return NRectRange{}, errs.NewGeometryError("malformed envelope WKT vertex", map[string]any{"vertex": p})
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return NRectRange{}, errs.NewGeometryError("malformed x coordinate", map[string]any{"value": fields[0]})
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return NRectRange{}, errs.NewGeometryError("malformed y coordinate", map[string]any{"value": fields[1]})
		}
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			continue
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return NRectRange{LL: NPoint{minX, minY}, UR: NPoint{maxX, maxY}}, nil
}

// orderByFile assembles entries into deterministic file-name order via
// an ordered btree.Map, used by the partitioners' WritePartitionManifest
// so manifest line order never depends on the order partitions happened
// to finalize in (e.g. when extents were accumulated concurrently across
// a bulk-parallel collaborator's goroutines).
func orderByFile(entries []ManifestEntry) []ManifestEntry {
	var m btree.Map[string, ManifestEntry]
	for _, e := range entries {
		m.Set(e.File, e)
	}
	out := make([]ManifestEntry, 0, m.Len())
	m.Scan(func(key string, value ManifestEntry) bool {
		out = append(out, value)
		return true
	})
	return out
}

// WriteManifest writes one line per entry to path, in the §6 format:
// <wkt-envelope>;<startEpochMillisOrEmpty>;<endEpochMillisOrEmpty>;<partFileName>
func WriteManifest(path string, entries []ManifestEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, e := range entries {
		start, end := "", ""
		if e.Start != nil {
			start = strconv.FormatInt(*e.Start, 10)
		}
		if e.End != nil {
			end = strconv.FormatInt(*e.End, 10)
		}
		if _, err := fmt.Fprintf(w, "%s;%s;%s;%s\n", envelopeWKT(e.Envelope), start, end, e.File); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadManifest reads a manifest file written by WriteManifest. A
// missing partition_info file means "read everything" per §6; for a
// missing file this function returns the os.Open error unchanged, so
// callers can detect it with os.IsNotExist.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var entries []ManifestEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ";", 4)
		if len(fields) != 4 {
			return nil, errs.NewGeometryError("malformed manifest line", map[string]any{"line": line})
		}
		env, err := parseEnvelopeWKT(fields[0])
		if err != nil {
			return nil, err
		}
		entry := ManifestEntry{Envelope: env, File: fields[3]}
		if fields[1] != "" {
			v, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, errs.NewGeometryError("malformed start epoch", map[string]any{"value": fields[1]})
			}
			entry.Start = &v
		}
		if fields[2] != "" {
			v, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				return nil, errs.NewGeometryError("malformed end epoch", map[string]any{"value": fields[2]})
			}
			entry.End = &v
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
