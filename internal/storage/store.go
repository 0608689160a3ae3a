package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/orbsim/internal/dynamo"
)

const (
	metaFile   = "metadata.json"
	statesFile = "states.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one stored integration.
type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Bodies    []string           `json:"bodies"`
	Masses    []float64          `json:"masses"`
	G         float64            `json:"g"`
	Config    dynamo.Config      `json:"config"`
	Stats     dynamo.Stats       `json:"stats"`
	Metrics   map[string]float64 `json:"metrics"`
	Points    int                `json:"points"`
}

// newRunID keeps letters, digits, '-' and '.' of name so the ID is always a
// single path element; anything else becomes '_'.
func newRunID(name string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, name)
	if strings.Trim(safe, "._") == "" {
		safe = "run"
	}
	return fmt.Sprintf("%s_%d_%s", safe, now.Unix(), uuid.NewString()[:8])
}

// Save writes meta and the trajectory into a fresh run directory and
// returns the run ID. ID, Timestamp and Points are filled in.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	meta.ID = newRunID(meta.Name, now)
	meta.Timestamp = now
	meta.Points = result.Len()
	sanitize(&meta)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	err := writeMeta(filepath.Join(runDir, metaFile), &meta)
	if err == nil {
		err = writeStates(filepath.Join(runDir, statesFile), result)
	}
	if err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return meta.ID, nil
}

// sanitize drops values JSON cannot carry. Step extremes of a run that
// never stepped are stored as zero.
func sanitize(meta *RunMetadata) {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if len(meta.Metrics) > 0 {
		clean := make(map[string]float64, len(meta.Metrics))
		for k, v := range meta.Metrics {
			if finite(v) {
				clean[k] = v
			}
		}
		meta.Metrics = clean
	}
	for _, v := range []*float64{&meta.Stats.MinStep, &meta.Stats.MaxStep, &meta.Stats.LastStep} {
		if !finite(*v) {
			*v = 0
		}
	}
}

func writeMeta(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeStates(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, result); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes a time column followed by one column per state component.
// Values use the shortest representation that parses back exactly.
func WriteCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)
	if result.Len() == 0 {
		cw.Flush()
		return cw.Error()
	}

	dim := len(result.States[0])
	header := make([]string, 0, dim+1)
	header = append(header, "time")
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, dim+1)
	for i, x := range result.States {
		row = row[:1]
		row[0] = strconv.FormatFloat(result.Times[i], 'g', -1, 64)
		for _, v := range x {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadStates reads the stored trajectory back into a Result. Stats are
// taken from the run metadata when it is available.
func (s *Store) LoadStates(runID string) (*dynamo.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	res, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if meta, err := s.Load(runID); err == nil {
		res.Stats = meta.Stats
	}
	return res, nil
}

// ReadCSV parses the format produced by WriteCSV.
func ReadCSV(r io.Reader) (*dynamo.Result, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	res := &dynamo.Result{}
	if len(records) < 2 {
		return res, nil
	}

	res.Times = make([]float64, 0, len(records)-1)
	res.States = make([]dynamo.State, 0, len(records)-1)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		x := make(dynamo.State, len(record)-1)
		for j, field := range record[1:] {
			if x[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i+1, j+1, err)
			}
		}
		res.Times = append(res.Times, t)
		res.States = append(res.States, x)
	}
	return res, nil
}

// Floats encodes NaN and infinities as the JSON strings "NaN", "+Inf" and
// "-Inf"; finite values stay numbers.
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(f)*20)
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		switch {
		case math.IsNaN(v):
			buf = append(buf, `"NaN"`...)
		case math.IsInf(v, 1):
			buf = append(buf, `"+Inf"`...)
		case math.IsInf(v, -1):
			buf = append(buf, `"-Inf"`...)
		default:
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
	}
	return append(buf, ']'), nil
}

func (f *Floats) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*f = nil
		return nil
	}
	out := make(Floats, len(raw))
	for i, r := range raw {
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || !(math.IsNaN(v) || math.IsInf(v, 0)) {
				return fmt.Errorf("element %d: %q is not NaN or Inf", i, s)
			}
			out[i] = v
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	*f = out
	return nil
}

// Export is the single-document JSON form of a run.
type Export struct {
	RunMetadata
	Times  Floats   `json:"times"`
	States []Floats `json:"states"`
}

func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	res, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	doc := Export{
		RunMetadata: *meta,
		Times:       res.Times,
		States:      make([]Floats, len(res.States)),
	}
	for i, x := range res.States {
		doc.States[i] = Floats(x)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ExportCSV copies the stored states file to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
